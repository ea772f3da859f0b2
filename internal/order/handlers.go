package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/greenmantra/backend-store/internal/catalogmeta"
	"github.com/greenmantra/backend-store/internal/common"
	"github.com/greenmantra/backend-store/internal/obs"
	"github.com/greenmantra/backend-store/internal/pricing"
)

// Prerenderer schedules a background invoice render for a stored order.
type Prerenderer interface {
	EnqueuePrerender(ctx context.Context, orderID string, delay time.Duration) error
}

// Repository is the persistence surface the handlers need. *Store satisfies
// it.
type Repository interface {
	Create(ctx context.Context, o Order) (Order, error)
	Get(ctx context.Context, orderID string) (Order, error)
	List(ctx context.Context, limit, offset int) ([]Order, error)
	Count(ctx context.Context) (int64, error)
}

// Handler serves the order ingest and listing endpoints.
type Handler struct {
	Store     Repository
	Validate  *validator.Validate
	Prerender Prerenderer
	Log       zerolog.Logger
}

type createRequest struct {
	TransactionID string       `json:"transactionId"`
	IsPaid        bool         `json:"isPaid"`
	PaymentType   string       `json:"paymentType"`
	Amount        float64      `json:"amount" validate:"gte=0"`
	Address       *Address     `json:"address"`
	Items         []createItem `json:"items" validate:"required,min=1,dive"`
}

type createItem struct {
	Quantity int             `json:"quantity" validate:"gte=1"`
	Product  ProductSnapshot `json:"product" validate:"required"`
}

// Create ingests an order record from the checkout collaborator and enqueues
// an invoice prerender.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "order payload failed validation", validationDetails(err))
			return
		}
	}
	for _, it := range req.Items {
		if it.Product.Name == "" {
			common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "every item needs a product name", nil)
			return
		}
	}

	items := make([]Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, Item{Quantity: it.Quantity, Product: it.Product})
	}
	o := Order{
		TransactionID: req.TransactionID,
		IsPaid:        req.IsPaid,
		PaymentType:   req.PaymentType,
		Amount:        req.Amount,
		Address:       req.Address,
		Items:         items,
	}

	created, err := h.Store.Create(r.Context(), o)
	if err != nil {
		h.Log.Error().Err(err).Msg("order insert failed")
		if obs.OrderIngestTotal != nil {
			obs.OrderIngestTotal.WithLabelValues("error").Inc()
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to store order", nil)
		return
	}
	if obs.OrderIngestTotal != nil {
		obs.OrderIngestTotal.WithLabelValues("ok").Inc()
	}

	if h.Prerender != nil {
		if err := h.Prerender.EnqueuePrerender(r.Context(), created.ID, 0); err != nil {
			// prerender is best effort, download renders synchronously
			h.Log.Warn().Err(err).Str("order_id", created.ID).Msg("invoice prerender enqueue failed")
		}
	}

	common.JSON(w, http.StatusCreated, map[string]any{"data": detailPayload(created)})
}

// List returns stored orders, newest first, paginated.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20, 100)
	offset := (page - 1) * perPage

	total, err := h.Store.Count(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to count orders", nil)
		return
	}
	orders, err := h.Store.List(r.Context(), perPage, offset)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}

	response := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		totals := o.Totals()
		response = append(response, map[string]any{
			"id":         o.ID,
			"reference":  o.Reference(),
			"createdAt":  o.CreatedAt,
			"isPaid":     o.IsPaid,
			"itemCount":  len(o.Items),
			"grandTotal": totals.GrandTotal,
			"address":    o.Address,
		})
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data": response,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

// Get returns one order with recomputed totals and display metadata.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	orderID := chi.URLParam(r, "orderId")
	o, err := h.Store.Get(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": detailPayload(o)})
}

func detailPayload(o Order) map[string]any {
	totals := o.Totals()
	items := make([]map[string]any, 0, len(o.Items))
	for _, it := range o.Items {
		line := pricing.ComputeLine(it.LineItem())
		items = append(items, map[string]any{
			"quantity": it.Quantity,
			"product":  it.Product,
			"line": map[string]any{
				"subtotal": line.Subtotal,
				"taxRate":  line.TaxRatePercent,
				"tax":      line.TaxAmount,
				"shipping": line.ShippingAmount,
				"total":    line.Total,
			},
			"badge": catalogmeta.For(it.Product.Category, it.Product.SubCategory),
		})
	}
	taxByRate := make([]map[string]any, 0, len(totals.TaxByRate))
	for _, line := range totals.TaxByRate {
		taxByRate = append(taxByRate, map[string]any{
			"ratePercent": line.RatePercent,
			"amount":      line.Amount,
		})
	}
	return map[string]any{
		"order": o,
		"items": items,
		"totals": map[string]any{
			"subtotal":      totals.Subtotal,
			"taxByRate":     taxByRate,
			"totalTax":      totals.TotalTax,
			"totalShipping": totals.TotalShipping,
			"grandTotal":    totals.GrandTotal,
		},
	}
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Namespace()] = fe.Tag()
	}
	return fields
}
