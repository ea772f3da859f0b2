package export

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/greenmantra/backend-store/internal/common"
	"github.com/greenmantra/backend-store/internal/obs"
	"github.com/greenmantra/backend-store/internal/order"
)

// OrderSource loads stored orders for invoice rendering.
type OrderSource interface {
	Get(ctx context.Context, orderID string) (order.Order, error)
}

// Handler serves the invoice endpoints of an order.
type Handler struct {
	Orders OrderSource
	Svc    *Service
}

// Routes mounts the invoice endpoints under an order route.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/orders/{orderId}/invoice", h.Document)
	r.Get("/orders/{orderId}/invoice/download", h.Download)
	r.Get("/orders/{orderId}/invoice/print", h.Print)
}

// Document returns the invoice as JSON.
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	o, ok := h.load(w, r)
	if !ok {
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Svc.Document(o)})
}

// Download streams the invoice PDF as an attachment. When rendering fails the
// client is redirected to the print view so a browser can still produce the
// document through its own print dialog.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	o, ok := h.load(w, r)
	if !ok {
		return
	}
	pdf, err := h.Svc.PDF(r.Context(), o)
	if err != nil {
		h.Svc.Log.Error().Err(err).Str("order_id", o.ID).Msg("invoice pdf render failed, falling back to print view")
		if h.Svc.Metrics != nil {
			h.Svc.Metrics.Renders.WithLabelValues("fallback").Inc()
		}
		if obs.PrintFallbackTotal != nil {
			obs.PrintFallbackTotal.Inc()
		}
		http.Redirect(w, r, r.URL.Path[:len(r.URL.Path)-len("/download")]+"/print", http.StatusSeeOther)
		return
	}
	doc := h.Svc.Document(o)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.FileName("pdf")+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// Print serves the receipt HTML with the auto-print script injected.
func (h *Handler) Print(w http.ResponseWriter, r *http.Request) {
	o, ok := h.load(w, r)
	if !ok {
		return
	}
	html, err := h.Svc.HTML(o, true)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to render invoice", nil)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (order.Order, bool) {
	if h.Orders == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "invoice handler not configured", nil)
		return order.Order{}, false
	}
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "order id is required", nil)
		return order.Order{}, false
	}
	o, err := h.Orders.Get(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return order.Order{}, false
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return order.Order{}, false
	}
	return o, true
}
