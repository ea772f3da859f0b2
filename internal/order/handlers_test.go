package order_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/greenmantra/backend-store/internal/order"
)

type memRepo struct {
	orders []order.Order
}

func (m *memRepo) Create(_ context.Context, o order.Order) (order.Order, error) {
	o.ID = uuid.NewString()
	o.CreatedAt = time.Now().UTC()
	m.orders = append([]order.Order{o}, m.orders...)
	return o, nil
}

func (m *memRepo) Get(_ context.Context, orderID string) (order.Order, error) {
	for _, o := range m.orders {
		if o.ID == orderID {
			return o, nil
		}
	}
	return order.Order{}, order.ErrNotFound
}

func (m *memRepo) List(_ context.Context, limit, offset int) ([]order.Order, error) {
	if offset >= len(m.orders) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.orders) {
		end = len(m.orders)
	}
	return m.orders[offset:end], nil
}

func (m *memRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.orders)), nil
}

type recordingPrerender struct {
	ids []string
}

func (p *recordingPrerender) EnqueuePrerender(_ context.Context, orderID string, _ time.Duration) error {
	p.ids = append(p.ids, orderID)
	return nil
}

func newOrderRouter(repo *memRepo, pre *recordingPrerender) *chi.Mux {
	h := &order.Handler{
		Store:     repo,
		Validate:  validator.New(),
		Prerender: pre,
	}
	mux := chi.NewRouter()
	mux.Post("/api/v1/orders", h.Create)
	mux.Get("/api/v1/orders", h.List)
	mux.Get("/api/v1/orders/{orderId}", h.Get)
	return mux
}

const createBody = `{
	"transactionId": "pay_123456789012",
	"isPaid": true,
	"paymentType": "upi",
	"amount": 210,
	"address": {"firstname": "Asha", "lastname": "Verma", "city": "Gurgaon", "state": "Haryana"},
	"items": [
		{"quantity": 2, "product": {"name": "Vermicompost", "price": 100, "gstPercentage": 5, "category": "Fertilizer", "subCategory": "Organic"}}
	]
}`

func TestCreateOrder(t *testing.T) {
	repo := &memRepo{}
	pre := &recordingPrerender{}
	mux := newOrderRouter(repo, pre)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(createBody))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.orders, 1)
	require.Len(t, pre.ids, 1)
	require.Equal(t, repo.orders[0].ID, pre.ids[0])

	var body struct {
		Data struct {
			Totals struct {
				GrandTotal string `json:"grandTotal"`
			} `json:"totals"`
			Items []struct {
				Badge struct {
					SubCategoryEmoji string `json:"subCategoryEmoji"`
				} `json:"badge"`
			} `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "210", body.Data.Totals.GrandTotal)
	require.Len(t, body.Data.Items, 1)
	require.Equal(t, "\U0001F331", body.Data.Items[0].Badge.SubCategoryEmoji)
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	mux := newOrderRouter(&memRepo{}, &recordingPrerender{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"items": []}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateOrderRejectsBadJSON(t *testing.T) {
	mux := newOrderRouter(&memRepo{}, &recordingPrerender{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrdersPaginated(t *testing.T) {
	repo := &memRepo{}
	mux := newOrderRouter(repo, &recordingPrerender{})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(createBody))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?page=1&limit=2", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "3", rec.Header().Get("X-Total-Count"))

	var body struct {
		Data       []json.RawMessage `json:"data"`
		Pagination struct {
			Page       int `json:"page"`
			PerPage    int `json:"per_page"`
			TotalItems int `json:"total_items"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.Equal(t, 3, body.Pagination.TotalItems)
}

func TestGetOrderNotFound(t *testing.T) {
	mux := newOrderRouter(&memRepo{}, &recordingPrerender{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
