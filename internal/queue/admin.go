package queue

import (
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/greenmantra/backend-store/internal/common"
)

// AdminHandler exposes queue management endpoints: observing the dead letter
// list and replaying its tasks.
type AdminHandler struct {
	R        *redis.Client
	Prefix   string
	Enq      Enqueuer
	PageSize int
	Log      zerolog.Logger
}

type dlqItem struct {
	OrderID  string `json:"orderId"`
	Attempts int    `json:"attempts"`
}

// Stats reports queue and dead letter depth, refreshing the gauges.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.R == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "queue dependencies unavailable", nil)
		return
	}
	ctx := r.Context()
	ready, err := h.R.ZCard(ctx, queueKey(h.Prefix)).Result()
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	processing, err := h.R.ZCard(ctx, processingKey(h.Prefix)).Result()
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	dead, err := h.R.LLen(ctx, dlqKey(h.Prefix)).Result()
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	Depth.Set(float64(ready))
	DLQSize.Set(float64(dead))
	common.JSON(w, http.StatusOK, map[string]any{
		"kind":       Kind,
		"ready":      ready,
		"processing": processing,
		"dead":       dead,
	})
}

// ListDLQ returns dead letter entries, newest first.
func (h *AdminHandler) ListDLQ(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.R == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "queue dependencies unavailable", nil)
		return
	}
	limit := h.PageSize
	if limit <= 0 {
		limit = 50
	}
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	raws, err := h.R.LRange(r.Context(), dlqKey(h.Prefix), 0, int64(limit-1)).Result()
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	items := make([]dlqItem, 0, len(raws))
	for _, raw := range raws {
		msg, err := decode(raw)
		if err != nil {
			continue
		}
		items = append(items, dlqItem{OrderID: msg.OrderID, Attempts: msg.Attempt})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items, "total": len(items)})
}

// ReplayDLQ drains the dead letter list back into the queue.
func (h *AdminHandler) ReplayDLQ(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.R == nil || h.Enq.R == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "queue dependencies unavailable", nil)
		return
	}
	ctx := r.Context()
	replayed := 0
	for {
		raw, err := h.R.RPop(ctx, dlqKey(h.Prefix)).Result()
		if err == redis.Nil {
			break
		}
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
			return
		}
		msg, err := decode(raw)
		if err != nil {
			continue
		}
		if err := h.Enq.EnqueuePrerender(ctx, msg.OrderID, 0); err != nil {
			h.Log.Warn().Err(err).Str("order_id", msg.OrderID).Msg("dlq replay enqueue failed")
			_ = h.R.LPush(ctx, dlqKey(h.Prefix), raw).Err()
			break
		}
		replayed++
	}
	h.Log.Info().Int("replayed", replayed).Msg("dlq replay complete")
	common.JSON(w, http.StatusOK, map[string]any{"replayed": replayed, "at": time.Now().UTC()})
}
