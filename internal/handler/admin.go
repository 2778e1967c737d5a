package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/saffron-restaurant/api/internal/domain/order"
)

// UpdateOrderStatus handles POST /admin/orders/{id}/status. The target
// status comes from the form; illegal transitions are rejected.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, r, http.StatusNotFound, envelope{"success": false, "message": "order not found"})
		return
	}

	next := order.Status(r.FormValue("status"))
	o, err := h.orders.UpdateStatus(r.Context(), id, next)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			writeJSON(w, r, http.StatusNotFound, envelope{"success": false, "message": "order not found"})
		case errors.Is(err, order.ErrInvalidTransition):
			writeJSON(w, r, http.StatusUnprocessableEntity, envelope{
				"success": false,
				"message": err.Error(),
			})
		default:
			writeError(w, r, http.StatusInternalServerError, "updating order status", err)
		}
		return
	}

	writeOK(w, r, envelope{
		"order_id": o.ID.String(),
		"status":   string(o.Status),
	})
}
