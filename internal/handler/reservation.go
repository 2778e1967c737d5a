package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/saffron-restaurant/api/internal/domain/reservation"
)

// CreateReservation handles POST /reservations/.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	guests, _ := strconv.Atoi(r.FormValue("guests"))

	res := &reservation.Reservation{
		Name:           strings.TrimSpace(r.FormValue("name")),
		Email:          strings.TrimSpace(r.FormValue("email")),
		Phone:          strings.TrimSpace(r.FormValue("phone")),
		Guests:         guests,
		VisitTime:      strings.TrimSpace(r.FormValue("visit_time")),
		SpecialRequest: strings.TrimSpace(r.FormValue("special_request")),
	}
	if raw := r.FormValue("visit_date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeFail(w, r, "visit_date: must be YYYY-MM-DD")
			return
		}
		res.VisitDate = date
	}

	if err := h.reservations.Create(r.Context(), res); err != nil {
		var vErr *reservation.ValidationError
		if errors.As(err, &vErr) {
			writeFail(w, r, vErr.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "creating reservation", err)
		return
	}

	writeOK(w, r, envelope{
		"message":        "Reservation received, we will contact you shortly",
		"reservation_id": res.ID,
	})
}
