package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/saffron-restaurant/api/internal/domain/review"
)

// ListReviews handles GET /reviews/: published reviews, newest first.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListPublished(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "loading reviews", err)
		return
	}

	out := make([]envelope, 0, len(reviews))
	for _, rev := range reviews {
		out = append(out, envelope{
			"id":         rev.ID,
			"author":     rev.Author,
			"text":       rev.Body,
			"rating":     rev.Rating,
			"created_at": rev.CreatedAt.Format("2006-01-02"),
		})
	}
	writeOK(w, r, envelope{"reviews": out})
}

// CreateReview handles POST /reviews/.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	rating, _ := strconv.Atoi(r.FormValue("rating"))

	rev := &review.Review{
		Author: strings.TrimSpace(r.FormValue("author")),
		Body:   strings.TrimSpace(r.FormValue("text")),
		Rating: rating,
	}

	if err := h.reviews.Create(r.Context(), rev); err != nil {
		var vErr *review.ValidationError
		if errors.As(err, &vErr) {
			writeFail(w, r, vErr.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "creating review", err)
		return
	}

	writeOK(w, r, envelope{
		"message":   "Thank you for your review!",
		"review_id": rev.ID,
	})
}
