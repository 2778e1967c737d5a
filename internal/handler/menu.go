package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/saffron-restaurant/api/internal/domain/menu"
)

// imageURL resolves a stored image path against the configured base URL.
// Absolute URLs pass through unchanged.
func (h *Handler) imageURL(path string) string {
	if path == "" || h.cfg.ImageBaseURL == "" {
		return path
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(h.cfg.ImageBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

func (h *Handler) menuItemJSON(item menu.Item) envelope {
	return envelope{
		"id":           item.ID,
		"name":         item.Name,
		"description":  item.Description,
		"ingredients":  item.Ingredients,
		"price":        item.Price.InexactFloat64(),
		"category_id":  item.CategoryID,
		"meal_type":    string(item.MealType),
		"image":        h.imageURL(item.Image),
		"calories":     item.Calories,
		"cooking_time": item.CookingTime,
		"is_special":   item.IsSpecial,
		"is_new":       item.IsNew,
	}
}

// MenuList handles GET /api/menu.
func (h *Handler) MenuList(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "loading menu", err)
		return
	}

	out := make([]envelope, 0, len(items))
	for _, item := range items {
		out = append(out, h.menuItemJSON(item))
	}
	writeOK(w, r, envelope{"items": out})
}

// MenuCategories handles GET /api/menu/categories.
func (h *Handler) MenuCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "loading categories", err)
		return
	}

	out := make([]envelope, 0, len(cats))
	for _, c := range cats {
		out = append(out, envelope{"id": c.ID, "name": c.Name, "sort_order": c.SortOrder})
	}
	writeOK(w, r, envelope{"categories": out})
}

// AddToCart handles GET /menu/add-to-cart/{id}?quantity=n. The menu page
// uses simple links, hence GET with the quantity in the query.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeFail(w, r, "Item not found")
		return
	}

	qty := 1
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		qty, err = strconv.Atoi(raw)
		if err != nil || qty < 1 {
			qty = 1
		}
	}

	item, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, menu.ErrNotFound) {
			writeFail(w, r, "Item not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "loading item", err)
		return
	}

	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	sess.Cart.Add(*item, qty, false)
	if !h.saveSession(w, r, sess) {
		return
	}

	writeOK(w, r, envelope{
		"message":         item.Name + " added to cart",
		"cart_item_count": sess.Cart.ItemCount(),
		"cart_total":      sess.Cart.Subtotal().InexactFloat64(),
	})
}

// RemoveFromCart handles GET /menu/remove-from-cart/{id}.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeFail(w, r, "Item not found")
		return
	}

	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	sess.Cart.Remove(id)
	if !h.saveSession(w, r, sess) {
		return
	}

	writeOK(w, r, envelope{
		"cart_item_count": sess.Cart.ItemCount(),
		"cart_total":      sess.Cart.Subtotal().InexactFloat64(),
	})
}
