package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/example/bizpanel/internal/api/middleware"
	"github.com/example/bizpanel/internal/command"
	"github.com/example/bizpanel/internal/domain/inventory"
	"github.com/example/bizpanel/internal/domain/sale"
	"github.com/example/bizpanel/internal/query"
)

const maxSaleBody = 1 << 20

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
	}
}

// Sale Handlers

// CreateSale accepts a JSON cart or the sale form. Form posts are answered
// with a redirect carrying the flash message, JSON posts with a status code.
func (h *Handlers) CreateSale(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	userID := sale.UserID(claims.UserID)

	if isFormPost(r) {
		h.createSaleFromForm(w, r, userID)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSaleBody))
	if err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	raw, err := sale.DecodeRawCart(body)
	if err != nil {
		err = h.cmdHandler.Reject(r.Context(), userID, err)
		respondSaleError(w, err)
		return
	}

	res, err := h.cmdHandler.CreateSale(r.Context(), command.CreateSale{UserID: userID, Cart: raw})
	if err != nil {
		respondSaleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"sale_id": res.SaleID,
		"total":   res.Total.StringFixed(2),
		"message": res.Message,
		"type":    "success",
	})
}

func (h *Handlers) createSaleFromForm(w http.ResponseWriter, r *http.Request, userID sale.UserID) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSaleBody)
	if err := r.ParseForm(); err != nil {
		redirectWithFlash(w, r, command.FailureMessage(h.cmdHandler.Reject(r.Context(), userID,
			&sale.ValidationError{Line: -1, Field: "body", Err: err})), "danger")
		return
	}

	raw, err := sale.DecodeFormCart(r.PostForm.Get("id_cliente"), r.PostForm.Get("items_json"))
	if err != nil {
		redirectWithFlash(w, r, command.FailureMessage(h.cmdHandler.Reject(r.Context(), userID, err)), "danger")
		return
	}

	res, err := h.cmdHandler.CreateSale(r.Context(), command.CreateSale{UserID: userID, Cart: raw})
	if err != nil {
		redirectWithFlash(w, r, command.FailureMessage(err), "danger")
		return
	}
	redirectWithFlash(w, r, res.Message, "success")
}

// SaleForm echoes the flash message left by a form post.
func (h *Handlers) SaleForm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	respondJSON(w, http.StatusOK, map[string]string{
		"message": q.Get("message"),
		"type":    q.Get("type"),
	})
}

func (h *Handlers) GetSale(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(extractPathParam(r.URL.Path, "/sales/"), 10, 64)
	if err != nil {
		respondJSONError(w, "Sale not found", http.StatusNotFound)
		return
	}

	s, err := h.queryHandler.GetSale(r.Context(), sale.SaleID(id))
	if errors.Is(err, sale.ErrSaleNotFound) {
		respondJSONError(w, "Sale not found", http.StatusNotFound)
		return
	}
	if err != nil {
		respondJSONError(w, "Failed to load sale", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

// Activity Handlers

func (h *Handlers) ListActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("pagina"))
	if err != nil {
		page = 1
	}

	p, err := h.queryHandler.ListActivity(r.Context(), page, q.Get("q"))
	if err != nil {
		respondJSONError(w, "Failed to load activity", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helper functions

// respondSaleError maps a CreateSale failure to a status code. The body
// carries the same text the form flow shows.
func respondSaleError(w http.ResponseWriter, err error) {
	var (
		stockErr      *inventory.InsufficientStockError
		validationErr *sale.ValidationError
	)
	msg := command.FailureMessage(err)

	switch {
	case errors.As(err, &stockErr):
		respondJSON(w, http.StatusConflict, map[string]any{
			"error":      msg,
			"type":       "danger",
			"product_id": stockErr.ProductID,
			"available":  stockErr.Available,
		})
	case errors.As(err, &validationErr):
		respondJSONError(w, msg, http.StatusBadRequest)
	default:
		respondJSONError(w, msg, http.StatusInternalServerError)
	}
}

func isFormPost(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/x-www-form-urlencoded"
}

func redirectWithFlash(w http.ResponseWriter, r *http.Request, message, kind string) {
	q := url.Values{}
	q.Set("message", message)
	q.Set("type", kind)
	http.Redirect(w, r, "/sales?"+q.Encode(), http.StatusSeeOther)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message, "type": "danger"})
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}
