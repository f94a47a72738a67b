package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/hltjet/internal/domain/model"
)

// ProductsDependencies defines the interface for product reads.
type ProductsDependencies interface {
	Products(ctx context.Context, key model.EventKey) (*model.Products, error)
}

// ProductsHandler handles product requests.
type ProductsHandler struct {
	deps ProductsDependencies
}

// NewProductsHandler creates a new products handler.
func NewProductsHandler(deps ProductsDependencies) *ProductsHandler {
	return &ProductsHandler{deps: deps}
}

// HandleGetProducts handles GET /products/{run}/{lumi}/{event} requests.
func (h *ProductsHandler) HandleGetProducts(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_products"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/products/")
	parts := strings.Split(path, "/")
	if len(parts) != 3 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	key, err := model.ParseEventKey(strings.Join(parts, ":"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	products, err := h.deps.Products(r.Context(), key)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
		return
	}
	writeJSON(w, http.StatusOK, products)
}
