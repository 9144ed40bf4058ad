// Package companies exposes the company-listing accessor.
package companies

import (
	"context"
	"encoding/json"
	"net/http"
)

// Lister enumerates the tickers available for querying. Both the vector
// index and the filing catalog satisfy this.
type Lister interface {
	Companies(ctx context.Context) ([]string, error)
}

// Handler serves /api/companies.
type Handler struct {
	lister Lister
}

// NewHandler creates a handler over any company lister.
func NewHandler(lister Lister) *Handler {
	return &Handler{lister: lister}
}

// HandleList returns the available companies.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tickers, err := h.lister.Companies(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if tickers == nil {
		tickers = []string{}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"companies": tickers,
		"count":     len(tickers),
	})
}
