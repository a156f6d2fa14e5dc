package httpapi

import (
	"net/http"

	"github.com/tallyhq/tally/internal/service/balance"
)

// GET /v1/price?symbol=ETH[&vs=USD]
func (s *Server) getPrice(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		badRequest(w, "symbol is required")
		return
	}
	vs := r.URL.Query().Get("vs")
	if vs == "" {
		vs = balance.RefCurrency
	}
	price, err := s.oracle.SpotPrice(r.Context(), symbol, vs)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, priceResponse{Symbol: symbol, Currency: vs, Price: price})
}
