package httpapi

import (
	"net/http"
)

// GET /v1/income-statement?start=&end=
//
// The period is inclusive on both ends, unlike the balance cutoffs.
func (s *Server) getIncomeStatement(w http.ResponseWriter, r *http.Request) {
	start, end, ok := windowParams(w, r)
	if !ok {
		return
	}
	st, err := s.incomeSvc.Statement(r.Context(), start, end)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toStatementResponse(st))
}
