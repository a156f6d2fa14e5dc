package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/date"
	"github.com/tallyhq/tally/internal/service/balance"
)

// flowFunc is either Outflows or Inflows on the balance service.
type flowFunc func(ctx context.Context, accountID uuid.UUID, start, end date.Date) (balance.FlowResult, error)

// GET /v1/accounts/{id}/balance?as_of=YYYY-MM-DD
//
// Without as_of the balance is live (transactions dated before today); with
// as_of it covers transactions dated strictly before that day.
func (s *Server) getAccountBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var asOf *date.Date
	if v := r.URL.Query().Get("as_of"); v != "" {
		d, err := date.Parse(v)
		if err != nil {
			badRequest(w, "invalid as_of: "+err.Error())
			return
		}
		asOf = &d
	}

	var res balance.Result
	var err error
	if asOf != nil {
		res, err = s.balanceSvc.BalanceAsOf(r.Context(), id, *asOf)
	} else {
		res, err = s.balanceSvc.Balance(r.Context(), id)
	}
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toBalanceResponse(res, asOf))
}

// GET /v1/accounts/{id}/outflows?start=&end=
func (s *Server) getAccountOutflows(w http.ResponseWriter, r *http.Request) {
	s.flowHandler(w, r, s.balanceSvc.Outflows)
}

// GET /v1/accounts/{id}/inflows?start=&end=
func (s *Server) getAccountInflows(w http.ResponseWriter, r *http.Request) {
	s.flowHandler(w, r, s.balanceSvc.Inflows)
}

func (s *Server) flowHandler(w http.ResponseWriter, r *http.Request, fn flowFunc) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	start, end, ok := windowParams(w, r)
	if !ok {
		return
	}
	res, err := fn(r.Context(), id, start, end)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toFlowResponse(res, start, end))
}

// windowParams parses the required start and end query parameters.
func windowParams(w http.ResponseWriter, r *http.Request) (start, end date.Date, ok bool) {
	q := r.URL.Query()
	rawStart, rawEnd := q.Get("start"), q.Get("end")
	if rawStart == "" || rawEnd == "" {
		badRequest(w, "start and end are required")
		return
	}
	var err error
	if start, err = date.Parse(rawStart); err != nil {
		badRequest(w, "invalid start: "+err.Error())
		return
	}
	if end, err = date.Parse(rawEnd); err != nil {
		badRequest(w, "invalid end: "+err.Error())
		return
	}
	return start, end, true
}
