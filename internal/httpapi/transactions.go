package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tallyhq/tally/internal/service/journal"
)

// GET /v1/transactions
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := s.journalSvc.List(r.Context())
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toTransactionResponses(txns))
}

// POST /v1/transactions
func (s *Server) postTransaction(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeTransactionPayload(w, r)
	if !ok {
		return
	}
	t, err := s.journalSvc.Create(r.Context(), in)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toTransactionResponse(t))
}

// PUT /v1/transactions/{id}
func (s *Server) putTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := decodeTransactionPayload(w, r)
	if !ok {
		return
	}
	t, err := s.journalSvc.Edit(r.Context(), id, in)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toTransactionResponse(t))
}

// POST /v1/transactions/delete
//
// Deletes each id independently. On a mid-list failure the response reports
// how many deletions committed and which id failed; nothing is rolled back.
func (s *Server) deleteTransactions(w http.ResponseWriter, r *http.Request) {
	var req deleteTransactionsRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if len(req.IDs) == 0 {
		badRequest(w, "ids are required")
		return
	}
	deleted, err := s.journalSvc.DeleteBatch(r.Context(), req.IDs)
	if err != nil {
		var f *journal.DeleteFailure
		resp := deleteTransactionsResponse{Deleted: deleted, Error: err.Error()}
		if errors.As(err, &f) {
			id := f.ID
			resp.FailedID = &id
		}
		toJSON(w, http.StatusMultiStatus, resp)
		return
	}
	toJSON(w, http.StatusOK, deleteTransactionsResponse{Deleted: deleted})
}

func decodeTransactionPayload(w http.ResponseWriter, r *http.Request) (journal.Input, bool) {
	var req transactionPayload
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return journal.Input{}, false
	}
	return journal.Input{
		Date:            req.Date,
		Description:     req.Description,
		Note:            req.Note,
		CreditAccountID: req.CreditAccountID,
		DebitAccountID:  req.DebitAccountID,
		Amount:          req.Amount,
	}, true
}
