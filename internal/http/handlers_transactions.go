package http

import (
	"net/http"
	"time"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := userFrom(r)
	tx, err := req.toDomain(userID)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.ledger.CreateTransaction(r.Context(), &tx); err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invalidateMonth(userID, tx.Date)
	respondJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ref := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	transactions, err := s.ledger.ListTransactions(r.Context(), userFrom(r), ref)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionResponse(t))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.ledger.GetTransaction(r.Context(), userFrom(r), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := userFrom(r)
	tx, err := req.toDomain(userID)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	tx.ID = r.PathValue("id")

	// The old row may sit in a different month than the new one.
	old, err := s.ledger.GetTransaction(r.Context(), userID, tx.ID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	if err := s.ledger.UpdateTransaction(r.Context(), &tx); err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invalidateMonth(userID, old.Date)
	s.invalidateMonth(userID, tx.Date)
	respondJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r)

	old, err := s.ledger.GetTransaction(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	if err := s.ledger.DeleteTransaction(r.Context(), userID, old.ID); err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invalidateMonth(userID, old.Date)
	respondJSON(w, http.StatusNoContent, nil)
}
