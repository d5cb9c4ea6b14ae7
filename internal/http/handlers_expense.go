package http

import (
	"errors"
	"net/http"
	"strings"

	"expensetracker/internal/aggregate"
	"expensetracker/internal/core"
	"expensetracker/internal/ledger"
	"expensetracker/internal/log"
)

// handleExpenses serves GET (list), POST (add) and DELETE (clear) on the
// collection.
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListExpenses(w, r)
	case http.MethodPost:
		s.handleCreateExpense(w, r)
	case http.MethodDelete:
		s.handleClearExpenses(w, r)
	default:
		MethodNotAllowedError("GET, POST, DELETE").Write(w)
	}
}

// handleListExpenses returns expenses most recent first, optionally only
// those in ?currency=.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	currency, err := parseCurrencyFilter(r)
	if err != nil {
		FieldErrorResponse("currency", err.Error()).Write(w)
		return
	}

	records := s.ledger.All()
	if currency != "" {
		records = aggregate.FilterByCurrency(records, currency)
	}
	records = aggregate.SortedByRecency(records)

	NewJSONResponse().Payload(map[string]any{
		"expenses": records,
		"count":    len(records),
	}).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		logger.WarnContext(ctx, "Invalid request body", log.FieldError, err)
		BadRequestError("invalid request body").Write(w)
		return
	}

	draft, err := parser.Draft()
	if err != nil {
		writeValidationError(w, err)
		return
	}

	expense, err := s.ledger.Add(ctx, draft)
	if err != nil && !isPersistenceError(err) {
		writeValidationError(w, err)
		return
	}

	log.NewStructuredLogger(logger).LogExpenseAdded(ctx,
		expense.ID, expense.Name, expense.Amount, expense.Currency.String(), expense.Category)

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+expense.ID).
		Payload(map[string]any{"expense": expense}).
		Warning(persistenceWarning(err)).
		Write(w)
}

// handleClearExpenses removes every expense. Clearing an empty ledger is not
// an error and reports zero.
func (s *Server) handleClearExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := s.ledger.Clear(ctx)
	if err != nil && !isPersistenceError(err) {
		s.logError(ctx, "Clear failed", err, log.OpClear)
		InternalServerError("clear failed").Write(w)
		return
	}

	NewJSONResponse().
		Payload(map[string]any{"cleared": n}).
		Warning(persistenceWarning(err)).
		Write(w)
}

// handleExpenseByID removes a single expense. Unknown ids answer
// {"removed": false} rather than 404.
func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodDelete); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		BadRequestError("missing expense id").Write(w)
		return
	}

	removed, err := s.ledger.Remove(ctx, id)
	if err != nil && !isPersistenceError(err) {
		s.logError(ctx, "Remove failed", err, log.OpRemove)
		InternalServerError("remove failed").Write(w)
		return
	}

	log.NewStructuredLogger(log.FromContext(ctx)).LogExpenseRemoved(ctx, id, removed)

	NewJSONResponse().
		Payload(map[string]any{"removed": removed, "id": id}).
		Warning(persistenceWarning(err)).
		Write(w)
}

func isPersistenceError(err error) bool {
	var perr *ledger.PersistenceError
	return errors.As(err, &perr)
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		FieldErrorResponse(verr.Field, verr.Error()).Write(w)
		return
	}
	InternalServerError("unexpected error").Write(w)
}
