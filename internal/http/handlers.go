package http

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"expensetracker/internal/aggregate"
	"expensetracker/internal/core"
	"expensetracker/internal/export"
	"expensetracker/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Payload(map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports whether the ledger is wired and lists runtime counters.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, code := "ready", http.StatusOK
	checks := map[string]any{
		"rate_limiter": map[string]any{"active_clients": s.rateLimiter.ActiveClients()},
		"security":     s.security.snapshot(),
	}
	if s.ledger == nil {
		checks["ledger"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["ledger"] = map[string]any{"status": "ok", "expenses": s.ledger.Len()}
	}

	NewJSONResponse().Status(code).Payload(map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

type filteredSummaryResponse struct {
	core.FilteredSummaryJSON
	FormattedTotal string `json:"formattedTotal"`
}

type totalsSummaryResponse struct {
	core.TotalsSummaryJSON
	FormattedTotals map[core.Currency]string `json:"formattedTotals"`
}

// newSummaryResponse picks the wire shape matching the summary: a filtered
// summary never carries per-currency totals and an unfiltered one never
// carries a single total.
func newSummaryResponse(sum core.Summary) any {
	if sum.Filtered() {
		return filteredSummaryResponse{
			FilteredSummaryJSON: sum.FilteredJSON(),
			FormattedTotal:      core.FormatMoney(sum.Total, sum.Currency),
		}
	}
	resp := totalsSummaryResponse{
		TotalsSummaryJSON: sum.TotalsJSON(),
		FormattedTotals:   make(map[core.Currency]string, len(sum.PerCurrencyTotals)),
	}
	for c, total := range sum.PerCurrencyTotals {
		resp.FormattedTotals[c] = core.FormatMoney(total, c)
	}
	return resp
}

// handleSummary returns totals for every currency, or for the one selected
// with ?currency=.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	currency, err := parseCurrencyFilter(r)
	if err != nil {
		FieldErrorResponse("currency", err.Error()).Write(w)
		return
	}

	summary := aggregate.Summarize(s.ledger.All(), currency)
	NewJSONResponse().Payload(newSummaryResponse(summary)).Write(w)
}

// handleCurrencies lists the selectable currencies and categories. A null
// categories list means any category is accepted.
func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	type currencyInfo struct {
		Code           core.Currency `json:"code"`
		Symbol         string        `json:"symbol"`
		FractionDigits int32         `json:"fractionDigits"`
	}
	currencies := make([]currencyInfo, 0, len(core.Currencies()))
	for _, c := range core.Currencies() {
		currencies = append(currencies, currencyInfo{Code: c, Symbol: c.Symbol(), FractionDigits: c.FractionDigits()})
	}

	NewJSONResponse().Payload(map[string]any{
		"currencies":      currencies,
		"defaultCurrency": core.DefaultCurrency,
		"categories":      s.ledger.Categories(),
	}).Write(w)
}

// handleExport streams the ledger as a CSV attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()

	records := s.ledger.All()
	if len(records) == 0 {
		ErrorResponse(http.StatusNotFound, "no expenses to export").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records); err != nil {
		s.logError(ctx, "CSV export failed", err, log.OpExport)
		InternalServerError("export failed").Write(w)
		return
	}

	filename := export.Filename(s.now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())

	log.NewStructuredLogger(log.FromContext(ctx)).LogExport(ctx, filename, len(records))
}

func (s *Server) logError(ctx context.Context, msg string, err error, op string) {
	log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, msg, err, op, nil)
}

// persistenceWarning returns the message shown when a mutation was applied
// but could not be saved, or "" for any other error.
func persistenceWarning(err error) string {
	if err == nil {
		return ""
	}
	return "changes were applied but could not be saved: " + err.Error()
}
