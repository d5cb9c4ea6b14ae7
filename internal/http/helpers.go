package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"expensetracker/internal/core"
)

// parseCurrencyFilter reads the optional ?currency= query parameter. An
// empty or "all" value means no filter.
func parseCurrencyFilter(r *http.Request) (core.Currency, error) {
	v := strings.TrimSpace(r.URL.Query().Get("currency"))
	if v == "" || strings.EqualFold(v, "all") {
		return "", nil
	}
	return core.ParseCurrency(v)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
