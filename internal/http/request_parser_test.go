package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"expensetracker/internal/core"
)

func newParser(body, contentType string) *RequestBodyParser {
	req := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return NewRequestBodyParser(req)
}

func TestRequestBodyParser_JSON(t *testing.T) {
	p := newParser(`{"name":" Coffee\u0007 ","amount":4.5,"paid":true}`, "application/json")
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !p.IsJSON() {
		t.Errorf("IsJSON() = false, want true")
	}
	if got := p.Get("name"); got != "Coffee" {
		t.Errorf("Get(name) = %q, want %q", got, "Coffee")
	}
	if got := p.Get("amount"); got != "4.5" {
		t.Errorf("Get(amount) = %q, want %q", got, "4.5")
	}
	if got := p.Get("paid"); got != "true" {
		t.Errorf("Get(paid) = %q, want %q", got, "true")
	}
	if got := p.Get("missing"); got != "" {
		t.Errorf("Get(missing) = %q, want empty", got)
	}
}

func TestRequestBodyParser_Form(t *testing.T) {
	p := newParser("name=Book&amount=15&currency=eur&category=Leisure", "application/x-www-form-urlencoded")
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.IsJSON() {
		t.Errorf("IsJSON() = true, want false")
	}
	d, err := p.Draft()
	if err != nil {
		t.Fatalf("Draft() error = %v", err)
	}
	if d.Name != "Book" || d.Amount != 15 || d.Currency != core.EUR || d.Category != "Leisure" {
		t.Errorf("unexpected draft %+v", d)
	}
}

func TestRequestBodyParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":`},
		{"oversized body", "name=" + strings.Repeat("x", maxBodyBytes)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(tt.body, "")
			if err := p.Parse(); err == nil {
				t.Errorf("Parse() error = nil, want error")
			}
			// a second call reports the same result
			if err := p.Parse(); err == nil {
				t.Errorf("second Parse() error = nil, want error")
			}
		})
	}
}

func TestRequestBodyParser_Draft(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
		wantErr   error
	}{
		{"bad amount", `{"name":"a","amount":"1e3","category":"c"}`, "amount", core.ErrInvalidAmount},
		{"bad currency", `{"name":"a","amount":1,"currency":"DOGE","category":"c"}`, "currency", core.ErrUnsupportedCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(tt.body, "application/json")
			if err := p.Parse(); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			_, err := p.Draft()
			var verr *core.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.wantField || !errors.Is(err, tt.wantErr) {
				t.Errorf("Draft() error = %v, want %s field error", err, tt.wantField)
			}
		})
	}
}

func TestRequireMethod(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if resp := RequireMethod(req, http.MethodGet, http.MethodHead); resp != nil {
		t.Errorf("RequireMethod() returned error for allowed method")
	}
	resp := RequireMethod(req, http.MethodPost, http.MethodDelete)
	if resp == nil {
		t.Fatalf("RequireMethod() = nil for disallowed method")
	}
	rr := httptest.NewRecorder()
	resp.Write(rr)
	if rr.Code != http.StatusMethodNotAllowed || rr.Header().Get("Allow") != "POST, DELETE" {
		t.Errorf("got %d Allow=%q", rr.Code, rr.Header().Get("Allow"))
	}
}
