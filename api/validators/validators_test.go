package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/marketplace-backend/pkg/errors"
)

type createPlanBody struct {
	Name     string `json:"name" validate:"required"`
	Currency string `json:"currency" validate:"required,len=3"`
}

func TestDecodeJSONBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode pkgerrors.Code
		field    string
	}{
		{name: "valid", body: `{"name":"Pro","currency":"USD"}`},
		{name: "malformed", body: `{"name":`, wantCode: pkgerrors.CodeValidation},
		{name: "unknown field", body: `{"name":"Pro","currency":"USD","status":"ACTIVE"}`, wantCode: pkgerrors.CodeValidation},
		{name: "missing name", body: `{"currency":"USD"}`, wantCode: pkgerrors.CodeValidation, field: "name"},
		{name: "bad currency length", body: `{"name":"Pro","currency":"US"}`, wantCode: pkgerrors.CodeValidation, field: "currency"},
		{name: "empty body", body: ``, wantCode: pkgerrors.CodeValidation},
		{name: "trailing object", body: `{"name":"Pro","currency":"USD"}{"name":"x"}`, wantCode: pkgerrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dest createPlanBody
			err := DecodeJSONBody(req, &dest)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if pkgerrors.CodeOf(err) != tt.wantCode {
				t.Fatalf("expected %s got %v", tt.wantCode, err)
			}
			if tt.field != "" {
				details, ok := pkgerrors.As(err).Details().(map[string]string)
				if !ok || details[tt.field] == "" {
					t.Fatalf("expected detail for %s, got %v", tt.field, pkgerrors.As(err).Details())
				}
			}
		})
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=abc&big=500", nil)
	if v, err := ParseQueryInt(req, "page", 1, 1, 100); err != nil || v != 3 {
		t.Fatalf("expected 3, got %d (%v)", v, err)
	}
	if v, err := ParseQueryInt(req, "missing", 7, 1, 100); err != nil || v != 7 {
		t.Fatalf("expected default 7, got %d (%v)", v, err)
	}
	if _, err := ParseQueryInt(req, "limit", 1, 1, 100); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ParseQueryInt(req, "big", 1, 1, 100); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected range error, got %v", err)
	}
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("productId", id.String())
	rctx.URLParams.Add("imageId", "nope")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := ParseUUIDParam(req, "productId")
	if err != nil || got != id {
		t.Fatalf("expected %s, got %s (%v)", id, got, err)
	}
	if _, err := ParseUUIDParam(req, "imageId"); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryDecimalAndUUID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?min_price=10.50&max_price=x&category_id=bad", nil)

	min, err := ParseQueryDecimal(req, "min_price")
	if err != nil || min == nil || min.String() != "10.5" {
		t.Fatalf("unexpected min price %v (%v)", min, err)
	}
	if _, err := ParseQueryDecimal(req, "max_price"); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if v, err := ParseQueryDecimal(req, "absent"); err != nil || v != nil {
		t.Fatalf("expected nil for absent key")
	}
	if _, err := ParseQueryUUID(req, "category_id"); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if v, err := ParseQueryUUID(req, "store_id"); err != nil || v != nil {
		t.Fatalf("expected nil for absent key")
	}
}

func TestDecodeJSONBodyRejectsOversizedBody(t *testing.T) {
	payload := `{"name":"` + strings.Repeat("a", int(MaxBodyBytes)) + `","currency":"USD"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	var dest createPlanBody
	err := DecodeJSONBody(req, &dest)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if msg := pkgerrors.As(err).Message(); msg != "request body too large" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{in: "  blue dream  ", maxLen: 4, want: "blue"},
		{in: " x ", maxLen: 0, want: "x"},
		{in: "blue \t\n  dream", maxLen: 0, want: "blue dream"},
		{in: "café au lait", maxLen: 5, want: "café"},
		{in: "ñandú", maxLen: 3, want: "ñan"},
	}
	for _, tt := range tests {
		if got := SanitizeString(tt.in, tt.maxLen); got != tt.want {
			t.Fatalf("SanitizeString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}
