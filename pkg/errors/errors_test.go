package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeBadRequest, status: http.StatusBadRequest, publicMsg: "request violates a business rule", detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestNewfFormatsMessage(t *testing.T) {
	err := Newf(CodeNotFound, "store with slug '%s' not found", "acme")
	if err.Message() != "store with slug 'acme' not found" {
		t.Fatalf("unexpected message %q", err.Message())
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", New(CodeBadRequest, "already cancelled"))
	if got := CodeOf(wrapped); got != CodeBadRequest {
		t.Fatalf("expected bad request through wrapping, got %s", got)
	}
	if got := CodeOf(stdErrors.New("plain")); got != CodeInternal {
		t.Fatalf("expected internal for untyped error, got %s", got)
	}
}

func TestCodeIsDomain(t *testing.T) {
	for _, code := range []Code{CodeNotFound, CodeConflict, CodeBadRequest, CodeValidation} {
		if !code.IsDomain() {
			t.Fatalf("expected %s to be a domain code", code)
		}
	}
	for _, code := range []Code{CodeDependency, CodeInternal, CodeUnauthorized} {
		if code.IsDomain() {
			t.Fatalf("expected %s to be non-domain", code)
		}
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := fmt.Errorf("service: %w", Wrap(CodeDependency, stdErrors.New("connection refused"), "db: load store"))
	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", dump.Code)
	}
	if dump.Domain {
		t.Fatalf("dependency errors are not domain errors")
	}
	if !dump.Retryable {
		t.Fatalf("dependency errors should be retryable")
	}
	if len(dump.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d: %v", len(dump.Chain), dump.Chain)
	}
	if dump.RootCause != "connection refused" {
		t.Fatalf("unexpected root cause %q", dump.RootCause)
	}
	if dump.PG != nil {
		t.Fatalf("expected no pg details, got %+v", dump.PG)
	}
}

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "stores_slug_key", TableName: "stores"}
	dump := Dump(Wrap(CodeConflict, pgErr, "store slug taken"))
	if dump.PG == nil || dump.PG.Code != "23505" || dump.PG.Constraint != "stores_slug_key" || dump.PG.Table != "stores" {
		t.Fatalf("unexpected pg details %+v", dump.PG)
	}

	pqErr := &pq.Error{Code: "23503", Constraint: "products_store_id_fkey"}
	dump = Dump(fmt.Errorf("insert: %w", pqErr))
	if dump.PG == nil || dump.PG.Code != "23503" || dump.PG.Constraint != "products_store_id_fkey" {
		t.Fatalf("unexpected pq details %+v", dump.PG)
	}
}
