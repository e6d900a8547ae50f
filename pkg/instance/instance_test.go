package instance

import "testing"

func TestGetIDPrecedence(t *testing.T) {
	t.Setenv("MARKETPLACE_INSTANCE_ID", "")
	t.Setenv("DYNO", "")
	if got := GetID(""); got != "local" {
		t.Fatalf("expected local, got %q", got)
	}
	if got := GetID("worker-0"); got != "worker-0" {
		t.Fatalf("expected fallback, got %q", got)
	}

	t.Setenv("DYNO", "web.1")
	if got := GetID("worker-0"); got != "web.1" {
		t.Fatalf("expected dyno, got %q", got)
	}

	t.Setenv("MARKETPLACE_INSTANCE_ID", "api-blue")
	if got := GetID("worker-0"); got != "api-blue" {
		t.Fatalf("expected explicit id, got %q", got)
	}
}
