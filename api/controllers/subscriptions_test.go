package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-backend/internal/subscriptions"
	"github.com/angelmondragon/marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-backend/pkg/errors"
)

type stubSubscriptionService struct {
	subscriptions.Service
	owner     uuid.UUID
	caller    uuid.UUID
	cancelled bool
	sweep     subscriptions.SweepResult
	sweepErr  error
}

func (s *stubSubscriptionService) CancelForUser(ctx context.Context, userID, id uuid.UUID) (*subscriptions.SubscriptionDTO, error) {
	s.caller = userID
	if userID != s.owner {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "user subscription with ID '%s' not found", id)
	}
	s.cancelled = true
	return &subscriptions.SubscriptionDTO{ID: id, UserID: s.owner, Status: enums.SubscriptionStatusCancelled}, nil
}

func (s *stubSubscriptionService) SweepExpired(ctx context.Context) (subscriptions.SweepResult, error) {
	return s.sweep, s.sweepErr
}

func TestMySubscriptionCancel(t *testing.T) {
	owner := uuid.New()
	subID := uuid.New()

	t.Run("owner cancels", func(t *testing.T) {
		stub := &stubSubscriptionService{owner: owner}
		req := newRequest(http.MethodPost, "/", "", owner.String(), map[string]string{"subscriptionId": subID.String()})
		rec := serve(MySubscriptionCancel(stub, testLogger()), req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !stub.cancelled || stub.caller != owner {
			t.Fatalf("expected CancelForUser for the caller, got caller %s", stub.caller)
		}
	})

	t.Run("other user sees not found", func(t *testing.T) {
		stub := &stubSubscriptionService{owner: owner}
		other := uuid.New()
		req := newRequest(http.MethodPost, "/", "", other.String(), map[string]string{"subscriptionId": subID.String()})
		rec := serve(MySubscriptionCancel(stub, testLogger()), req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if stub.caller != other || stub.cancelled {
			t.Fatal("the caller's id must reach the service unchanged")
		}
	})

	t.Run("bad id is rejected before the service", func(t *testing.T) {
		stub := &stubSubscriptionService{owner: owner}
		req := newRequest(http.MethodPost, "/", "", owner.String(), map[string]string{"subscriptionId": "nope"})
		rec := serve(MySubscriptionCancel(stub, testLogger()), req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if stub.caller != uuid.Nil {
			t.Fatal("service must not be called")
		}
	})
}

func TestAdminSweepSubscriptions(t *testing.T) {
	t.Run("reports counts", func(t *testing.T) {
		stub := &stubSubscriptionService{sweep: subscriptions.SweepResult{Scanned: 3, Expired: 3}}
		rec := serve(AdminSweepSubscriptions(stub, testLogger()), newRequest(http.MethodPost, "/", "", "", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var body struct {
			Data subscriptions.SweepResult `json:"data"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Data.Expired != 3 {
			t.Fatalf("unexpected result %+v", body.Data)
		}
	})

	t.Run("partial failure keeps counts", func(t *testing.T) {
		stub := &stubSubscriptionService{
			sweep:    subscriptions.SweepResult{Scanned: 2, Expired: 1, Failed: 1},
			sweepErr: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("row locked"), "expire subscriptions"),
		}
		rec := serve(AdminSweepSubscriptions(stub, testLogger()), newRequest(http.MethodPost, "/", "", "", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		details, ok := decodeError(t, rec).Details.(map[string]any)
		if !ok || details["failed"] != float64(1) || details["expired"] != float64(1) {
			t.Fatalf("expected sweep counts in details, got %v", details)
		}
	})
}
