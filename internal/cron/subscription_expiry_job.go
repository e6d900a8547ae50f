package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/marketplace-backend/internal/subscriptions"
	"github.com/angelmondragon/marketplace-backend/pkg/logger"
	"github.com/angelmondragon/marketplace-backend/pkg/metrics"
)

type expirySweeper interface {
	SweepExpired(ctx context.Context) (subscriptions.SweepResult, error)
}

type SubscriptionExpiryJobParams struct {
	Logger  *logger.Logger
	Sweeper expirySweeper
	Metrics *metrics.SweepMetrics
}

// NewSubscriptionExpiryJob builds the job that expires lapsed subscriptions.
func NewSubscriptionExpiryJob(params SubscriptionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("subscription sweeper required")
	}
	return &subscriptionExpiryJob{
		logg:    params.Logger,
		sweeper: params.Sweeper,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

type subscriptionExpiryJob struct {
	logg    *logger.Logger
	sweeper expirySweeper
	metrics *metrics.SweepMetrics
	now     func() time.Time
}

func (j *subscriptionExpiryJob) Name() string { return "subscription-expiry" }

func (j *subscriptionExpiryJob) Run(ctx context.Context) error {
	result, err := j.sweeper.SweepExpired(ctx)
	j.metrics.Record(result.Scanned, result.Expired, result.Failed, j.now().UTC())
	if err != nil {
		return fmt.Errorf("subscription expiry: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"rows_scanned": result.Scanned,
		"rows_expired": result.Expired,
	})
	j.logg.Info(logCtx, "subscription expiry complete")
	return nil
}
