package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/orgcal-api/internal/models"
	"github.com/noah-isme/orgcal-api/pkg/cache"
	"github.com/noah-isme/orgcal-api/pkg/jobs"
)

const invalidationJobType = "availability_invalidate"

type cachePurger interface {
	Invalidate(ctx context.Context, pattern string) error
}

// CacheInvalidator drops cached availability responses after calendar writes.
// Purges run on a background queue; repeated requests for the same scope
// collapse into one pending job.
type CacheInvalidator struct {
	cache  cachePurger
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewCacheInvalidator constructs an invalidator backed by a worker queue.
func NewCacheInvalidator(purger cachePurger, workers int, logger *zap.Logger) *CacheInvalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	inv := &CacheInvalidator{cache: purger, logger: logger}
	inv.queue = jobs.NewQueue("availability-cache", inv.handle, jobs.QueueConfig{
		Workers: workers,
		Logger:  logger,
	})
	return inv
}

// Start launches the invalidation workers.
func (i *CacheInvalidator) Start(ctx context.Context) {
	if i == nil {
		return
	}
	i.queue.Start(ctx)
}

// Stop halts the workers; pending purges are dropped and entries expire by TTL.
func (i *CacheInvalidator) Stop() {
	if i == nil {
		return
	}
	i.queue.Stop()
}

// Invalidate schedules a purge of every cached response for the given scopes.
func (i *CacheInvalidator) Invalidate(scopes ...models.EventScope) {
	if i == nil || i.cache == nil {
		return
	}
	for _, scope := range scopes {
		if scope.OrganizationID == "" && scope.UserID == "" {
			continue
		}
		job := jobs.Job{ID: scope.Key(), Type: invalidationJobType, Payload: scope}
		if err := i.queue.Enqueue(job); err != nil {
			i.logger.Warn("enqueue cache invalidation failed", zap.String("scope", scope.Key()), zap.Error(err))
		}
	}
}

func (i *CacheInvalidator) handle(ctx context.Context, job jobs.Job) error {
	scope, ok := job.Payload.(models.EventScope)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	return i.cache.Invalidate(ctx, AvailabilityCachePattern(scope))
}

// AvailabilityCachePattern matches every cached availability response of scope.
func AvailabilityCachePattern(scope models.EventScope) string {
	return cache.Key("avail", "*", scope.Key(), "*")
}
