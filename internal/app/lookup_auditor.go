package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-lookup/internal/core/domain"
	"github.com/sean-rowe/weather-lookup/internal/core/ports"
	"github.com/sean-rowe/weather-lookup/internal/observability"
)

const auditWriteTimeout = 5 * time.Second

// LookupAuditor records finished lookup cycles as metrics and, when a
// repository is configured, as audit rows. Rows are written in the background
// so a slow database never delays a rendered view.
type LookupAuditor struct {
	telemetry *observability.Telemetry
	repo      ports.AuditRepository
	logger    *zap.Logger
	wg        sync.WaitGroup
}

// NewLookupAuditor creates an auditor. telemetry and repo may both be nil.
func NewLookupAuditor(telemetry *observability.Telemetry, repo ports.AuditRepository, logger *zap.Logger) *LookupAuditor {
	return &LookupAuditor{
		telemetry: telemetry,
		repo:      repo,
		logger:    logger,
	}
}

// LookupCompleted implements ports.LookupObserver.
func (a *LookupAuditor) LookupCompleted(ctx context.Context, record domain.LookupRecord) {
	a.telemetry.RecordLookup(ctx, record)

	if a.repo == nil {
		return
	}

	// The request that triggered the lookup may be gone before the insert runs.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)

	a.wg.Add(1)

	go func() {
		defer a.wg.Done()
		defer cancel()

		if err := a.repo.LogLookup(writeCtx, record); err != nil {
			a.logger.Warn("failed to write lookup audit",
				zap.String("lookup_id", record.ID.String()),
				zap.Error(err))
		}
	}()
}

// Wait blocks until pending audit writes have finished.
func (a *LookupAuditor) Wait() {
	a.wg.Wait()
}
