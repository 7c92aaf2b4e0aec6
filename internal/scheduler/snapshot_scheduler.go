package scheduler

import (
	"context"

	"github.com/hendrik2009/hearo-backend/internal/app/service"
	"github.com/hendrik2009/hearo-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// SnapshotScheduler uploads periodic binding snapshots
type SnapshotScheduler struct {
	cron          *cron.Cron
	exportService service.ExportService
	schedule      string
}

// NewSnapshotScheduler creates a snapshot scheduler
func NewSnapshotScheduler(exportService service.ExportService, schedule string) *SnapshotScheduler {
	return &SnapshotScheduler{
		cron:          cron.New(),
		exportService: exportService,
		schedule:      schedule,
	}
}

// Start registers the cron job and starts the scheduler
func (s *SnapshotScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		logger.Info("Starting scheduled binding snapshot", nil)

		url, err := s.exportService.Snapshot(context.Background())
		if err != nil {
			logger.Error("Failed to upload scheduled snapshot", err)
			return
		}

		logger.Info("Scheduled snapshot uploaded", map[string]interface{}{
			"url": url,
		})
	})

	if err != nil {
		logger.Error("Failed to add cron job for binding snapshot", err)
		return err
	}

	s.cron.Start()
	logger.Info("Snapshot scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})

	return nil
}

// Stop stops the scheduler
func (s *SnapshotScheduler) Stop() {
	logger.Info("Stopping snapshot scheduler...", nil)
	s.cron.Stop()
	logger.Info("Snapshot scheduler stopped", nil)
}
