package scheduler

import (
	"context"
	"time"

	"ticketflo-sync/internal/features/connection"
	"ticketflo-sync/internal/features/sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs periodic syncs for connections with auto-sync enabled
type Scheduler struct {
	cron        *cron.Cron
	connRepo    connection.ConnectionRepository
	syncService sync.SyncService
	logger      *zap.Logger
}

func NewScheduler(connRepo connection.ConnectionRepository, syncService sync.SyncService, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		connRepo:    connRepo,
		syncService: syncService,
		logger:      logger,
	}
}

// Start begins the scheduler tick. Each tick checks every auto-sync
// connection against its configured frequency.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc("@every 1m", s.tick); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() error {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	return nil
}

func (s *Scheduler) tick() {
	ctx := context.Background()

	connections, err := s.connRepo.ListAutoSync(ctx)
	if err != nil {
		s.logger.Error("failed to list auto-sync connections", zap.Error(err))
		return
	}

	for i := range connections {
		conn := connections[i]
		if shouldRun(&conn) {
			go s.runSync(conn)
		}
	}
}

func shouldRun(conn *connection.Connection) bool {
	now := time.Now()
	switch conn.SyncSettings.Frequency {
	case "hourly":
		return now.Sub(conn.LastSyncAt) >= time.Hour
	case "daily":
		return now.Sub(conn.LastSyncAt) >= 24*time.Hour
	default:
		return false
	}
}

// runSync pulls the remote collection first, then pushes local changes,
// both under the connection's stored conflict policy.
func (s *Scheduler) runSync(conn connection.Connection) {
	ctx := context.Background()
	opts := sync.DefaultOptions()

	s.logger.Info("scheduled sync started",
		zap.String("organizationId", conn.OrganizationID),
		zap.String("connectionId", conn.ID.Hex()))

	if _, err := s.syncService.PullContacts(ctx, conn.OrganizationID, opts); err != nil {
		s.logger.Error("scheduled pull failed",
			zap.String("organizationId", conn.OrganizationID),
			zap.Error(err))
		return
	}
	if _, err := s.syncService.PushContacts(ctx, conn.OrganizationID, nil, opts); err != nil {
		s.logger.Error("scheduled push failed",
			zap.String("organizationId", conn.OrganizationID),
			zap.Error(err))
	}
}
