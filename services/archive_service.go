package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/tournament-engine/events"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/storage"
	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"
)

// ArchiveService uploads every completed tournament cycle to object storage.
// Failed uploads are queued and retried by RetryPending.
type ArchiveService interface {
	events.Sink
	ArchiveCycle(ctx context.Context, snap models.CycleSnapshot) ([]*storage.UploadResult, error)
	RetryPending(ctx context.Context) (int, error)
	Pending() int
	ScheduleRetry(s gocron.Scheduler, every time.Duration) (gocron.Job, error)
}

type archiveService struct {
	uploader storage.FileUploader
	logger   *slog.Logger

	mu      sync.Mutex
	pending []models.CycleSnapshot
}

func NewArchiveService(uploader storage.FileUploader, logger *slog.Logger) ArchiveService {
	return &archiveService{uploader: uploader, logger: logger}
}

// ArchiveKey is the object key of one file of a cycle.
func ArchiveKey(inst models.TournamentInstance, name string) string {
	return fmt.Sprintf("archive/tier_%d/instance_%d/cycle_%d/%s", inst.TierID, inst.InstanceID, inst.Cycle, name)
}

func (s *archiveService) Publish(ctx context.Context, evs []events.Event) error {
	for _, ev := range evs {
		if ev.Type != events.TournamentCompleted {
			continue
		}
		snap, ok := ev.Data.(models.CycleSnapshot)
		if !ok {
			continue
		}
		if _, err := s.ArchiveCycle(ctx, snap); err != nil {
			s.logger.WarnContext(ctx, "Failed to archive tournament cycle, queued for retry",
				slog.Int("tier_id", int(snap.Instance.TierID)), slog.Int("instance_id", int(snap.Instance.InstanceID)),
				slog.Uint64("cycle", snap.Instance.Cycle), slog.Any("error", err))
			s.mu.Lock()
			s.pending = append(s.pending, snap)
			s.mu.Unlock()
		}
	}
	return nil
}

// ArchiveCycle uploads the snapshot and the records of one cycle in parallel.
// If either upload fails the other object is removed so a retry starts clean.
func (s *archiveService) ArchiveCycle(ctx context.Context, snap models.CycleSnapshot) ([]*storage.UploadResult, error) {
	files := []struct {
		name string
		body any
	}{
		{"snapshot.json", snap},
		{"records.json", snap.Records},
	}
	results := make([]*storage.UploadResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			res, err := storage.UploadJSON(gctx, s.uploader, ArchiveKey(snap.Instance, f.name), f.body)
			if err != nil {
				return fmt.Errorf("upload %s: %w", f.name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, res := range results {
			if res == nil {
				continue
			}
			if derr := s.uploader.Delete(ctx, res.Key); derr != nil {
				s.logger.WarnContext(ctx, "Failed to remove partial archive object", slog.String("key", res.Key), slog.Any("error", derr))
			}
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "Tournament cycle archived",
		slog.Int("tier_id", int(snap.Instance.TierID)), slog.Int("instance_id", int(snap.Instance.InstanceID)),
		slog.Uint64("cycle", snap.Instance.Cycle), slog.String("location", results[0].Location))
	return results, nil
}

// RetryPending tries every queued cycle once and returns how many were archived.
func (s *archiveService) RetryPending(ctx context.Context) (int, error) {
	s.mu.Lock()
	queue := s.pending
	s.pending = nil
	s.mu.Unlock()

	done := 0
	var failed []models.CycleSnapshot
	var lastErr error
	for _, snap := range queue {
		if _, err := s.ArchiveCycle(ctx, snap); err != nil {
			failed = append(failed, snap)
			lastErr = err
			continue
		}
		done++
	}

	if len(failed) > 0 {
		s.mu.Lock()
		s.pending = append(failed, s.pending...)
		s.mu.Unlock()
	}
	return done, lastErr
}

func (s *archiveService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *archiveService) ScheduleRetry(sched gocron.Scheduler, every time.Duration) (gocron.Job, error) {
	return sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			if s.Pending() == 0 {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), every)
			defer cancel()
			n, err := s.RetryPending(ctx)
			if err != nil {
				s.logger.Warn("Archive retry incomplete", slog.Int("archived", n), slog.Int("pending", s.Pending()), slog.Any("error", err))
				return
			}
			s.logger.Info("Archive retry finished", slog.Int("archived", n))
		}),
		gocron.WithName("archive-retry"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
}
