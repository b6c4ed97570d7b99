package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rallydesk/rallydesk/metrics"
	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/repositories"
	"github.com/rallydesk/rallydesk/storage"
)

// SnapshotService publishes public board JSON to the object store so venue
// displays and spectator pages can poll a static URL instead of hitting the
// API.
type SnapshotService interface {
	PublishBoard(ctx context.Context, tournamentID string) (*storage.UploadResult, error)
	PublishAll(ctx context.Context) error
}

type snapshotService struct {
	tournamentRepo repositories.TournamentRepository
	boards         BoardService
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewSnapshotService(
	tournamentRepo repositories.TournamentRepository,
	boards BoardService,
	uploader storage.FileUploader,
	logger *slog.Logger,
) SnapshotService {
	return &snapshotService{
		tournamentRepo: tournamentRepo,
		boards:         boards,
		uploader:       uploader,
		logger:         logger,
	}
}

func boardSnapshotKey(tournamentID string) string {
	return fmt.Sprintf("boards/%s.json", tournamentID)
}

func (s *snapshotService) PublishBoard(ctx context.Context, tournamentID string) (*storage.UploadResult, error) {
	board, err := s.boards.PublicBoard(ctx, tournamentID)
	if err != nil {
		metrics.SnapshotPublishesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	raw, err := json.Marshal(board)
	if err != nil {
		metrics.SnapshotPublishesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to encode board snapshot: %w", err)
	}

	result, err := s.uploader.Upload(ctx, boardSnapshotKey(tournamentID), "application/json", bytes.NewReader(raw))
	if err != nil {
		metrics.SnapshotPublishesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to publish board snapshot: %w", err)
	}

	metrics.SnapshotPublishesTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	s.logger.DebugContext(ctx, "board snapshot published",
		slog.String("tournament_id", tournamentID),
		slog.String("key", result.Key),
		slog.Int("bytes", len(raw)))
	return result, nil
}

// PublishAll refreshes the snapshot of every running tournament. One failed
// tournament does not stop the rest.
func (s *snapshotService) PublishAll(ctx context.Context) error {
	status := models.TournamentInProgress
	running, err := s.tournamentRepo.List(ctx, repositories.ListTournamentsFilter{Status: &status})
	if err != nil {
		return fmt.Errorf("failed to list running tournaments: %w", err)
	}

	var failed int
	for _, t := range running {
		if _, err := s.PublishBoard(ctx, t.ID); err != nil {
			failed++
			s.logger.ErrorContext(ctx, "failed to publish board snapshot",
				slog.String("tournament_id", t.ID),
				slog.Any("error", err))
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to publish %d of %d board snapshots", failed, len(running))
	}
	return nil
}
