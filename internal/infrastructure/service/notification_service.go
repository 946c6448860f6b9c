// Package service contains infrastructure adapters implementing domain ports.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/groovy-hub/groovy-hub/internal/domain/run"
	"github.com/groovy-hub/groovy-hub/internal/infrastructure/external/discord"
	"github.com/groovy-hub/groovy-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// Announcement texts. The wording is load-bearing: the unchanged notice
// reads as a follow-up to the new-run block that precedes it.
const (
	rankingUpdateHeader     = "Point Rankings Update!"
	rankingsUnchangedNotice = "But rankings are unchanged"
)

// NotificationService announces poll-cycle results to Discord channels.
// It implements run.Notifier by fanning each announcement out to every
// channel on the configured allow-list.
type NotificationService struct {
	client   *discord.Client
	channels []string
	retrier  *retry.Retrier
	logger   *slog.Logger
}

// NewNotificationService creates a NotificationService that announces to
// the given channel IDs. An empty channel list silently disables all
// announcements, which is useful for dry runs.
func NewNotificationService(client *discord.Client, channels []string, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}

	return &NotificationService{
		client:   client,
		channels: channels,
		retrier:  retry.DiscordRetrier(),
		logger:   logger,
	}
}

// FormatNewRunLine renders the announcement line for a single run.
func FormatNewRunLine(r *run.Record) string {
	return fmt.Sprintf("New run! %s - %s in %s by %s, %s place",
		r.Track, r.Category, r.Time, r.Player, run.Ordinal(r.Place))
}

// AnnounceNewRuns posts one code block listing every new run this cycle.
func (s *NotificationService) AnnounceNewRuns(ctx context.Context, runs []*run.Record) error {
	if len(runs) == 0 {
		return nil
	}

	lines := make([]string, len(runs))
	for i, r := range runs {
		lines[i] = FormatNewRunLine(r)
	}
	block := strings.Join(lines, "\n")

	return s.broadcast(ctx, "new_runs", func(ctx context.Context, channelID string) error {
		return s.client.SendCodeBlock(ctx, channelID, block)
	})
}

// AnnounceRankings posts the ranking-update header followed by the
// rendered point rankings table.
func (s *NotificationService) AnnounceRankings(ctx context.Context, table string) error {
	return s.broadcast(ctx, "ranking_update", func(ctx context.Context, channelID string) error {
		if _, err := s.client.SendMessage(ctx, channelID, rankingUpdateHeader); err != nil {
			return err
		}
		return s.client.SendCodeBlock(ctx, channelID, table)
	})
}

// AnnounceRankingsUnchanged posts the unchanged-rankings notice.
func (s *NotificationService) AnnounceRankingsUnchanged(ctx context.Context) error {
	return s.broadcast(ctx, "rankings_unchanged", func(ctx context.Context, channelID string) error {
		_, err := s.client.SendMessage(ctx, channelID, rankingsUnchangedNotice)
		return err
	})
}

// broadcast delivers one announcement to every allowed channel with retry.
// A failure on one channel does not stop delivery to the others; the
// first error is returned after all channels were attempted.
func (s *NotificationService) broadcast(ctx context.Context, kind string, send func(ctx context.Context, channelID string) error) error {
	if len(s.channels) == 0 {
		s.logger.Debug("no announce channels configured, dropping announcement", "kind", kind)
		return nil
	}

	var firstErr error
	for _, channelID := range s.channels {
		err := s.retrier.Do(ctx, func(ctx context.Context) error {
			return send(ctx, channelID)
		})
		if err != nil {
			s.logger.Error("failed to deliver announcement",
				"kind", kind,
				"channel_id", channelID,
				"error", err,
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("announcing %s to channel %s: %w", kind, channelID, err)
			}
			continue
		}

		s.logger.Info("announcement delivered", "kind", kind, "channel_id", channelID)
	}

	return firstErr
}
