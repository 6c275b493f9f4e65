// Package session implements the session lifecycle: start, turn handling,
// explicit end with archival, and history projection.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/trupyai/trupy/internal/archive"
	"github.com/trupyai/trupy/internal/chat"
	"github.com/trupyai/trupy/internal/domain"
	"github.com/trupyai/trupy/internal/llm"
	"github.com/trupyai/trupy/internal/safety"
	"github.com/trupyai/trupy/internal/store"
)

// TurnResult is the outcome of one handled turn.
type TurnResult struct {
	Reply  string
	Final  bool
	Crisis bool
}

// EndResult is the outcome of an explicit session end.
type EndResult struct {
	Summary  string
	UserData map[string]any
}

// Service orchestrates sessions across the volatile store, the dialogue
// engine, and the archive. Concurrent turns for different sessions run
// fully in parallel. Per-session ordering is NOT enforced: two concurrent
// turns for the same ID may both load the same snapshot and the later Put
// wins. Callers needing strict serialization must add their own per-session
// mutual exclusion.
type Service struct {
	store    store.Store
	archive  archive.Archive
	client   *llm.Client
	detector *safety.Detector
	ttl      time.Duration
}

// NewService wires the orchestrator's collaborators.
func NewService(st store.Store, ar archive.Archive, client *llm.Client, detector *safety.Detector, ttl time.Duration) *Service {
	return &Service{
		store:    st,
		archive:  ar,
		client:   client,
		detector: detector,
		ttl:      ttl,
	}
}

// Start creates a new session and returns its ID and opening greeting.
// A non-anonymous start without a complete profile fails with ErrValidation.
func (s *Service) Start(ctx context.Context, profile *domain.Profile, anonymous bool) (string, string, error) {
	if !anonymous && !profile.Valid() {
		return "", "", ErrValidation
	}
	if anonymous {
		profile = nil
	}

	id := uuid.NewString()
	engine := chat.New(profile, s.client, s.detector)
	greeting := engine.Start(detachedContext(ctx))

	if err := s.persist(ctx, id, engine); err != nil {
		return "", "", err
	}

	slog.Info("session created", "session_id", id, "anonymous", profile == nil)
	return id, greeting, nil
}

// HandleTurn advances the session with one user message. A crisis turn
// purges the session from the store without archiving it, to minimize
// retained sensitive data; every other turn persists the updated snapshot
// with a refreshed TTL.
func (s *Service) HandleTurn(ctx context.Context, id, userText string) (*TurnResult, error) {
	engine, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if engine.Concluded() {
		return nil, ErrConflict
	}

	out := engine.Respond(detachedContext(ctx), userText)

	if out.Crisis {
		if err := s.store.Delete(ctx, id); err != nil {
			slog.Error("failed to purge crisis session", "session_id", id, "error", err)
		}
		slog.Warn("session concluded by crisis detection", "session_id", id)
		return &TurnResult{Reply: out.Reply, Final: true, Crisis: true}, nil
	}

	if err := s.persist(ctx, id, engine); err != nil {
		return nil, err
	}
	return &TurnResult{Reply: out.Reply}, nil
}

// End summarizes the session, archives the record, and removes the session
// from the store. The archive write and the deletion are not atomic: on
// archive failure the session is kept so End can be retried, and a delete
// failure leaves the session to expire via TTL. Archival is therefore
// at-least-once, not exactly-once.
func (s *Service) End(ctx context.Context, id string) (*EndResult, error) {
	engine, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	summary := engine.Summarize(detachedContext(ctx))

	userData := make(map[string]any)
	if profile := engine.Profile(); profile != nil {
		userData["name"] = profile.Name
		userData["major"] = profile.Major
		userData["quarter"] = profile.Quarter
	}
	userData["summary"] = summary

	record := &domain.Record{
		SessionID: id,
		UserData:  userData,
		EndedAt:   time.Now(),
	}
	if err := s.archive.SaveRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("archive session %s: %w", id, err)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		slog.Warn("archived session could not be removed from store; it will expire via TTL",
			"session_id", id, "error", err)
	}

	slog.Info("session ended", "session_id", id)
	return &EndResult{Summary: summary, UserData: userData}, nil
}

// History returns the session transcript without the system message.
func (s *Service) History(ctx context.Context, id string) ([]domain.Message, error) {
	engine, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return engine.History(), nil
}

// ListArchived returns ended-session records for operator review.
func (s *Service) ListArchived(ctx context.Context, offset, limit int) ([]*domain.Record, error) {
	return s.archive.ListRecords(ctx, offset, limit)
}

func (s *Service) load(ctx context.Context, id string) (*chat.Engine, error) {
	snapshot, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	engine, err := chat.Restore(snapshot, s.client, s.detector)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", id, err)
	}
	return engine, nil
}

func (s *Service) persist(ctx context.Context, id string, engine *chat.Engine) error {
	snapshot, err := engine.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot session %s: %w", id, err)
	}
	if err := s.store.Put(ctx, id, snapshot, s.ttl); err != nil {
		return fmt.Errorf("persist session %s: %w", id, err)
	}
	return nil
}

// detachedContext keeps the caller's values but drops its cancellation:
// an abandoned inbound request must not cancel an in-flight provider call.
// The resulting reply is persisted or discarded per normal flow.
func detachedContext(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
