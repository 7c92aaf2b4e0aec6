package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hendrik2009/hearo-backend/internal/app/model"
	"github.com/hendrik2009/hearo-backend/internal/app/repository"
	"github.com/hendrik2009/hearo-backend/pkg/logger"
)

var (
	ErrEmptyUID         = errors.New("tag uid must not be empty")
	ErrEmptyPlaylistURI = errors.New("playlist uri must not be empty")
	ErrNegativePosition = errors.New("position must not be negative")
	ErrBindingNotFound  = errors.New("no binding exists for this tag")
	ErrEmptyBatch       = errors.New("seed batch must not be empty")
)

// BindingStats summarizes the current state of the store
type BindingStats struct {
	Count        int64 `json:"count"`
	LatestUpdate int64 `json:"latest_update"` // epoch seconds, 0 when empty
}

// BindingNotifier receives binding changes after they are committed.
// The websocket hub implements it.
type BindingNotifier interface {
	NotifyBindingUpdated(binding *model.TagBinding)
	NotifyBindingsSeeded(count int)
}

// BindingCache is a read-through cache over resolved bindings. Cache
// failures are logged and ignored, the table stays the source of truth.
type BindingCache interface {
	Get(ctx context.Context, uid string) (*model.TagBinding, bool)
	Set(ctx context.Context, binding *model.TagBinding)
	Invalidate(ctx context.Context, uid string)
}

// BindingService exposes the tag binding store: resolve a scanned tag,
// register/reassign/checkpoint via one upsert, and administrative queries.
type BindingService interface {
	GetBinding(ctx context.Context, uid string) (*model.TagBinding, error)
	UpsertBinding(ctx context.Context, uid, playlistURI, lastTrackURI string, lastPosMS int64) (*model.TagBinding, error)
	ListBindings() ([]model.TagBinding, error)
	ListByPlaylist(playlistURI string) ([]model.TagBinding, error)
	SeedBatch(ctx context.Context, bindings []model.TagBinding) (int, error)
	Stats() (*BindingStats, error)
}

type bindingService struct {
	repo     repository.TagBindingRepository
	cache    BindingCache    // optional
	notifier BindingNotifier // optional
}

// NewBindingService creates a binding service. cache and notifier may be
// nil when the deployment runs without redis or the event stream.
func NewBindingService(repo repository.TagBindingRepository, cache BindingCache, notifier BindingNotifier) BindingService {
	return &bindingService{
		repo:     repo,
		cache:    cache,
		notifier: notifier,
	}
}

// GetBinding resolves a scanned tag into its playlist and resume point
func (s *bindingService) GetBinding(ctx context.Context, uid string) (*model.TagBinding, error) {
	if uid == "" {
		return nil, ErrEmptyUID
	}

	if s.cache != nil {
		if binding, ok := s.cache.Get(ctx, uid); ok {
			return binding, nil
		}
	}

	binding, err := s.repo.FindByUID(uid)
	if err != nil {
		return nil, err
	}
	if binding == nil {
		return nil, ErrBindingNotFound
	}

	if s.cache != nil {
		s.cache.Set(ctx, binding)
	}
	return binding, nil
}

// UpsertBinding registers a tag, reassigns it, or records a playback
// checkpoint. The row is fully overwritten with the supplied values;
// callers resetting playback history must pass empty/zero explicitly.
func (s *bindingService) UpsertBinding(ctx context.Context, uid, playlistURI, lastTrackURI string, lastPosMS int64) (*model.TagBinding, error) {
	if err := validateBinding(uid, playlistURI, lastPosMS); err != nil {
		return nil, err
	}

	binding := &model.TagBinding{
		UID:          uid,
		PlaylistURI:  playlistURI,
		LastTrackURI: lastTrackURI,
		LastPosMS:    lastPosMS,
	}

	if err := s.repo.Upsert(binding); err != nil {
		return nil, err
	}

	// Only after the commit: a failed write must leave the cached row
	// and the event stream untouched.
	if s.cache != nil {
		s.cache.Set(ctx, binding)
	}
	if s.notifier != nil {
		s.notifier.NotifyBindingUpdated(binding)
	}

	logger.Info("Binding upserted", map[string]interface{}{
		"uid":          binding.UID,
		"playlist_uri": binding.PlaylistURI,
	})
	return binding, nil
}

// ListBindings returns every binding in the store
func (s *bindingService) ListBindings() ([]model.TagBinding, error) {
	return s.repo.FindAll()
}

// ListByPlaylist answers the reverse query: which tags point at this playlist
func (s *bindingService) ListByPlaylist(playlistURI string) ([]model.TagBinding, error) {
	if playlistURI == "" {
		return nil, ErrEmptyPlaylistURI
	}
	return s.repo.FindByPlaylistURI(playlistURI)
}

// SeedBatch applies a list of bindings as one all-or-nothing unit. Every
// tuple is validated before anything touches storage, so a bad row rejects
// the whole batch with no change applied.
func (s *bindingService) SeedBatch(ctx context.Context, bindings []model.TagBinding) (int, error) {
	if len(bindings) == 0 {
		return 0, ErrEmptyBatch
	}

	for i := range bindings {
		if err := validateBinding(bindings[i].UID, bindings[i].PlaylistURI, bindings[i].LastPosMS); err != nil {
			return 0, fmt.Errorf("row %d (uid %q): %w", i, bindings[i].UID, err)
		}
	}

	if err := s.repo.BulkUpsert(bindings); err != nil {
		return 0, err
	}

	if s.cache != nil {
		for i := range bindings {
			s.cache.Invalidate(ctx, bindings[i].UID)
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyBindingsSeeded(len(bindings))
	}

	logger.Info("Seed batch applied", map[string]interface{}{
		"count": len(bindings),
	})
	return len(bindings), nil
}

// Stats returns row count and the most recent write time
func (s *bindingService) Stats() (*BindingStats, error) {
	count, err := s.repo.Count()
	if err != nil {
		return nil, err
	}
	latest, err := s.repo.LatestUpdate()
	if err != nil {
		return nil, err
	}
	return &BindingStats{Count: count, LatestUpdate: latest}, nil
}

func validateBinding(uid, playlistURI string, lastPosMS int64) error {
	if uid == "" {
		return ErrEmptyUID
	}
	if playlistURI == "" {
		return ErrEmptyPlaylistURI
	}
	if lastPosMS < 0 {
		return ErrNegativePosition
	}
	return nil
}
