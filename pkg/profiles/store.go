// Package profiles adapts the profile repository to the ProfileStore
// collaborator the step executors depend on.
package profiles

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/persistence"
)

// Store reads and tags subject profiles through the persistence layer.
type Store struct {
	logger     *slog.Logger
	repository persistence.ProfileRepository
}

func NewStore(logger *slog.Logger, repository persistence.ProfileRepository) *Store {
	return &Store{
		logger:     logger.With("module", "profile_store"),
		repository: repository,
	}
}

func (s *Store) GetProfile(ctx context.Context, subjectID string) (*models.Profile, error) {
	profile, err := s.repository.GetByID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", subjectID, err)
	}

	return profile, nil
}

func (s *Store) ApplyTags(ctx context.Context, subjectID string, tags []string) error {
	if err := s.repository.ApplyTags(ctx, subjectID, tags); err != nil {
		return fmt.Errorf("failed to tag profile %s: %w", subjectID, err)
	}

	s.logger.InfoContext(ctx, "Applied profile tags",
		"subject_id", subjectID,
		"tags", tags)

	return nil
}
