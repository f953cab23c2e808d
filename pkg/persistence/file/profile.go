package file

import (
	"context"
	"fmt"
	"time"

	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/persistence"
)

// ProfileRepository stores subject profiles as JSON documents.
type ProfileRepository struct {
	store *documentStore
}

func NewProfileRepository(root string) *ProfileRepository {
	return &ProfileRepository{store: newDocumentStore(root, "profiles")}
}

func (r *ProfileRepository) GetByID(_ context.Context, id string) (*models.Profile, error) {
	var profile models.Profile

	found, err := r.store.read(id, &profile)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, fmt.Errorf("profile %s: %w", id, persistence.ErrProfileNotFound)
	}

	return &profile, nil
}

func (r *ProfileRepository) Save(_ context.Context, profile *models.Profile) error {
	return r.store.write(profile.ID, profile)
}

func (r *ProfileRepository) ApplyTags(ctx context.Context, id string, tags []string) error {
	profile, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	profile.ApplyTags(tags)

	return r.Save(ctx, profile)
}

func (r *ProfileRepository) InactiveSince(ctx context.Context, cutoff time.Time) ([]string, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, err
	}

	var inactive []string

	for _, id := range ids {
		profile, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if profile.UpdatedAt.Before(cutoff) {
			inactive = append(inactive, profile.ID)
		}
	}

	return inactive, nil
}
