package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/persistence"
)

// ProfileRepository handles subject profile database operations.
type ProfileRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *sql.DB, logger *slog.Logger) *ProfileRepository {
	return &ProfileRepository{db: db, logger: logger}
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `
		SELECT id, email, first_name, last_name, attributes, tags, updated_at
		FROM profiles
		WHERE id = $1
	`

	var (
		profile        models.Profile
		attributesJSON []byte
		tagsJSON       []byte
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&profile.ID,
		&profile.Email,
		&profile.FirstName,
		&profile.LastName,
		&attributesJSON,
		&tagsJSON,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", id, persistence.ErrProfileNotFound)
		}

		return nil, fmt.Errorf("failed to get profile %s: %w", id, err)
	}

	if err := json.Unmarshal(attributesJSON, &profile.Attributes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attributes: %w", err)
	}

	if err := json.Unmarshal(tagsJSON, &profile.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}

	return &profile, nil
}

func (r *ProfileRepository) Save(ctx context.Context, profile *models.Profile) error {
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now().UTC()
	}

	attributesJSON, err := json.Marshal(profile.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}

	tagsJSON, err := json.Marshal(profile.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := `
		INSERT INTO profiles (id, email, first_name, last_name, attributes, tags, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			attributes = EXCLUDED.attributes,
			tags = EXCLUDED.tags,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		profile.ID,
		profile.Email,
		profile.FirstName,
		profile.LastName,
		attributesJSON,
		tagsJSON,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile %s: %w", profile.ID, err)
	}

	return nil
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
	query := `SELECT id FROM profiles WHERE updated_at < $1 ORDER BY updated_at`

	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query inactive profiles: %w", err)
	}
	defer rows.Close()

	var ids []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan profile id: %w", err)
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}
