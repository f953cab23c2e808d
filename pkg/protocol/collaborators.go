package protocol

import (
	"context"

	"github.com/windward-io/windward/pkg/models"
)

// Mailer is the templated mail transport collaborator. Delivery guarantees,
// provider fallback and retries live behind this interface.
type Mailer interface {
	SendTemplated(ctx context.Context, templateID, recipient string, data map[string]any) (messageID string, err error)
}

// ProfileStore is the subject profile collaborator.
type ProfileStore interface {
	GetProfile(ctx context.Context, subjectID string) (*models.Profile, error)
	ApplyTags(ctx context.Context, subjectID string, tags []string) error
}
