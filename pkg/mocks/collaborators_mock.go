package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/windward-io/windward/pkg/models"
)

// MockMailer is a mock implementation of protocol.Mailer.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendTemplated(ctx context.Context, templateID, recipient string, data map[string]any) (string, error) {
	args := m.Called(ctx, templateID, recipient, data)

	return args.String(0), args.Error(1)
}

// MockProfileStore is a mock implementation of protocol.ProfileStore.
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GetProfile(ctx context.Context, subjectID string) (*models.Profile, error) {
	args := m.Called(ctx, subjectID)

	if profile, ok := args.Get(0).(*models.Profile); ok {
		return profile, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockProfileStore) ApplyTags(ctx context.Context, subjectID string, tags []string) error {
	args := m.Called(ctx, subjectID, tags)

	return args.Error(0)
}
