package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/windward-io/windward/pkg/persistence"
	"github.com/windward-io/windward/pkg/persistence/file"
	"github.com/windward-io/windward/pkg/persistence/postgresql"
)

// NewPersistence builds the storage layer from a database URL. "postgres://"
// selects PostgreSQL; anything else is treated as a file store root.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to initialize postgresql persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parseProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
