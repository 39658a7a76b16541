package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/powerflow/pkg/types"
)

var ErrInvalidCardID = errors.New("invalid card id")

// Database defines the interface for persisting card configuration. Computed
// flows are never stored.
type Database interface {
	// GetCardConfig returns the stored config and the version it was stored
	// at. A card that was never stored returns a zero config at version 0.
	GetCardConfig(ctx context.Context, cardID string) (types.CardConfig, int, error)
	SetCardConfig(ctx context.Context, cardID string, cfg types.CardConfig, version int) error
	ListCards(ctx context.Context) ([]string, error)

	// Lifecycle
	Close() error
}

// Configured sets up the Storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "firestore", "Storage provider to use (available: firestore)")

	var p struct{ Database }

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Database = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}

// validCardID reports whether id can be used as a document id.
func validCardID(id string) bool {
	if id == "" || len(id) > 128 || id == "." || id == ".." {
		return false
	}
	for _, r := range id {
		if r == '/' {
			return false
		}
	}
	return true
}
