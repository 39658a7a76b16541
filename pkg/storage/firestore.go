package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/powerflow/pkg/log"
	"github.com/raterudder/powerflow/pkg/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const cardsCollection = "cards"

// FirestoreProvider implements the Database interface using Google Cloud
// Firestore. Each card is one document in the "cards" collection holding the
// config as a JSON string and the config version.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// Project ID verification could be here, but we allow empty if inferred.
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreProvider) cardDoc(cardID string) (*firestore.DocumentRef, error) {
	if !validCardID(cardID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCardID, cardID)
	}
	return f.client.Collection(cardsCollection).Doc(cardID), nil
}

// GetCardConfig retrieves the config from the "cards/{cardID}" document.
func (f *FirestoreProvider) GetCardConfig(ctx context.Context, cardID string) (types.CardConfig, int, error) {
	ref, err := f.cardDoc(cardID)
	if err != nil {
		return types.CardConfig{}, 0, err
	}
	doc, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			// Return default config if not found
			return types.CardConfig{}, 0, nil
		}
		return types.CardConfig{}, 0, fmt.Errorf("failed to fetch card doc: %w", err)
	}

	// Read version if available (default 0)
	var version int
	if v, err := doc.DataAt("version"); err == nil {
		if vInt, ok := v.(int64); ok {
			version = int(vInt)
		}
	}

	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "card doc missing json", slog.String("cardID", cardID))
		return types.CardConfig{}, 0, fmt.Errorf("card document missing 'json' field: %w", err)
	}

	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "card doc json not string", slog.String("cardID", cardID))
		return types.CardConfig{}, 0, fmt.Errorf("card 'json' field is not a string")
	}

	var c types.CardConfig
	if err := json.Unmarshal([]byte(jsonStr), &c); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal card json", slog.String("cardID", cardID), slog.Any("err", err))
		return types.CardConfig{}, 0, fmt.Errorf("failed to unmarshal card json: %w", err)
	}
	return c, version, nil
}

// SetCardConfig saves the config to the "cards/{cardID}" document.
// It stores the config as a JSON string for portability.
func (f *FirestoreProvider) SetCardConfig(ctx context.Context, cardID string, cfg types.CardConfig, version int) error {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal card config: %w", err)
	}

	ref, err := f.cardDoc(cardID)
	if err != nil {
		return err
	}
	_, err = ref.Set(ctx, map[string]interface{}{
		"json":    string(jsonBytes),
		"version": version,
	})
	if err != nil {
		return fmt.Errorf("failed to save card config: %w", err)
	}
	return nil
}

// ListCards returns the ids of every stored card in id order.
func (f *FirestoreProvider) ListCards(ctx context.Context) ([]string, error) {
	iter := f.client.Collection(cardsCollection).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Select().
		Documents(ctx)
	defer iter.Stop()

	var ids []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating cards: %w", err)
		}
		ids = append(ids, doc.Ref.ID)
	}
	return ids, nil
}
