package repository_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/repository/firestore"
	"github.com/hrmonitor/hrmonitor/pkg/repository/memory"
	"github.com/hrmonitor/hrmonitor/pkg/repository/mongodb"
	"github.com/m-mizutani/gt"
)

func newMemoryRepository(t *testing.T) interfaces.Repository {
	return memory.New()
}

// newFirestoreRepository isolates each test under a random collection
// prefix. It skips when TEST_FIRESTORE_PROJECT_ID is not set.
func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	prefix := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	repo, err := firestore.New(context.Background(), projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

// newMongoRepository binds each test to a fresh database that is dropped on
// cleanup. Indexes come from mongodb.New alone, as in serve. It skips when
// TEST_MONGO_URI is not set.
func newMongoRepository(t *testing.T) interfaces.Repository {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	dbName := "hrmonitor_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	repo, err := mongodb.New(ctx, uri, dbName)
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		_ = repo.DropAll(context.Background())
		_ = repo.Close()
	})
	return repo
}
