package mongo

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/publica-dev/publica/pkg/publica"
)

// setupMongoRepo connects to the server named by MONGO_URL. The test is
// skipped when MONGO_INTEGRATION_TEST is not set.
func setupMongoRepo(t *testing.T) *Repository {
	if os.Getenv("MONGO_INTEGRATION_TEST") == "" {
		t.Skip("Skipping MongoDB integration test. Set MONGO_INTEGRATION_TEST=1 to run.")
	}

	mongoURL := os.Getenv("MONGO_URL")
	if mongoURL == "" {
		mongoURL = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		t.Skipf("mongodb not available: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Skipf("mongodb not reachable: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	db := client.Database("publica_test")
	require.NoError(t, db.Collection(DefaultCollection).Drop(ctx))

	repo := New(db, "")
	require.NoError(t, repo.EnsureIndexes(ctx))
	return repo
}

func testPublication(accountID uuid.UUID) *publica.Publication {
	return &publica.Publication{
		ID:        uuid.New(),
		AccountID: accountID,
		Comments:  []string{},
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestMongoRoundTrip(t *testing.T) {
	repo := setupMongoRepo(t)
	ctx := context.Background()

	pub := testPublication(uuid.New())
	pub.Description = "hello"
	pub.FilterApplied = "blur"
	pub.Comments = []string{"first"}
	require.NoError(t, repo.Save(ctx, pub))

	got, err := repo.Get(ctx, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, pub.ID, got.ID)
	assert.Equal(t, pub.AccountID, got.AccountID)
	assert.Equal(t, "hello", got.Description)
	assert.Equal(t, "blur", got.FilterApplied)
	assert.Equal(t, []string{"first"}, got.Comments)
	assert.True(t, pub.CreatedAt.Equal(got.CreatedAt))
}

func TestMongoGetMissing(t *testing.T) {
	repo := setupMongoRepo(t)

	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, publica.ErrPublicationNotFound)
}

func TestMongoDelete(t *testing.T) {
	repo := setupMongoRepo(t)
	ctx := context.Background()

	pub := testPublication(uuid.New())
	require.NoError(t, repo.Save(ctx, pub))
	require.NoError(t, repo.Delete(ctx, pub.ID))

	_, err := repo.Get(ctx, pub.ID)
	assert.ErrorIs(t, err, publica.ErrPublicationNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, pub.ID), publica.ErrPublicationNotFound)
}

func TestMongoListing(t *testing.T) {
	repo := setupMongoRepo(t)
	ctx := context.Background()

	alice := uuid.New()
	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 3; i++ {
		pub := testPublication(alice)
		pub.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Save(ctx, pub))
	}
	require.NoError(t, repo.Save(ctx, testPublication(uuid.New())))

	byAccount, err := repo.ListByAccount(ctx, alice)
	require.NoError(t, err)
	require.Len(t, byAccount, 3)
	for i := 1; i < len(byAccount); i++ {
		assert.True(t, byAccount[i].CreatedAt.Before(byAccount[i-1].CreatedAt))
	}

	recent, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestMongoMutate(t *testing.T) {
	repo := setupMongoRepo(t)
	ctx := context.Background()

	pub := testPublication(uuid.New())
	require.NoError(t, repo.Save(ctx, pub))

	t.Run("Missing", func(t *testing.T) {
		_, err := repo.Mutate(ctx, uuid.New(), func(p *publica.Publication) error { return nil })
		assert.ErrorIs(t, err, publica.ErrPublicationNotFound)
	})

	t.Run("ConcurrentIncrements", func(t *testing.T) {
		const writers = 20
		var wg sync.WaitGroup
		wg.Add(writers)
		for i := 0; i < writers; i++ {
			go func() {
				defer wg.Done()
				_, err := repo.Mutate(ctx, pub.ID, func(p *publica.Publication) error {
					p.Likes++
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := repo.Get(ctx, pub.ID)
		require.NoError(t, err)
		assert.Equal(t, writers, got.Likes)
	})
}
