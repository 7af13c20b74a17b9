package repomanager

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auboutique/internal/common"
	"auboutique/internal/server/models"
)

// openTestStore runs the full migration chain against a throwaway SQLite
// file and returns the backend, exactly as the server opens it.
func openTestStore(t *testing.T) (*sql.DB, RepositoryManager) {
	t.Helper()

	db, m, err := Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, m.RunMigrations(context.Background(), db))
	return db, m
}

func createTestUser(t *testing.T, db *sql.DB, m RepositoryManager, username string) int64 {
	t.Helper()
	u, err := m.Users(db).Create(context.Background(), &models.User{
		FirstName:    "Lina",
		LastName:     "Haddad",
		Email:        username + "@mail.aub.edu",
		UserName:     username,
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return u.ID
}

func TestSQLUsers(t *testing.T) {
	db, m := openTestStore(t)
	repo := m.Users(db)
	ctx := context.Background()

	id := createTestUser(t, db, m, "lina")

	t.Run("duplicate username", func(t *testing.T) {
		_, err := repo.Create(ctx, &models.User{
			FirstName: "Other", LastName: "Lina", Email: "x@mail.aub.edu",
			UserName: "lina", PasswordHash: "hash",
		})
		assert.ErrorIs(t, err, common.ErrDuplicateUsername)
	})

	t.Run("lookup round-trip", func(t *testing.T) {
		u, err := repo.GetByUsername(ctx, "lina")
		require.NoError(t, err)
		assert.Equal(t, id, u.ID)
		assert.False(t, u.Online)
		assert.Nil(t, u.IP)

		_, err = repo.GetByUsername(ctx, "ghost")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("presence round-trip", func(t *testing.T) {
		require.NoError(t, repo.SetOnline(ctx, id, "10.0.0.5", 4040))

		u, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, u.Online)
		require.NotNil(t, u.IP)
		require.NotNil(t, u.Port)
		assert.Equal(t, "10.0.0.5", *u.IP)
		assert.Equal(t, 4040, *u.Port)

		names, err := repo.OnlineUsernames(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"lina"}, names)

		require.NoError(t, repo.SetOffline(ctx, id))
		u, err = repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, u.Online)
		assert.Nil(t, u.IP)
	})
}

func TestSQLProducts(t *testing.T) {
	db, m := openTestStore(t)
	repo := m.Products(db)
	ctx := context.Background()

	linaID := createTestUser(t, db, m, "lina")
	omarID := createTestUser(t, db, m, "omar")

	mug, err := repo.Add(ctx, &models.Product{
		Name: "Coffee Mug", OwnerID: linaID, Category: "kitchen",
		Price: 8.5, Description: "white ceramic", Image: "mug.png", Quantity: 2,
	})
	require.NoError(t, err)
	require.NotZero(t, mug.ID)

	lamp, err := repo.Add(ctx, &models.Product{
		Name: "Desk Lamp", OwnerID: omarID, Category: "office",
		Price: 20, Description: "", Image: "", Quantity: 1,
	})
	require.NoError(t, err)

	t.Run("list and search", func(t *testing.T) {
		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		found, err := repo.SearchByName(ctx, "LAMP")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, lamp.ID, found[0].ID)

		mine, err := repo.ListByOwner(ctx, linaID)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, mug.ID, mine[0].ID)
	})

	t.Run("buy down to zero", func(t *testing.T) {
		require.NoError(t, repo.Buy(ctx, mug.ID, omarID))

		got, err := repo.GetByID(ctx, mug.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Quantity)
		assert.Nil(t, got.BuyerID)

		require.NoError(t, repo.Buy(ctx, mug.ID, omarID))
		got, err = repo.GetByID(ctx, mug.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Quantity)
		require.NotNil(t, got.BuyerID)
		assert.Equal(t, omarID, *got.BuyerID)

		assert.ErrorIs(t, repo.Buy(ctx, mug.ID, linaID), common.ErrProductUnavailable)
	})

	t.Run("buy unknown product", func(t *testing.T) {
		assert.ErrorIs(t, repo.Buy(ctx, 999, omarID), common.ErrProductUnavailable)
	})
}

func TestSQLProducts_ConcurrentBuy(t *testing.T) {
	db, m := openTestStore(t)
	repo := m.Products(db)
	ctx := context.Background()

	linaID := createTestUser(t, db, m, "lina")
	p, err := repo.Add(ctx, &models.Product{
		Name: "Signed First Edition", OwnerID: linaID, Category: "books",
		Price: 100, Quantity: 1,
	})
	require.NoError(t, err)

	const buyers = 16
	var wg sync.WaitGroup
	results := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		buyerID := int64(100 + i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.Buy(ctx, p.ID, buyerID)
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, common.ErrProductUnavailable)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestSQLRatings(t *testing.T) {
	db, m := openTestStore(t)
	repo := m.Ratings(db)
	ctx := context.Background()

	linaID := createTestUser(t, db, m, "lina")
	p, err := m.Products(db).Add(ctx, &models.Product{
		Name: "Coffee Mug", OwnerID: linaID, Category: "kitchen", Price: 8, Quantity: 1,
	})
	require.NoError(t, err)

	avg, err := repo.Average(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, avg)

	require.NoError(t, repo.Upsert(ctx, &models.Rating{ProductID: p.ID, UserID: 1, Rating: 2}))
	require.NoError(t, repo.Upsert(ctx, &models.Rating{ProductID: p.ID, UserID: 2, Rating: 5}))

	avg, err = repo.Average(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, avg, 1e-9)

	// same user again replaces, not accumulates
	require.NoError(t, repo.Upsert(ctx, &models.Rating{ProductID: p.ID, UserID: 1, Rating: 4}))
	avg, err = repo.Average(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, avg, 1e-9)
}

func TestSQLMessages(t *testing.T) {
	db, m := openTestStore(t)
	repo := m.Messages(db)
	ctx := context.Background()

	linaID := createTestUser(t, db, m, "lina")
	omarID := createTestUser(t, db, m, "omar")

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &models.Message{
		SenderID: linaID, ReceiverID: omarID, Body: "first", SentAt: base,
	}))
	require.NoError(t, repo.Create(ctx, &models.Message{
		SenderID: linaID, ReceiverID: omarID, Body: "second", SentAt: base.Add(time.Minute),
	}))
	require.NoError(t, repo.Create(ctx, &models.Message{
		SenderID: omarID, ReceiverID: linaID, Body: "not yours", SentAt: base,
	}))

	inbox, err := repo.ListForReceiver(ctx, omarID)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, "lina", inbox[0].From)
	assert.Equal(t, "first", inbox[0].Body)
	assert.Equal(t, "second", inbox[1].Body)

	inbox, err = repo.ListForReceiver(ctx, omarID)
	require.NoError(t, err)
	assert.Empty(t, inbox, "pickup drains the queue")

	inbox, err = repo.ListForReceiver(ctx, linaID)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "omar", inbox[0].From)
}
