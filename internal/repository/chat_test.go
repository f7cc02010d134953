package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"campusnest/internal/models"
	"campusnest/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRepository_FindOrCreate_Idempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	seller := testutil.CreateUser(t, db, "seller", models.RoleSeller)
	buyer := testutil.CreateUser(t, db, "buyer", models.RoleBuyer)
	listing := testutil.CreateListing(t, db, seller.ID, "3 Lagoon View")

	first, created, err := repo.FindOrCreate(ctx, listing.ID, buyer.ID, seller.ID)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.FindOrCreate(ctx, listing.ID, buyer.ID, seller.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestChatRepository_FindOrCreate_Concurrent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	seller := testutil.CreateUser(t, db, "seller", models.RoleSeller)
	buyer := testutil.CreateUser(t, db, "buyer", models.RoleBuyer)
	listing := testutil.CreateListing(t, db, seller.ID, "3 Lagoon View")

	const n = 10
	ids := make(chan uint, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			chat, _, err := repo.FindOrCreate(ctx, listing.ID, buyer.ID, seller.ID)
			if assert.NoError(t, err) {
				ids <- chat.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	var first uint
	for id := range ids {
		if first == 0 {
			first = id
		}
		assert.Equal(t, first, id)
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestChatRepository_ListMessages_Order(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	seller := testutil.CreateUser(t, db, "seller", models.RoleSeller)
	buyer := testutil.CreateUser(t, db, "buyer", models.RoleBuyer)
	listing := testutil.CreateListing(t, db, seller.ID, "3 Lagoon View")
	chat, _, err := repo.FindOrCreate(ctx, listing.ID, buyer.ID, seller.ID)
	require.NoError(t, err)

	// Identical timestamps fall back to insertion order.
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, content := range []string{"A", "B", "C"} {
		require.NoError(t, repo.CreateMessage(ctx, &models.Message{ChatID: chat.ID, SenderID: buyer.ID, Content: content, CreatedAt: ts}))
	}

	msgs, err := repo.ListMessages(ctx, chat.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "A", msgs[0].Content)
	assert.Equal(t, "B", msgs[1].Content)
	assert.Equal(t, "C", msgs[2].Content)

	after, err := repo.ListMessages(ctx, chat.ID, msgs[0].ID)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, "B", after[0].Content)
}

func TestChatRepository_ListForUserAndAll(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	seller := testutil.CreateUser(t, db, "seller", models.RoleSeller)
	b1 := testutil.CreateUser(t, db, "b1", models.RoleBuyer)
	b2 := testutil.CreateUser(t, db, "b2", models.RoleBuyer)
	listing := testutil.CreateListing(t, db, seller.ID, "3 Lagoon View")

	c1, _, err := repo.FindOrCreate(ctx, listing.ID, b1.ID, seller.ID)
	require.NoError(t, err)
	_, _, err = repo.FindOrCreate(ctx, listing.ID, b2.ID, seller.ID)
	require.NoError(t, err)
	require.NoError(t, repo.CreateMessage(ctx, &models.Message{ChatID: c1.ID, SenderID: b1.ID, Content: "hi"}))

	sellerChats, err := repo.ListForUser(ctx, seller.ID)
	require.NoError(t, err)
	assert.Len(t, sellerChats, 2)

	b1Chats, err := repo.ListForUser(ctx, b1.ID)
	require.NoError(t, err)
	require.Len(t, b1Chats, 1)
	require.NotNil(t, b1Chats[0].Listing)
	assert.Equal(t, "3 Lagoon View", b1Chats[0].Listing.Address)

	all, err := repo.ListAll(ctx, 50, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	total := 0
	for _, c := range all {
		total += len(c.Messages)
	}
	assert.Equal(t, 1, total)

	detailed, err := repo.GetDetailed(ctx, c1.ID)
	require.NoError(t, err)
	require.NotNil(t, detailed.Buyer)
	assert.Equal(t, b1.ID, detailed.Buyer.ID)

	_, err = repo.GetByID(ctx, 9999)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}
