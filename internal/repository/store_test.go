package repository

import (
	"context"
	"errors"
	"testing"

	"campusnest/internal/models"
	"campusnest/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_TransactionRollsBack(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	store := NewStore(db)
	ctx := context.Background()

	seller := testutil.CreateUser(t, db, "seller", models.RoleSeller)
	listing := testutil.CreateListing(t, db, seller.ID, "5 Ring Road")

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx *Store) error {
		if err := tx.Listings.SetStatus(ctx, listing.ID, models.ListingStatusSold); err != nil {
			return err
		}
		if err := tx.AdminLogs.Create(ctx, &models.AdminLog{AdminID: seller.ID, Action: models.AdminActionDeleteListing, TargetType: models.AdminTargetListing, TargetID: listing.ID}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Listings.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusActive, got.Status)

	logs, err := store.AdminLogs.List(ctx, 50)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestStore_TransactionCommits(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	store := NewStore(db)
	ctx := context.Background()
	admin := testutil.CreateUser(t, db, "admin", models.RoleSeller)

	require.NoError(t, store.Transaction(ctx, func(tx *Store) error {
		return tx.AdminLogs.Create(ctx, &models.AdminLog{AdminID: admin.ID, Action: models.AdminActionBanUser, TargetType: models.AdminTargetUser, TargetID: 9})
	}))

	logs, err := store.AdminLogs.List(ctx, 50)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AdminActionBanUser, logs[0].Action)
	assert.Same(t, db, store.DB())
}
