package repository

import (
	"context"
	"regexp"
	"testing"

	"campusnest/internal/models"
	"campusnest/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &models.User{Name: "Ada", Email: "ada@example.com", Password: "hash", Role: models.RoleSeller}
	require.NoError(t, repo.Create(ctx, u))
	require.NotZero(t, u.ID)

	got, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.False(t, got.IsAdmin)

	dup := &models.User{Name: "Other", Email: "ada@example.com", Password: "hash", Role: models.RoleBuyer}
	err = repo.Create(ctx, dup)
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	_, err = repo.GetByID(ctx, 9999)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestUserRepository_SetBanned(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "bob", models.RoleBuyer)

	require.NoError(t, repo.SetBanned(ctx, u.ID, true, "spam"))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsBanned)
	require.NotNil(t, got.BannedAt)
	require.NotNil(t, got.BannedReason)
	assert.Equal(t, "spam", *got.BannedReason)

	require.NoError(t, repo.SetBanned(ctx, u.ID, false, ""))
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsBanned)
	assert.Nil(t, got.BannedAt)
	assert.Nil(t, got.BannedReason)

	err = repo.SetBanned(ctx, 4242, true, "x")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestUserRepository_AdminFlag(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "root", models.RoleSeller)

	isAdmin, err := repo.IsAdmin(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	require.NoError(t, repo.SetAdmin(ctx, u.ID, true))
	isAdmin, err = repo.IsAdmin(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	admins, err := repo.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, u.ID, admins[0].ID)

	_, err = repo.IsAdmin(ctx, 777)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestUserRepository_CountByRoleAndList(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	testutil.CreateUser(t, db, "b1", models.RoleBuyer)
	testutil.CreateUser(t, db, "b2", models.RoleBuyer)
	testutil.CreateUser(t, db, "s1", models.RoleSeller)

	counts, err := repo.CountByRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[models.RoleBuyer])
	assert.Equal(t, int64(1), counts[models.RoleSeller])

	users, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, repo.UpdateProfile(ctx, users[0].ID, map[string]any{"name": "Renamed"}))
	got, err := repo.GetByID(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
}

func TestUserRepository_IsAdmin_QueryShape(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "is_admin" FROM "users" WHERE id = $1 AND "users"."deleted_at" IS NULL`)).
		WillReturnRows(sqlmock.NewRows([]string{"is_admin"}).AddRow(true))

	isAdmin, err := repo.IsAdmin(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, isAdmin)
	assert.NoError(t, mock.ExpectationsWereMet())
}
