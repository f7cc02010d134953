package service

import (
	"context"
	"testing"

	"campusnest/internal/models"
	"campusnest/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "ada", models.RoleBuyer)

	name := "  Ada Lovelace "
	pic := "http://localhost:8375/uploads/avatars/a.webp"
	updated, err := f.users.UpdateProfile(ctx, UpdateProfileInput{UserID: user.ID, Name: &name, ProfilePic: &pic})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.Name)
	assert.Equal(t, pic, updated.ProfilePic)
	assert.Equal(t, models.RoleBuyer, updated.Role)

	blank := " "
	_, err = f.users.UpdateProfile(ctx, UpdateProfileInput{UserID: user.ID, Name: &blank})
	assert.Equal(t, models.CodeValidation, appCode(err))

	unchanged, err := f.users.UpdateProfile(ctx, UpdateProfileInput{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", unchanged.Name)
}

func TestUserService_PublicProfileHidesPrivateFields(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "ada", models.RoleSeller)

	public, err := f.users.GetPublicProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, public.ID)
	assert.Empty(t, public.Email)
	assert.False(t, public.IsAdmin)

	_, err = f.users.GetPublicProfile(context.Background(), 999)
	assert.Equal(t, models.CodeNotFound, appCode(err))
}

func TestUserService_SetAdminByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "ada", models.RoleBuyer)

	promoted, err := f.users.SetAdminByEmail(ctx, " ADA@example.com ", true)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin)

	admins, err := f.users.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, user.ID, admins[0].ID)

	_, err = f.users.SetAdminByEmail(ctx, user.Email, false)
	require.NoError(t, err)
	admins, err = f.users.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Empty(t, admins)

	_, err = f.users.SetAdminByEmail(ctx, "nobody@example.com", true)
	assert.Equal(t, models.CodeNotFound, appCode(err))
}
