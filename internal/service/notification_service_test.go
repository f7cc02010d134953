package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"campusnest/internal/models"
	"campusnest/internal/repository"
	"campusnest/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_Notify_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "ada", models.RoleBuyer)

	tests := []struct {
		name string
		in   NotifyInput
	}{
		{"unknown type", NotifyInput{UserID: user.ID, Type: "promo", Title: "t", Content: "c"}},
		{"no recipient", NotifyInput{Type: models.NotificationSystemAlert, Title: "t", Content: "c"}},
		{"blank title", NotifyInput{UserID: user.ID, Type: models.NotificationSystemAlert, Title: " ", Content: "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.notifs.Notify(ctx, tt.in)
			assert.Equal(t, models.CodeValidation, appCode(err))
		})
	}

	n, err := f.notifs.Notify(ctx, NotifyInput{UserID: user.ID, Type: models.NotificationSystemAlert, Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.NotZero(t, n.ID)
	assert.False(t, n.IsRead)
}

func TestNotificationService_List_Limits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "ada", models.RoleBuyer)

	for i := 0; i < 105; i++ {
		_, err := f.notifs.Notify(ctx, NotifyInput{
			UserID:  user.ID,
			Type:    models.NotificationViewMilestone,
			Title:   "t",
			Content: fmt.Sprintf("n%d", i),
		})
		require.NoError(t, err)
	}

	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultNotificationLimit},
		{-3, DefaultNotificationLimit},
		{5, 5},
		{500, MaxNotificationLimit},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("limit=%d", tt.limit), func(t *testing.T) {
			got, err := f.notifs.List(ctx, user.ID, tt.limit)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
			assert.Equal(t, "n104", got[0].Content)
		})
	}
}

func TestNotificationService_MarkRead_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "ada", models.RoleBuyer)
	n, err := f.notifs.Notify(ctx, NotifyInput{UserID: user.ID, Type: models.NotificationSystemAlert, Title: "t", Content: "c"})
	require.NoError(t, err)

	require.NoError(t, f.notifs.MarkRead(ctx, n.ID))
	require.NoError(t, f.notifs.MarkRead(ctx, n.ID))

	got, err := f.notifs.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)

	assert.Equal(t, models.CodeNotFound, appCode(f.notifs.MarkRead(ctx, 9999)))
}

func TestNotificationService_MarkAllRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "ada", models.RoleBuyer)
	other := testutil.CreateUser(t, f.db, "bob", models.RoleBuyer)

	for _, uid := range []uint{user.ID, user.ID, user.ID, other.ID} {
		_, err := f.notifs.Notify(ctx, NotifyInput{UserID: uid, Type: models.NotificationSystemAlert, Title: "t", Content: "c"})
		require.NoError(t, err)
	}

	updated, err := f.notifs.MarkAllRead(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, updated)

	count, err := f.notifs.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = f.notifs.UnreadCount(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNotificationService_MarkAllRead_PartialFailure(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	svc := NewNotificationService(repository.NewNotificationRepository(db), nil, nil)

	mock.ExpectQuery(`SELECT "id" FROM "notifications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(3))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "notifications" SET "is_read"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "notifications" SET "is_read"`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "notifications" SET "is_read"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated, err := svc.MarkAllRead(context.Background(), 7)
	assert.Equal(t, 2, updated)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notification 2")
	assert.NotContains(t, err.Error(), "notification 1")
	assert.NotContains(t, err.Error(), "notification 3")
	assert.Equal(t, models.CodeInternal, appCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationService_UnreadCountCache(t *testing.T) {
	f := newFixture(t, withRedis())
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "ada", models.RoleBuyer)

	count, err := f.notifs.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	n, err := f.notifs.Notify(ctx, NotifyInput{UserID: user.ID, Type: models.NotificationSystemAlert, Title: "t", Content: "c"})
	require.NoError(t, err)

	count, err = f.notifs.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "notify must invalidate the cached count")

	require.NoError(t, f.notifs.MarkRead(ctx, n.ID))
	count, err = f.notifs.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
