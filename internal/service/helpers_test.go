package service

import (
	"strconv"
	"testing"

	"campusnest/internal/featureflags"
	"campusnest/internal/models"
	"campusnest/internal/notifications"
	"campusnest/internal/repository"
	"campusnest/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	rdb        *redis.Client
	store      *repository.Store
	notifs     *NotificationService
	chats      *ChatService
	listings   *ListingService
	moderation *ModerationService
	users      *UserService
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	redis bool
	flags string
}

func withRedis() fixtureOption {
	return func(c *fixtureConfig) { c.redis = true }
}

func withFlags(raw string) fixtureOption {
	return func(c *fixtureConfig) { c.flags = raw }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	var cfg fixtureConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &fixture{db: testutil.NewSQLiteDB(t)}
	if cfg.redis {
		mr := miniredis.RunT(t)
		f.rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = f.rdb.Close() })
	}

	notifier := notifications.NewNotifier(f.rdb)
	f.store = repository.NewStore(f.db)
	f.notifs = NewNotificationService(f.store.Notifications, notifier, f.rdb)
	f.chats = NewChatService(f.store, f.notifs, notifier, featureflags.NewManager(cfg.flags))
	f.listings = NewListingService(f.store, f.notifs)
	f.moderation = NewModerationService(f.store, f.notifs, f.rdb)
	f.users = NewUserService(f.store.Users)
	return f
}

// marketplace creates a seller with one listing and a buyer.
func (f *fixture) marketplace(t *testing.T) (seller, buyer *models.User, listing *models.Listing) {
	t.Helper()
	seller = testutil.CreateUser(t, f.db, "seller", models.RoleSeller)
	buyer = testutil.CreateUser(t, f.db, "buyer", models.RoleBuyer)
	listing = testutil.CreateListing(t, f.db, seller.ID, "12 Unilag Road")
	return seller, buyer, listing
}

func (f *fixture) notificationsFor(t *testing.T, userID uint, typ models.NotificationType) []models.Notification {
	t.Helper()
	var out []models.Notification
	require.NoError(t, f.db.Where("user_id = ? AND type = ?", userID, typ).Order("id ASC").Find(&out).Error)
	return out
}

func appCode(err error) string {
	return models.ErrorCode(err)
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
