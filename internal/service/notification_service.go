// Package service provides the marketplace business logic: conversations,
// notifications, listings and moderation.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"campusnest/internal/cache"
	"campusnest/internal/models"
	"campusnest/internal/notifications"
	"campusnest/internal/observability"
	"campusnest/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultNotificationLimit = 20
	MaxNotificationLimit     = 100
)

// NotifyInput describes one notification to create.
type NotifyInput struct {
	UserID  uint
	Type    models.NotificationType
	Title   string
	Content string
	Link    string
}

// NotificationService creates and reads per-user notifications.
type NotificationService struct {
	repo     repository.NotificationRepository
	notifier *notifications.Notifier
	rdb      *redis.Client
}

// NewNotificationService returns a new NotificationService. notifier and rdb may be nil.
func NewNotificationService(repo repository.NotificationRepository, notifier *notifications.Notifier, rdb *redis.Client) *NotificationService {
	return &NotificationService{repo: repo, notifier: notifier, rdb: rdb}
}

// Notify stores a new unread notification and pushes it to the user's live connections.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) (*models.Notification, error) {
	n, err := s.NotifyWith(ctx, s.repo, in)
	if err != nil {
		return nil, err
	}
	s.Publish(ctx, n)
	return n, nil
}

// NotifyWith validates and stores a notification through repo, which may be
// bound to a caller's transaction. Call Publish once that transaction commits.
func (s *NotificationService) NotifyWith(ctx context.Context, repo repository.NotificationRepository, in NotifyInput) (*models.Notification, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("Notification recipient is required")
	}
	if !in.Type.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown notification type %q", in.Type))
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Notification title and content are required")
	}

	n := &models.Notification{
		UserID:  in.UserID,
		Type:    in.Type,
		Title:   in.Title,
		Content: in.Content,
		Link:    in.Link,
	}
	if err := repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Publish runs the post-commit side effects of a stored notification.
// Failures are logged; the row is already durable.
func (s *NotificationService) Publish(ctx context.Context, n *models.Notification) {
	observability.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
	cache.Invalidate(ctx, s.rdb, cache.UnreadCountKey(n.UserID))

	if !s.notifier.Enabled() {
		return
	}
	payload, err := notifications.Event{Type: notifications.EventNotification, Payload: n}.Encode()
	if err == nil {
		err = s.notifier.PublishUser(ctx, n.UserID, payload)
	}
	if err != nil {
		observability.LogAsyncOperationError(ctx, "publish_notification", err, map[string]interface{}{
			"user_id":         n.UserID,
			"notification_id": n.ID,
		})
	}
}

// List returns the user's newest notifications. limit defaults to 20 and is capped at 100.
func (s *NotificationService) List(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	return s.repo.ListForUser(ctx, userID, normalizeNotificationLimit(limit))
}

func normalizeNotificationLimit(limit int) int {
	if limit <= 0 {
		return DefaultNotificationLimit
	}
	if limit > MaxNotificationLimit {
		return MaxNotificationLimit
	}
	return limit
}

// Get returns one notification.
func (s *NotificationService) Get(ctx context.Context, id uint) (*models.Notification, error) {
	return s.repo.GetByID(ctx, id)
}

// MarkRead flips the notification to read. Marking a read notification again succeeds.
func (s *NotificationService) MarkRead(ctx context.Context, id uint) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.IsRead {
		return nil
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return err
	}
	cache.Invalidate(ctx, s.rdb, cache.UnreadCountKey(n.UserID))
	return nil
}

// MarkAllRead marks every unread notification of the user. Each record is
// attempted; the returned error joins every per-record failure and updated
// counts the records that did flip.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (updated int, err error) {
	ctx, span := observability.StartSpan(ctx, "notification.mark_all_read",
		attribute.Int64("user.id", int64(userID)))
	defer func() {
		span.SetAttributes(attribute.Int("notifications.updated", updated))
		observability.EndSpan(span, err)
	}()

	ids, err := s.repo.ListUnreadIDs(ctx, userID)
	if err != nil {
		return 0, err
	}

	var errs []error
	for _, id := range ids {
		if markErr := s.repo.MarkRead(ctx, id); markErr != nil {
			errs = append(errs, fmt.Errorf("notification %d: %w", id, markErr))
			continue
		}
		updated++
	}

	if updated > 0 {
		cache.Invalidate(ctx, s.rdb, cache.UnreadCountKey(userID))
	}
	return updated, errors.Join(errs...)
}

// UnreadCount returns the number of unread notifications, cached briefly in Redis.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := cache.CacheAside(ctx, s.rdb, cache.UnreadCountKey(userID), &count, cache.UnreadCountTTL, func() error {
		n, err := s.repo.CountUnread(ctx, userID)
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	return count, err
}
