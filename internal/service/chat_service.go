package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"campusnest/internal/featureflags"
	"campusnest/internal/models"
	"campusnest/internal/notifications"
	"campusnest/internal/observability"
	"campusnest/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	maxMessageContentLen   = 5000
	defaultAdminChatsLimit = 50
)

// Texts of the notification a seller gets for a buyer's message.
const (
	NewMessageTitle   = "New Message Received 💬"
	NewMessageContent = "You have a new message from a potential buyer."
)

const (
	sellerReplyContent   = "You have a new reply from the seller."
	sellerChatLinkFormat = "/dashboard/seller/chat/%d"
	buyerChatLinkFormat  = "/dashboard/buyer/chat/%d"
	senderRoleBuyer      = "buyer"
	senderRoleSeller     = "seller"
)

// ChatService manages buyer/seller conversations.
type ChatService struct {
	store         *repository.Store
	notifications *NotificationService
	notifier      *notifications.Notifier
	flags         *featureflags.Manager
}

// NewChatService returns a new ChatService. notifier and flags may be nil.
func NewChatService(store *repository.Store, notifSvc *NotificationService, notifier *notifications.Notifier, flags *featureflags.Manager) *ChatService {
	return &ChatService{
		store:         store,
		notifications: notifSvc,
		notifier:      notifier,
		flags:         flags,
	}
}

// FindOrCreateChat returns the chat for (listingID, buyerID), creating it on first contact.
func (s *ChatService) FindOrCreateChat(ctx context.Context, listingID, buyerID, sellerID uint) (*models.Chat, error) {
	if listingID == 0 || buyerID == 0 || sellerID == 0 {
		return nil, models.NewValidationError("Listing, buyer and seller are required")
	}
	if buyerID == sellerID {
		return nil, models.NewValidationError("You cannot start a chat on your own listing")
	}

	chat, created, err := s.store.Chats.FindOrCreate(ctx, listingID, buyerID, sellerID)
	if err != nil {
		return nil, err
	}
	if created {
		observability.ChatsCreated.Inc()
	}
	return chat, nil
}

// StartChat opens the caller's chat about a listing. The seller is taken from the listing.
func (s *ChatService) StartChat(ctx context.Context, listingID, buyerID uint) (*models.Chat, error) {
	listing, err := s.store.Listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return s.FindOrCreateChat(ctx, listing.ID, buyerID, listing.SellerID)
}

// AppendMessage stores a message from one of the chat's participants.
// A buyer's message notifies the seller in the same transaction; seller
// replies notify nobody unless notify_buyer_on_reply is on for the buyer.
func (s *ChatService) AppendMessage(ctx context.Context, chatID, senderID uint, content string) (msg *models.Message, err error) {
	ctx, span := observability.StartSpan(ctx, "chat.append_message",
		attribute.Int64("chat.id", int64(chatID)),
		attribute.Int64("sender.id", int64(senderID)))
	defer func() { observability.EndSpan(span, err) }()

	return s.appendMessage(ctx, chatID, senderID, content)
}

func (s *ChatService) appendMessage(ctx context.Context, chatID, senderID uint, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Message content is required")
	}
	if utf8.RuneCountInString(content) > maxMessageContentLen {
		return nil, models.NewValidationError(fmt.Sprintf("Message content too long (max %d characters)", maxMessageContentLen))
	}

	chat, err := s.store.Chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsParticipant(senderID) {
		return nil, models.NewValidationError("Sender is not a participant in this chat")
	}

	msg := &models.Message{ChatID: chat.ID, SenderID: senderID, Content: content}
	var notice *models.Notification
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Chats.CreateMessage(ctx, msg); err != nil {
			return err
		}
		in, ok := s.messageNotice(chat, senderID)
		if !ok {
			return nil
		}
		n, err := s.notifications.NotifyWith(ctx, tx.Notifications, in)
		if err != nil {
			return err
		}
		notice = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	role := senderRoleSeller
	if senderID == chat.BuyerID {
		role = senderRoleBuyer
	}
	observability.ChatMessages.WithLabelValues(role).Inc()

	if notice != nil {
		s.notifications.Publish(ctx, notice)
	}
	s.publishMessage(ctx, msg)
	return msg, nil
}

// messageNotice decides who, if anyone, hears about a new message.
func (s *ChatService) messageNotice(chat *models.Chat, senderID uint) (NotifyInput, bool) {
	if senderID == chat.BuyerID {
		return NotifyInput{
			UserID:  chat.SellerID,
			Type:    models.NotificationNewMessage,
			Title:   NewMessageTitle,
			Content: NewMessageContent,
			Link:    fmt.Sprintf(sellerChatLinkFormat, chat.ID),
		}, true
	}
	if s.flags.Enabled(featureflags.NotifyBuyerOnReply, chat.BuyerID) {
		return NotifyInput{
			UserID:  chat.BuyerID,
			Type:    models.NotificationNewMessage,
			Title:   NewMessageTitle,
			Content: sellerReplyContent,
			Link:    fmt.Sprintf(buyerChatLinkFormat, chat.ID),
		}, true
	}
	return NotifyInput{}, false
}

func (s *ChatService) publishMessage(ctx context.Context, msg *models.Message) {
	if !s.notifier.Enabled() {
		return
	}
	payload, err := notifications.Event{Type: notifications.EventChatMessage, Payload: msg}.Encode()
	if err == nil {
		err = s.notifier.PublishChatMessage(ctx, msg.ChatID, payload)
	}
	if err != nil {
		observability.LogAsyncOperationError(ctx, "publish_chat_message", err, map[string]interface{}{
			"chat_id":    msg.ChatID,
			"message_id": msg.ID,
		})
	}
}

// ListMessages returns the transcript in send order. afterID > 0 returns only
// messages stored after that message, for polling clients.
func (s *ChatService) ListMessages(ctx context.Context, chatID, afterID uint) ([]models.Message, error) {
	if _, err := s.store.Chats.GetByID(ctx, chatID); err != nil {
		return nil, err
	}
	return s.store.Chats.ListMessages(ctx, chatID, afterID)
}

// ListChatsForUser returns every chat where userID is the buyer or the seller.
func (s *ChatService) ListChatsForUser(ctx context.Context, userID uint) ([]models.Chat, error) {
	return s.store.Chats.ListForUser(ctx, userID)
}

// GetChatForUser returns the chat with its listing and participants if userID takes part in it.
func (s *ChatService) GetChatForUser(ctx context.Context, chatID, userID uint) (*models.Chat, error) {
	chat, err := s.store.Chats.GetDetailed(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsParticipant(userID) {
		return nil, models.NewForbiddenError("You are not a participant in this chat")
	}
	return chat, nil
}

// ListAllChats returns chats with their messages for the admin dashboard.
func (s *ChatService) ListAllChats(ctx context.Context, limit, offset int) ([]models.Chat, error) {
	if limit <= 0 {
		limit = defaultAdminChatsLimit
	}
	return s.store.Chats.ListAll(ctx, limit, offset)
}
