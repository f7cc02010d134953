package server

import (
	"fmt"
	"net/http"
	"testing"

	"campusnest/internal/models"
	"campusnest/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatFlow(t *testing.T) {
	ts := newTestServer(t)
	seller := testutil.CreateUser(t, ts.db, "seller", models.RoleSeller)
	buyer := testutil.CreateUser(t, ts.db, "buyer", models.RoleBuyer)
	outsider := testutil.CreateUser(t, ts.db, "outsider", models.RoleBuyer)
	listing := testutil.CreateListing(t, ts.db, seller.ID, "3 Hostel Lane")

	sellerToken := ts.tokenFor(t, seller)
	buyerToken := ts.tokenFor(t, buyer)

	resp := ts.do(t, http.MethodPost, "/api/chats", buyerToken, StartChatRequest{ListingID: listing.ID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	chat := decode[models.Chat](t, resp)
	assert.Equal(t, buyer.ID, chat.BuyerID)
	assert.Equal(t, seller.ID, chat.SellerID)

	// Contacting the seller again reuses the chat.
	resp = ts.do(t, http.MethodPost, "/api/chats", buyerToken, StartChatRequest{ListingID: listing.ID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, chat.ID, decode[models.Chat](t, resp).ID)

	messagesPath := fmt.Sprintf("/api/chats/%d/messages", chat.ID)

	resp = ts.do(t, http.MethodPost, messagesPath, buyerToken, SendMessageRequest{Content: "Is it still available?"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	first := decode[models.Message](t, resp)

	resp = ts.do(t, http.MethodGet, "/api/notifications/unread-count", sellerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), decode[map[string]int64](t, resp)["count"])

	resp = ts.do(t, http.MethodPost, messagesPath, sellerToken, SendMessageRequest{Content: "Yes, come by tomorrow"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Seller replies notify nobody.
	resp = ts.do(t, http.MethodGet, "/api/notifications/unread-count", buyerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(0), decode[map[string]int64](t, resp)["count"])

	resp = ts.do(t, http.MethodGet, messagesPath, buyerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	transcript := decode[[]models.Message](t, resp)
	require.Len(t, transcript, 2)
	assert.Equal(t, "Is it still available?", transcript[0].Content)
	assert.Equal(t, seller.ID, transcript[1].SenderID)

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("%s?after=%d", messagesPath, first.ID), sellerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Message](t, resp), 1)

	resp = ts.do(t, http.MethodGet, "/api/chats", sellerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Chat](t, resp), 1)

	outsiderToken := ts.tokenFor(t, outsider)
	resp = ts.do(t, http.MethodGet, messagesPath, outsiderToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/chats/%d", chat.ID), outsiderToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, messagesPath, outsiderToken, SendMessageRequest{Content: "hello"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStartChat_Validation(t *testing.T) {
	ts := newTestServer(t)
	seller := testutil.CreateUser(t, ts.db, "seller", models.RoleSeller)
	listing := testutil.CreateListing(t, ts.db, seller.ID, "3 Hostel Lane")
	sellerToken := ts.tokenFor(t, seller)

	tests := []struct {
		name           string
		body           any
		expectedStatus int
	}{
		{"Missing listing", StartChatRequest{}, fiber.StatusBadRequest},
		{"Unknown listing", StartChatRequest{ListingID: 404}, fiber.StatusNotFound},
		{"Own listing", StartChatRequest{ListingID: listing.ID}, fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, "/api/chats", sellerToken, tt.body)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestSendMessage_RejectsBlankContent(t *testing.T) {
	ts := newTestServer(t)
	seller := testutil.CreateUser(t, ts.db, "seller", models.RoleSeller)
	buyer := testutil.CreateUser(t, ts.db, "buyer", models.RoleBuyer)
	listing := testutil.CreateListing(t, ts.db, seller.ID, "3 Hostel Lane")
	buyerToken := ts.tokenFor(t, buyer)

	resp := ts.do(t, http.MethodPost, "/api/chats", buyerToken, StartChatRequest{ListingID: listing.ID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	chat := decode[models.Chat](t, resp)

	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/chats/%d/messages", chat.ID), buyerToken,
		SendMessageRequest{Content: "   "})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestChatResponses_HideParticipantPrivateFields(t *testing.T) {
	ts := newTestServer(t)
	seller := testutil.CreateUser(t, ts.db, "seller", models.RoleSeller)
	buyer := testutil.CreateUser(t, ts.db, "buyer", models.RoleBuyer)
	listing := testutil.CreateListing(t, ts.db, seller.ID, "12 Ife Road")
	require.NoError(t, ts.db.Model(seller).Update("banned_reason", "earlier warning").Error)

	buyerToken := ts.tokenFor(t, buyer)
	resp := ts.do(t, http.MethodPost, "/api/chats", buyerToken, StartChatRequest{ListingID: listing.ID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	started := decode[map[string]any](t, resp)
	chatID := uint(started["id"].(float64))

	assertPublic := func(t *testing.T, chat map[string]any, role string) {
		t.Helper()
		user, ok := chat[role].(map[string]any)
		require.True(t, ok, "%s should be embedded", role)
		assert.NotContains(t, user, "email")
		assert.NotContains(t, user, "banned_reason")
		assert.NotContains(t, user, "banned_at")
		assert.Equal(t, false, user["is_banned"])
		assert.NotEmpty(t, user["name"])
	}

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/chats/%d", chatID), buyerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	detail := decode[map[string]any](t, resp)
	assertPublic(t, detail, "seller")
	assertPublic(t, detail, "buyer")

	resp = ts.do(t, http.MethodGet, "/api/chats", buyerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := decode[[]map[string]any](t, resp)
	require.Len(t, list, 1)
	assertPublic(t, list[0], "seller")

	resp = ts.do(t, http.MethodGet, "/api/chats", ts.tokenFor(t, seller), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list = decode[[]map[string]any](t, resp)
	require.Len(t, list, 1)
	assertPublic(t, list[0], "buyer")
}
