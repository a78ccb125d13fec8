package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/presence"
	"messaging-service/internal/ws"
)

func newTestTracker() *presence.Tracker {
	return presence.NewTracker(presence.DefaultTimeout)
}

func newTestHub() *ws.Hub {
	return ws.NewHub()
}

func newTestHandler(chatRepo *mocks.ChatRepositoryMock, messageRepo *mocks.MessageRepositoryMock, receiptRepo *mocks.ReceiptRepositoryMock) *ChatHandler {
	resolver := new(mocks.ResolverMock)
	resolver.On("ResolveURL", mock.Anything, mock.Anything).Return("", nil).Maybe()
	return NewChatHandler(chatRepo, messageRepo, receiptRepo, newTestTracker(), resolver, newTestHub())
}

func setupChatRouter(handler *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/chats", handler.ListChats)
	r.POST("/chats/start", handler.StartChat)
	r.DELETE("/chats/:chat_id", handler.DeleteChat)
	r.GET("/chats/:chat_id/messages", handler.GetChatMessages)
	r.POST("/chats/:chat_id/messages", handler.PostChatMessage)
	r.DELETE("/chats/:chat_id/messages/:message_id", handler.DeleteMessage)
	r.POST("/chats/:chat_id/read", handler.MarkRead)
	r.GET("/chats/:chat_id/unread", handler.UnreadCount)
	r.POST("/chats/:chat_id/typing", handler.SetTyping)
	r.GET("/chats/:chat_id/typing", handler.GetTyping)
	return r
}

func TestListChatsSuccess(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := newTestHandler(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.ReceiptRepositoryMock))
	router := setupChatRouter(handler)

	summaries := []models.ChatSummary{{
		ChatID:       3,
		Participants: [2]int{1, 2},
		FriendID:     2,
		UnreadCount:  4,
		LastMessage:  &models.LastMessage{MessageID: 9, SenderID: 2, Text: "hey", CreatedAt: time.Now()},
	}}
	chatRepo.On("ListChats", mock.Anything, 1).Return(summaries, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Chats []models.ChatSummary `json:"chats"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Chats, 1)
	assert.Equal(t, 3, resp.Chats[0].ChatID)
	assert.Equal(t, 4, resp.Chats[0].UnreadCount)
	chatRepo.AssertExpectations(t)
}

func TestListChatsRepoError(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := newTestHandler(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.ReceiptRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("ListChats", mock.Anything, 1).Return(([]models.ChatSummary)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	chatRepo.AssertExpectations(t)
}

func TestStartChatCreates(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := newTestHandler(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.ReceiptRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("CreateOrGetChat", mock.Anything, 1, 2).Return(models.Chat{ID: 10, User1ID: 1, User2ID: 2}, true, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/start", bytes.NewBufferString(`{"user_id":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		ChatID  int  `json:"chat_id"`
		Created bool `json:"created"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 10, resp.ChatID)
	assert.True(t, resp.Created)
	chatRepo.AssertExpectations(t)
}

func TestStartChatExistingReturnsSameChat(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := newTestHandler(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.ReceiptRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("CreateOrGetChat", mock.Anything, 1, 2).Return(models.Chat{ID: 10, User1ID: 1, User2ID: 2}, false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/start", bytes.NewBufferString(`{"user_id":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		ChatID  int  `json:"chat_id"`
		Created bool `json:"created"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 10, resp.ChatID)
	assert.False(t, resp.Created)
	chatRepo.AssertExpectations(t)
}

func TestStartChatWithSelf(t *testing.T) {
	handler := newTestHandler(new(mocks.ChatRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.ReceiptRepositoryMock))
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/chats/start", bytes.NewBufferString(`{"user_id":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartChatInvalidBody(t *testing.T) {
	handler := newTestHandler(new(mocks.ChatRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.ReceiptRepositoryMock))
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/chats/start", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteChatSuccess(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := newTestHandler(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.ReceiptRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("GetChat", mock.Anything, 5).Return(models.Chat{ID: 5, User1ID: 1, User2ID: 2}, nil).Once()
	chatRepo.On("SoftDeleteChat", mock.Anything, 5).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/chats/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	chatRepo.AssertExpectations(t)
}

func TestDeleteChatNotParticipant(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := newTestHandler(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.ReceiptRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("GetChat", mock.Anything, 5).Return(models.Chat{ID: 5, User1ID: 2, User2ID: 3}, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/chats/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	chatRepo.AssertExpectations(t)
}
