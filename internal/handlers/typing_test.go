package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
)

func TestSetTypingAndGetTyping(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := newTestHandler(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.ReceiptRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil)

	// The other participant starts typing.
	handler.presence.Set(5, 2, true)

	req := httptest.NewRequest(http.MethodGet, "/chats/5/typing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		TypingUserIDs []int `json:"typing_user_ids"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []int{2}, resp.TypingUserIDs)
}

func TestGetTypingExcludesCaller(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := newTestHandler(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.ReceiptRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil)

	// Both participants typing; the caller (user 1) must not see itself.
	handler.presence.Set(5, 1, true)
	handler.presence.Set(5, 2, true)

	req := httptest.NewRequest(http.MethodGet, "/chats/5/typing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		TypingUserIDs []int `json:"typing_user_ids"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []int{2}, resp.TypingUserIDs)
}

func TestSetTypingStoresSignal(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := newTestHandler(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.ReceiptRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil)

	req := httptest.NewRequest(http.MethodPost, "/chats/5/typing", bytes.NewBufferString(`{"active":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{1}, handler.presence.Active(5))
}

func TestSetTypingInactiveClearsSignal(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := newTestHandler(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.ReceiptRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil)
	handler.presence.Set(5, 1, true)

	req := httptest.NewRequest(http.MethodPost, "/chats/5/typing", bytes.NewBufferString(`{"active":false}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, handler.presence.Active(5))
}

func TestSetTypingNotParticipant(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := newTestHandler(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.ReceiptRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("IsParticipant", mock.Anything, 5, 1).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/5/typing", bytes.NewBufferString(`{"active":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, handler.presence.Active(5))
	chatRepo.AssertExpectations(t)
}
