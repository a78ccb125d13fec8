package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// SetTyping records a typing signal for the caller. active=true is a
// heartbeat that clients repeat while the user keeps typing;
// active=false clears the indicator immediately. A stopped heartbeat
// expires on its own.
func (h *ChatHandler) SetTyping(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	member, err := h.chatRepo.IsParticipant(c.Request.Context(), chatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return
	}

	h.presence.Set(chatID, userID, *req.Active)
	h.hub.BroadcastTyping(chatID, userID, *req.Active)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetTyping returns who is currently typing in the chat, excluding
// the caller. Expired signals are filtered out at read time.
func (h *ChatHandler) GetTyping(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	userID := c.GetInt("userID")
	member, err := h.chatRepo.IsParticipant(c.Request.Context(), chatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return
	}

	typing := make([]int, 0)
	for _, id := range h.presence.Active(chatID) {
		if id != userID {
			typing = append(typing, id)
		}
	}

	c.JSON(http.StatusOK, gin.H{"typing_user_ids": typing})
}
