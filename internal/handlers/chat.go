package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rentitout/backend/internal/messaging"
	"github.com/rentitout/backend/internal/middleware"
	"github.com/rentitout/backend/internal/models"
	apperrors "github.com/rentitout/backend/pkg/errors"
	"github.com/rentitout/backend/pkg/logger"
)

// chatError maps messaging errors onto HTTP responses.
func chatError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, messaging.ErrNotAuthenticated):
		_ = c.Error(apperrors.Unauthorized("Sign in to use chat"))
	case errors.Is(err, messaging.ErrListingNotFound):
		_ = c.Error(apperrors.NotFound("Listing not found"))
	case errors.Is(err, messaging.ErrMessageTooLong):
		_ = c.Error(apperrors.BadRequest(err.Error()))
	case errors.Is(err, messaging.ErrClientIDConflict):
		_ = c.Error(apperrors.Conflict("clientMessageId was already used for another listing"))
	case messaging.IsStoreError(err):
		logger.Error().Err(err).Str("user_id", middleware.CurrentUserID(c)).Msg(fallback)
		_ = c.Error(apperrors.Unavailable("Chat is temporarily unavailable, please retry"))
	default:
		_ = c.Error(apperrors.Internal(fallback))
		logger.Error().Err(err).Str("user_id", middleware.CurrentUserID(c)).Msg(fallback)
	}
}

func listingParam(c *gin.Context) (*models.Product, bool) {
	id, err := strconv.ParseUint(c.Param("listingId"), 10, 64)
	if err != nil || id == 0 {
		_ = c.Error(apperrors.BadRequest("Invalid listing id"))
		return nil, false
	}
	listing, err := Messaging.ResolveListing(c.Request.Context(), uint(id))
	if err != nil {
		chatError(c, err, "Failed to load listing")
		return nil, false
	}
	return listing, true
}

// GetConversations returns one entry per (listing, counterpart) the user has
// talked about, most recent first.
func GetConversations(c *gin.Context) {
	convs, err := Messaging.Conversations(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		chatError(c, err, "Failed to fetch conversations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// GetConversationListings returns the listings the user has messages about.
func GetConversationListings(c *gin.Context) {
	listings, err := Messaging.ListConversations(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		chatError(c, err, "Failed to fetch conversations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

// GetThread returns the conversation about one listing. Owners pass
// ?counterpartId= to pick the renter.
func GetThread(c *gin.Context) {
	listing, ok := listingParam(c)
	if !ok {
		return
	}

	msgs, err := Messaging.LoadThread(c.Request.Context(), middleware.CurrentUserID(c), listing,
		messaging.WithCounterpart(c.Query("counterpartId")))
	if err != nil {
		chatError(c, err, "Failed to fetch messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing": listing, "messages": msgs})
}

type SendMessageInput struct {
	Content         string `json:"content"`
	CounterpartID   string `json:"counterpartId"`
	ClientMessageID string `json:"clientMessageId"`
}

// SendMessage posts a message about a listing. A blank body is accepted and
// ignored with 204.
func SendMessage(c *gin.Context) {
	listing, ok := listingParam(c)
	if !ok {
		return
	}

	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(apperrors.ErrInvalidRequest)
		return
	}

	opts := []messaging.Option{messaging.WithCounterpart(input.CounterpartID)}
	if input.ClientMessageID != "" {
		opts = append(opts, messaging.WithClientMessageID(input.ClientMessageID))
	}

	msg, err := Messaging.Send(c.Request.Context(), middleware.CurrentUserID(c), listing, input.Content, opts...)
	if err != nil {
		chatError(c, err, "Failed to send message")
		return
	}
	if msg == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}
