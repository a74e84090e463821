package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kindra/kindra-api/internal/middleware"
	"github.com/kindra/kindra-api/internal/pkg/errorhandler"
	"github.com/kindra/kindra-api/internal/pkg/response"
	"github.com/kindra/kindra-api/internal/pkg/validator"
)

// Handler handles messaging HTTP requests
type Handler struct {
	service     *Service
	rateLimiter *RateLimiter
}

// RateLimiter caps message sends per profile
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  30,          // 30 messages
		window: time.Minute, // per minute
	}
}

// Allow checks if the profile can send a message
func (rl *RateLimiter) Allow(profileID uuid.UUID) bool {
	if rl.redis == nil {
		return true // No Redis, allow all
	}

	key := fmt.Sprintf("ratelimit:messages:%s", profileID)
	ctx := context.Background()

	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		return true // Fail open
	}

	if count == 1 {
		rl.redis.Expire(ctx, key, rl.window)
	}

	return count <= int64(rl.limit)
}

// NewHandler creates messaging handler
func NewHandler(service *Service, redisClient *redis.Client) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: NewRateLimiter(redisClient),
	}
}

// SendMessage handles POST /messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())

	if !h.rateLimiter.Allow(profileID) {
		response.Error(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many messages, please slow down")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ValidationError(w, fields)
		return
	}

	msg, conv, err := h.service.SendMessage(r.Context(), profileID, req.RecipientID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, ErrSelfConversation):
			response.BadRequest(w, "Cannot message yourself")
		case errors.Is(err, ErrEmptyMessage):
			response.BadRequest(w, "Message content must not be empty")
		case errors.Is(err, ErrMessageNotAllowed):
			response.Forbidden(w, "You cannot send a message in this conversation")
		default:
			errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "SEND_FAILED", "Failed to send message", err)
		}
		return
	}

	response.Created(w, map[string]interface{}{
		"message":             MessageViewFromEntity(msg, nil, profileID),
		"conversation_id":     conv.ID,
		"conversation_status": conv.Status,
	})
}

// ListConversations handles GET /conversations
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())

	conversations, err := h.service.ListConversations(r.Context(), profileID)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "LIST_FAILED", "Failed to list conversations", err)
		return
	}

	response.OK(w, conversations)
}

// ListMessages handles GET /conversations/{id}/messages
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid conversation ID")
		return
	}

	profileID := middleware.GetProfileID(r.Context())
	messages, err := h.service.ListMessages(r.Context(), conversationID, profileID)
	if err != nil {
		switch {
		case errors.Is(err, ErrConversationNotFound):
			response.NotFound(w, "Conversation not found")
		case errors.Is(err, ErrNotParticipant):
			response.Forbidden(w, "You are not a participant of this conversation")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, messages)
}

// MarkRead handles POST /conversations/{id}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid conversation ID")
		return
	}

	profileID := middleware.GetProfileID(r.Context())
	if err := h.service.MarkRead(r.Context(), conversationID, profileID); err != nil {
		switch {
		case errors.Is(err, ErrConversationNotFound):
			response.NotFound(w, "Conversation not found")
		case errors.Is(err, ErrNotParticipant):
			response.Forbidden(w, "You are not a participant of this conversation")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]string{"status": "ok"})
}
