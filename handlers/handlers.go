package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"auth-demo/database"
	"auth-demo/models"

	"github.com/gorilla/mux"
	"github.com/umakantv/go-utils/errs"
	"go.uber.org/zap"
)

const (
	userKeyPrefix = "user:"
	userCacheTTL  = 10 * time.Minute
)

// UserReader loads stored users.
type UserReader interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
}

// Cache is the key/value surface the handlers use.
type Cache interface {
	Get(key string) (interface{}, error)
	Set(key string, value interface{}, ttl time.Duration) error
}

// UserHandler exposes stored users to operators.
type UserHandler struct {
	users UserReader
	cache Cache
}

// NewUserHandler creates a new user handler
func NewUserHandler(users UserReader, cache Cache) *UserHandler {
	return &UserHandler{
		users: users,
		cache: cache,
	}
}

// GetUser handles GET /users/{id} - get user by ID
func (h *UserHandler) GetUser(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]

	id, err := strconv.Atoi(idStr)
	if err != nil {
		logRequest(ctx, "error", "Invalid user ID", zap.String("id", idStr))
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Invalid user ID"))
		return
	}

	logRequest(ctx, "info", "Getting user", zap.Int("user_id", id))

	cacheKey := userKeyPrefix + idStr
	if cached, err := h.cache.Get(cacheKey); err == nil {
		if body, ok := cachedBytes(cached); ok {
			logRequest(ctx, "debug", "Serving user from cache", zap.Int("user_id", id))
			w.Header().Set("Content-Type", "application/json")
			w.Write(body)
			return
		}
	}

	user, err := h.users.GetUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		logRequest(ctx, "info", "User not found", zap.Int("user_id", id))
		writeJSON(w, http.StatusNotFound, errs.NewNotFoundError("User not found"))
		return
	}
	if err != nil {
		logRequest(ctx, "error", "Failed to query user", zap.Error(err), zap.Int("user_id", id))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Database error"))
		return
	}

	response, err := json.Marshal(user)
	if err != nil {
		logRequest(ctx, "error", "Failed to encode user", zap.Error(err), zap.Int("user_id", id))
		writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Encoding error"))
		return
	}
	if err := h.cache.Set(cacheKey, string(response), userCacheTTL); err != nil {
		logRequest(ctx, "error", "Failed to cache user", zap.Error(err), zap.Int("user_id", id))
	}

	logRequest(ctx, "info", "User retrieved successfully", zap.Int("user_id", id))

	w.Header().Set("Content-Type", "application/json")
	w.Write(response)
}

// cachedBytes accepts whichever representation the cache backend hands back.
func cachedBytes(v interface{}) ([]byte, bool) {
	switch b := v.(type) {
	case []byte:
		return b, true
	case string:
		return []byte(b), true
	case map[string]interface{}:
		out, err := json.Marshal(b)
		return out, err == nil
	}
	return nil, false
}
