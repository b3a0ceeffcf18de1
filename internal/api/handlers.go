// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/omar-ahmed42/newsfeed/internal/feed"
	"github.com/omar-ahmed42/newsfeed/internal/models"
)

// RequesterHeader carries the authenticated caller's user id. Upstream
// auth terminates before this service; the header is trusted here.
const RequesterHeader = "X-User-ID"

// Handler holds dependencies for HTTP request handlers.
type Handler struct {
	reader *feed.Reader
}

// NewHandler creates a handler backed by the given feed reader.
func NewHandler(reader *feed.Reader) *Handler {
	return &Handler{reader: reader}
}

// Newsfeed serves GET /api/v1/newsfeed.
//
// The requester comes from the X-User-ID header; the target feed from the
// user_id query parameter, defaulting to the requester's own feed. A feed
// is private to its owner, so any cross-user request is rejected with 403
// before touching the cache.
func (h *Handler) Newsfeed(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	requesterID, err := parseUserID(r.Header.Get(RequesterHeader))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Missing or invalid X-User-ID header", err)
		return
	}

	userID := requesterID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, err = parseUserID(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid user_id parameter", err)
			return
		}
	}

	page, err := h.reader.GetNewsfeed(r.Context(), requesterID, userID)
	if err != nil {
		if errors.Is(err, feed.ErrForbidden) {
			respondError(w, http.StatusForbidden, "FORBIDDEN", "A newsfeed is private to its owner", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "FEED_ERROR", "Failed to load newsfeed", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   page.Posts,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Partial:     page.Partial,
		},
	})
}

// Health serves GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   map[string]string{"status": "healthy"},
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
	})
}

func parseUserID(raw string) (models.UserID, error) {
	if raw == "" {
		return 0, errors.New("user id required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, errors.New("user id must be positive")
	}
	return models.UserID(id), nil
}
