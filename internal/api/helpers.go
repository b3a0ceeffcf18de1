// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/omar-ahmed42/newsfeed/internal/logging"
	"github.com/omar-ahmed42/newsfeed/internal/models"
)

func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	var details interface{}
	if err != nil {
		details = err.Error()
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
