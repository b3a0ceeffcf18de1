// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package feed

import "errors"

// ErrForbidden is returned when a requester asks for a feed they do not own.
// A feed is private to its owner; there is no friends-may-read path.
var ErrForbidden = errors.New("newsfeed is private to its owner")
