// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package answer provides the HTTP client for the remote answering
// service.
//
// One question is one streamed POST: the request carries the question
// text and the session's backend conversation id (null for a fresh
// conversation); the response body is the line protocol decoded by
// package wire. The client does not retry, rate-limit, or authenticate
// against the service; those concerns belong to the service or its
// proxy.
package answer
