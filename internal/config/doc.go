// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for ragchat.
//
// Configuration lives in TOML at ~/.ragchat/config.toml with sensible
// defaults, environment variable overrides, and validation. A Watcher
// can follow the file and deliver reloaded configurations while the
// program runs.
package config
