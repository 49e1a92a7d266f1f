// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and manages council configuration.
//
// # Configuration Precedence
//
// Settings are resolved in this order (later wins):
//   - Built-in defaults
//   - ~/.council/config.toml
//   - Environment variables (COUNCIL_*)
//   - Command-line flags, applied by the cli package
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := council.NewClient(cfg.BackendURL)
//
// Values can also be read and written with dot notation, which backs the
// "council config" command:
//
//	v, _ := cfg.Get("ui.glamour_style")
//	_ = cfg.Set("export.open_after_export", "true")
package config
