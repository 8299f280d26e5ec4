// Package config loads the client configuration from TOML.
//
// # Configuration Discovery
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/bitdeck/config.toml
//  3. If the file doesn't exist, use defaults
//  4. Blank fields fall back to their defaults
//
// # TOML Format
//
//	engine_url      = "http://127.0.0.1:32145"
//	poll_interval   = "8s"
//	reconnect_delay = "2s"
//	request_timeout = ""        # unset: requests are bounded only by their context
//	log_file        = "~/.local/state/bitdeck/bitdeck.log"
//	log_level       = "info"
//	metrics_addr    = ""        # e.g. "127.0.0.1:9464" to serve /metrics
//
// Durations use Go syntax ("500ms", "1m30s"). A duration that fails to parse
// is an error; zero or negative values select the default.
//
// Missing config files are not an error, so the client works against a
// local engine without any setup. Command-line flags override these values.
package config
