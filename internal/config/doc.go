// Package config loads, validates, and normalizes appforge configuration.
//
// Configuration lives in a TOML file (default ~/.config/appforge/config.toml)
// layered over repository defaults, with a small set of environment overrides
// (PORT, APPFORGE_ALLOWED_ORIGIN, APPFORGE_MAX_UPLOAD_MB, APPFORGE_DATA_DIR)
// applied after the file parse. All path fields are tilde-expanded and
// absolute after Load returns.
package config
