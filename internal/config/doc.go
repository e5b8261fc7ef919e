// Package config loads and validates the claimsight service configuration.
// Values come from an optional YAML file overridden by CLAIMSIGHT_* prefixed
// environment variables; struct-tag defaults fill the rest. Validation runs
// once at load, so a running service never sees a half-formed config.
package config
