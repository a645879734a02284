// Package config loads, validates, and normalizes the TOML configuration for
// the docket pipeline. Defaults live in defaults.go, path expansion and
// cleanup in normalize.go, and usability checks in validate.go.
package config
