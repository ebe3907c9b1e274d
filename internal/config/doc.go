// Package config loads, validates, and normalizes Guardian configuration.
//
// Configuration comes from a TOML file resolved from an explicit path, the
// default ~/.config/guardian/config.toml location, or a project-local
// guardian.toml. Defaults cover every key so a missing file still produces a
// usable config. Paths are expanded and made absolute during normalization,
// and the Gemini API key falls back to the GOOGLE_API_KEY environment
// variable.
package config
