// Package config loads and merges critic configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (CRITIC_PROVIDER, CRITIC_MODEL, CRITIC_FAIL_ON, etc.)
//  3. Config file ($XDG_CONFIG_HOME/critic/config.json, or $CRITIC_CONFIG)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged and validated [Config], [Init] to write a
// default config file, and [Set] to update a single key in the config file.
package config
