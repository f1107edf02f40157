// Package cli wires together the Cobra command tree for the critic binary.
//
// It defines the root command and all subcommands (analyze, serve, config,
// models, cache, rules, hook, version), binds flags, reads configuration,
// builds the analysis pipeline, and returns deterministic exit codes for CI
// gating.
package cli
