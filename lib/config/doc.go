// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for RHSS binaries.
//
// Configuration is entirely optional: CLI flags are the primary
// interface (see cmd/rhss and cmd/rhss-migrate), and a config file is
// loaded only when --config is given. There is no environment-variable
// fallback and no automatic discovery (no ~/.config search) — this
// keeps behavior deterministic and auditable. Values present in the
// file seed the defaults; any flag explicitly set on the command line
// overrides the corresponding config value.
//
// Key exports:
//
//   - [Config] -- the threshold, force, hidden-storage, and mode defaults
//   - [Default] -- returns a Config with RHSS's built-in defaults
//   - [LoadFile] -- the one entry point for loading from a path
//
// This package depends on no other RHSS packages.
package config
