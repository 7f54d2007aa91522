// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads hexlog's runtime configuration.
//
// Configuration has three layers, later ones winning:
//
//  1. [Default] values.
//  2. An optional file named by HEXLOG_CONFIG. There is no discovery:
//     without the variable no file is read. Files ending in .json or
//     .jsonc are JSON with comments and trailing commas; anything else
//     is YAML.
//  3. HEXLOG_* environment variables, one per field. A variable that
//     is set but empty still overrides, so a label can be made empty.
//
// The result is validated once and never changes while hexlog runs.
//
// This package depends on no other hexlog packages.
package config
