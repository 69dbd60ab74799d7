// Package ir provides the model snapshot types shared by every efsmcheck
// package: states, transitions, events, typed variables, guards, variable
// valuations, and diagnostics.
//
// This package contains type definitions and serialization only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Value is a sealed union (IntValue, BoolValue, EnumValue); no floats
//   - A Model is immutable once compiled
//   - All JSON tags use snake_case
//   - Canonical JSON (RFC 8785 ordering, NFC strings) for hashes and keys
package ir
