//go:build purego || !cgo_sqlite
// +build purego !cgo_sqlite

package storage

// This file is compiled by default and with the purego tag. It uses the
// pure Go SQLite driver so the binary builds without a C toolchain.
//
// Build command:
//   CGO_ENABLED=0 go build -tags "purego" ./...
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
