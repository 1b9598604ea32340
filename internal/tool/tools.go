//go:build tools
// +build tools

// Package tool declares this module's build-time tool dependencies, so
// `go mod tidy` keeps them pinned even though nothing imports them at
// runtime.
package tool

import (
	_ "golang.org/x/lint/golint"
	_ "golang.org/x/tools/cmd/stringer"
)
