// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version carries the build identity of the mediasite binary.
package version

import "fmt"

// Info is injected into main through -ldflags "-X main.version=...".
type Info struct {
	Version   string
	GitCommit string
	BuildTime string
}

// Default placeholders of an unstamped build.
const (
	DevVersion = "dev"
	Unknown    = "unknown"
)

// Normalize fills blank fields with placeholders.
func (i Info) Normalize() Info {
	if i.Version == "" {
		i.Version = DevVersion
	}
	if i.GitCommit == "" {
		i.GitCommit = Unknown
	}
	if i.BuildTime == "" {
		i.BuildTime = Unknown
	}
	return i
}

// String formats the line printed by -version.
func (i Info) String() string {
	n := i.Normalize()
	return fmt.Sprintf("mediasite %s (commit %s, built %s)", n.Version, n.GitCommit, n.BuildTime)
}
