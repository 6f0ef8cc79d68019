// Package cookingtimer holds the assets compiled into the cooktimer binary.
package cookingtimer

import "embed"

// Assets contains templates/ and static/ as they were at build time.
//
//go:embed templates static
var Assets embed.FS
