// Package ui holds the HTML templates and static files of the team builder.
package ui

import "embed"

//go:embed templates static
var Files embed.FS
