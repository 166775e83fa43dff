// Package migrations embeds the service's schema.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
