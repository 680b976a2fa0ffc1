// Package migrations embeds the SQL schema files.
package migrations

import "embed"

// FS holds the ordered *.sql migrations.
//
//go:embed *.sql
var FS embed.FS
