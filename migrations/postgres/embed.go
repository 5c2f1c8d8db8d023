// Package migrations embeds the SQL migration files for the directory schema.
package migrations

import "embed"

// FS contains the versioned schema migrations, applied in filename order.
//
//go:embed *.sql
var FS embed.FS
