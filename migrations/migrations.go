// Package migrations embeds the SurrealQL schema files.
package migrations

import "embed"

// Files holds every schema migration, applied in name order.
//
//go:embed *.surql
var Files embed.FS
