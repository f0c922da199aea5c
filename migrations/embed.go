// Package migrations embeds the versioned schema files for the SQL record stores.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
