// Package migrations embeds the goose migration files so the migrate
// binary carries its schema with it.
package migrations

import "embed"

//go:embed assets/*.sql
var FS embed.FS
