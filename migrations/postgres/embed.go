// Package postgres embeds the SQL migration files for the projects database.
package postgres

import "embed"

// FS contains the projects schema migrations.
//
//go:embed projects/*.sql
var FS embed.FS

// Dir is the directory within FS where migrations live.
const Dir = "projects"
