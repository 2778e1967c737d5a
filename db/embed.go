// Package db embeds the database schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for every table the application uses. Statements are
// idempotent so the schema can be re-applied on each boot.
//
//go:embed migrations/001_schema.sql
var Schema string
