// Package migrations embeds the goose SQL migrations for the Postgres
// backend (order matters: 001, 002, ...).
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
