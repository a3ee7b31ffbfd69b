package migrations

import "embed"

// Files holds the users and cycle_records schema. db.OpenSQLite applies
// each file once, ordered by its numeric prefix.
//
//go:embed *.sql
var Files embed.FS
