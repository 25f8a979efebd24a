package migrations

import "embed"

// The migration SQL ships inside the binary so the cmd entrypoints can
// bootstrap a fresh database with no files on disk.

// PostgresFS holds the relational schema migrations.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the columnar schema migrations.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
