// Package migrations embeds the SQL schema so the migrate command and the
// test helpers apply the same files.
package migrations

import "embed"

// FS holds every *.sql migration in golang-migrate's naming scheme.
//
//go:embed *.sql
var FS embed.FS
