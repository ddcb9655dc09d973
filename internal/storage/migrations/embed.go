// Package migrations holds the embedded schema of the trade cache and the
// result store and applies it in file name order.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed postgres/*.sql clickhouse/*.sql
var files embed.FS

// Dialect names a directory of embedded migrations.
type Dialect string

const (
	Postgres   Dialect = "postgres"
	Clickhouse Dialect = "clickhouse"
)

// File is one embedded migration.
type File struct {
	Name string // file name, also the applied version
	SQL  string
}

// Load returns the non-empty migrations of d sorted by name.
func Load(d Dialect) ([]File, error) {
	names, err := fs.Glob(files, path.Join(string(d), "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("list %s migrations: %w", d, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no %s migrations embedded", d)
	}
	sort.Strings(names)

	out := make([]File, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(files, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		out = append(out, File{Name: path.Base(name), SQL: string(data)})
	}
	return out, nil
}
