package migrations

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ClickhouseDB executes one statement at a time; the native protocol has no
// multi-statement Exec.
type ClickhouseDB interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// RunClickhouseMigrations applies every embedded ClickHouse migration.
// ClickHouse has no transactional DDL, so statements must be idempotent.
func RunClickhouseMigrations(ctx context.Context, db ClickhouseDB) error {
	migrations, err := Load(Clickhouse)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		stmts, err := Statements(m.SQL)
		if err != nil {
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		for _, stmt := range stmts {
			if err := db.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", m.Name, err)
			}
		}
	}
	return nil
}

var errQuotedSemicolon = errors.New("semicolon inside a string literal")

// Statements splits a migration on semicolons after dropping "--" comment
// lines. A semicolon inside a quoted literal is rejected rather than split.
func Statements(sql string) ([]string, error) {
	var lines []string
	for _, line := range strings.Split(sql, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}
	body := strings.Join(lines, "\n")

	var (
		stmts   []string
		quoted  bool
		current strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			stmts = append(stmts, s)
		}
		current.Reset()
	}
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case ch == '\'' && quoted && i+1 < len(body) && body[i+1] == '\'':
			current.WriteString("''")
			i++
			continue
		case ch == '\'':
			quoted = !quoted
		case ch == ';' && quoted:
			return nil, errQuotedSemicolon
		case ch == ';':
			flush()
			continue
		}
		current.WriteByte(ch)
	}
	flush()
	return stmts, nil
}
