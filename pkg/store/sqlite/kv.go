package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/bloomwell/bloom/pkg/model"
)

// Get returns the value stored under key.
func (d *Database) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM journal_kv WHERE key = ?;`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set upserts key, replacing any previous value.
func (d *Database) Set(ctx context.Context, key, value string) error {
	_, err := d.db.ExecContext(ctx, `
        INSERT INTO journal_kv(key, value, updated_at)
        VALUES(?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at;
    `, key, value)
	return err
}

// Remove deletes key. Missing keys are not an error.
func (d *Database) Remove(ctx context.Context, key string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM journal_kv WHERE key = ?;`, key)
	return err
}

// Keys lists keys starting with prefix, in lexical order.
func (d *Database) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
        SELECT key FROM journal_kv
        WHERE key LIKE ? ESCAPE '\'
        ORDER BY key;
    `, escapeLike(prefix)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

var _ model.KeyValueStore = (*Database)(nil)
