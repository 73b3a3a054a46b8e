package storage

import (
	"fmt"
)

// QueryRaw runs an arbitrary query and returns its column names and every
// row rendered as strings. NULL renders as "NULL".
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Queryx(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, nil, fmt.Errorf("scan: %w", err)
		}
		rec := make([]string, len(vals))
		for i, v := range vals {
			if v == nil {
				rec[i] = "NULL"
				continue
			}
			rec[i] = asString(v)
		}
		out = append(out, rec)
	}
	return cols, out, rows.Err()
}
