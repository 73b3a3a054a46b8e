package storage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pable/go-data-pipelines/internal/model"
)

// MessagesTable is the name of the cleaned dataset table.
const MessagesTable = "messages"

var messageColumns = []string{"id", "message", "original", "genre"}

// ErrMessagesSchema is returned when the messages table does not start with
// the fixed id, message, original, genre columns.
var ErrMessagesSchema = errors.New("storage: unexpected messages schema")

// SaveMessages replaces the messages table with t. The table is dropped and
// recreated with one INTEGER column per category, all in one transaction.
func (db *DB) SaveMessages(t *model.MessageTable) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DROP TABLE IF EXISTS " + quoteIdent(MessagesTable)); err != nil {
		return fmt.Errorf("drop messages: %w", err)
	}

	defs := []string{`"id" INTEGER`, `"message" TEXT`, `"original" TEXT`, `"genre" TEXT`}
	cols := append([]string(nil), messageColumns...)
	for _, name := range t.CategoryNames {
		defs = append(defs, quoteIdent(name)+" INTEGER")
		cols = append(cols, name)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(MessagesTable), strings.Join(defs, ", "))
	if _, err := tx.Exec(create); err != nil {
		return fmt.Errorf("create messages: %w", err)
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(MessagesTable), strings.Join(quoted, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	stmt, err := tx.Preparex(insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for _, r := range t.Rows {
		if len(r.Categories) != len(t.CategoryNames) {
			return fmt.Errorf("message %d: %d category values for %d columns", r.ID, len(r.Categories), len(t.CategoryNames))
		}
		args[0] = r.ID
		args[1] = r.Message
		args[2] = r.Original
		args[3] = r.Genre
		for j, v := range r.Categories {
			args[4+j] = v
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("insert message %d: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// LoadMessages reads the whole messages table. Columns after genre are taken
// as category columns, in table order.
func (db *DB) LoadMessages() (*model.MessageTable, error) {
	rows, err := db.conn.Queryx("SELECT * FROM " + quoteIdent(MessagesTable))
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(cols) < len(messageColumns) {
		return nil, fmt.Errorf("%w: columns %v", ErrMessagesSchema, cols)
	}
	for i, want := range messageColumns {
		if cols[i] != want {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrMessagesSchema, i, cols[i], want)
		}
	}

	t := &model.MessageTable{CategoryNames: append([]string(nil), cols[len(messageColumns):]...)}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m, err := messageFromValues(vals)
		if err != nil {
			return nil, err
		}
		t.Rows = append(t.Rows, m)
	}
	return t, rows.Err()
}

func messageFromValues(vals []any) (model.Message, error) {
	var m model.Message
	id, err := asInt(vals[0])
	if err != nil {
		return m, fmt.Errorf("id: %w", err)
	}
	m.ID = id
	m.Message = asString(vals[1])
	if vals[2] != nil {
		m.Original.String = asString(vals[2])
		m.Original.Valid = true
	}
	m.Genre = asString(vals[3])
	m.Categories = make([]int, len(vals)-len(messageColumns))
	for j := range m.Categories {
		v, err := asInt(vals[len(messageColumns)+j])
		if err != nil {
			return m, fmt.Errorf("message %d category %d: %w", m.ID, j, err)
		}
		m.Categories[j] = int(v)
	}
	return m, nil
}

func asInt(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case float64:
		return int64(x), nil
	case nil:
		return 0, nil
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	case string:
		return strconv.ParseInt(x, 10, 64)
	}
	return 0, fmt.Errorf("unexpected value %T", v)
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	}
	return fmt.Sprint(v)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
