// Package etl loads the disaster-response messages and categories CSVs,
// merges them on id and cleans the result into a model.MessageTable.
package etl

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a CSV header lacks a required column.
var ErrMissingColumn = errors.New("etl: missing column")

// RawMessage is one row of the messages CSV.
type RawMessage struct {
	ID       int64
	Message  string
	Original sql.NullString
	Genre    string
}

// RawCategories is one row of the categories CSV.
type RawCategories struct {
	ID         int64
	Categories string
}

// Merged is an inner-join row of messages and categories.
type Merged struct {
	RawMessage
	Categories string
}

// Load reads both CSV files and merges them on id.
func Load(messagesPath, categoriesPath string) ([]Merged, error) {
	mf, err := os.Open(messagesPath)
	if err != nil {
		return nil, fmt.Errorf("open messages: %w", err)
	}
	defer mf.Close()
	messages, err := ReadMessages(mf)
	if err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}

	cf, err := os.Open(categoriesPath)
	if err != nil {
		return nil, fmt.Errorf("open categories: %w", err)
	}
	defer cf.Close()
	cats, err := ReadCategories(cf)
	if err != nil {
		return nil, fmt.Errorf("read categories: %w", err)
	}

	return Merge(messages, cats), nil
}

// ReadMessages parses a messages CSV with header columns id, message, original, genre.
func ReadMessages(r io.Reader) ([]RawMessage, error) {
	header, records, err := readAll(r)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(header, "id", "message", "original", "genre")
	if err != nil {
		return nil, err
	}
	out := make([]RawMessage, 0, len(records))
	for i, rec := range records {
		id, err := parseID(rec[cols["id"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		original := rec[cols["original"]]
		out = append(out, RawMessage{
			ID:       id,
			Message:  rec[cols["message"]],
			Original: sql.NullString{String: original, Valid: original != ""},
			Genre:    rec[cols["genre"]],
		})
	}
	return out, nil
}

// ReadCategories parses a categories CSV with header columns id, categories.
func ReadCategories(r io.Reader) ([]RawCategories, error) {
	header, records, err := readAll(r)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(header, "id", "categories")
	if err != nil {
		return nil, err
	}
	out := make([]RawCategories, 0, len(records))
	for i, rec := range records {
		id, err := parseID(rec[cols["id"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		out = append(out, RawCategories{ID: id, Categories: rec[cols["categories"]]})
	}
	return out, nil
}

// Merge inner-joins messages and categories on id. Output follows message
// order; a message matching several category rows yields one row per match,
// in category file order.
func Merge(messages []RawMessage, cats []RawCategories) []Merged {
	byID := make(map[int64][]string, len(cats))
	for _, c := range cats {
		byID[c.ID] = append(byID[c.ID], c.Categories)
	}
	var out []Merged
	for _, m := range messages {
		for _, c := range byID[m.ID] {
			out = append(out, Merged{RawMessage: m, Categories: c})
		}
	}
	return out
}

func readAll(r io.Reader) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	return records[0], records[1:], nil
}

func columnIndex(header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}
	return idx, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse id %q: %w", s, err)
	}
	return id, nil
}
