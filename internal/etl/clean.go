package etl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pable/go-data-pipelines/internal/categories"
	"github.com/pable/go-data-pipelines/internal/model"
)

// ErrDuplicates is returned if cleaning leaves duplicate rows or ids behind.
var ErrDuplicates = errors.New("etl: duplicates after cleaning")

// Clean expands the categories column, removes exact duplicate rows (keeping
// the first), then removes every row whose id still occurs more than once.
func Clean(rows []Merged, policy categories.Policy) (*model.MessageTable, error) {
	cells := make([]string, len(rows))
	for i, r := range rows {
		cells[i] = r.Categories
	}
	enc, err := categories.Encode(cells, policy)
	if err != nil {
		return nil, fmt.Errorf("encode categories: %w", err)
	}

	messages := make([]model.Message, len(rows))
	for i, r := range rows {
		messages[i] = model.Message{
			ID:         r.ID,
			Message:    r.Message,
			Original:   r.Original,
			Genre:      r.Genre,
			Categories: enc.Values[i],
		}
	}

	messages = dropDuplicateRows(messages)
	messages = dropDuplicateIDs(messages)

	if err := checkUnique(messages); err != nil {
		return nil, err
	}
	return &model.MessageTable{CategoryNames: enc.Names, Rows: messages}, nil
}

// dropDuplicateRows keeps the first of each group of identical rows.
func dropDuplicateRows(in []model.Message) []model.Message {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, m := range in {
		k := rowKey(m)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, m)
	}
	return out
}

// dropDuplicateIDs removes all rows of any id that occurs more than once.
func dropDuplicateIDs(in []model.Message) []model.Message {
	counts := make(map[int64]int, len(in))
	for _, m := range in {
		counts[m.ID]++
	}
	out := in[:0:0]
	for _, m := range in {
		if counts[m.ID] == 1 {
			out = append(out, m)
		}
	}
	return out
}

func checkUnique(rows []model.Message) error {
	ids := make(map[int64]struct{}, len(rows))
	keys := make(map[string]struct{}, len(rows))
	for _, m := range rows {
		if _, ok := ids[m.ID]; ok {
			return fmt.Errorf("%w: id %d", ErrDuplicates, m.ID)
		}
		ids[m.ID] = struct{}{}
		k := rowKey(m)
		if _, ok := keys[k]; ok {
			return fmt.Errorf("%w: row with id %d", ErrDuplicates, m.ID)
		}
		keys[k] = struct{}{}
	}
	return nil
}

// rowKey serialises every column of a row for equality checks.
func rowKey(m model.Message) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(m.ID, 10))
	b.WriteByte(0)
	b.WriteString(m.Message)
	b.WriteByte(0)
	if m.Original.Valid {
		b.WriteByte('+')
		b.WriteString(m.Original.String)
	}
	b.WriteByte(0)
	b.WriteString(m.Genre)
	b.WriteByte(0)
	for _, v := range m.Categories {
		b.WriteString(strconv.Itoa(v))
		b.WriteByte(',')
	}
	return b.String()
}
