// Package categories splits the compact category string of the disaster
// dataset ("related-1;request-0;offer-0;...") into binary columns.
package categories

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Separator joins the tokens of one category string.
const Separator = ";"

// suffixWidth is the width of the "-X" value suffix stripped from column names.
const suffixWidth = 2

var (
	// ErrEmpty is returned when there are no rows to take column names from.
	ErrEmpty = errors.New("categories: no rows")
	// ErrArityMismatch is returned when a row has a different token count than the first row.
	ErrArityMismatch = errors.New("categories: token count differs from first row")
	// ErrInvalidValue is returned when a token's value is not a digit, or is
	// rejected by the normalisation policy.
	ErrInvalidValue = errors.New("categories: invalid value")
)

// Policy decides what happens to a parsed value outside {0, 1}.
type Policy int

const (
	// CoerceToOne forces any value other than 0 or 1 to 1. The source data
	// carries a handful of "related-2" cells; this keeps them as positives.
	CoerceToOne Policy = iota
	// Reject fails the row instead.
	Reject
)

func (p Policy) String() string {
	switch p {
	case CoerceToOne:
		return "coerce-to-one"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses the String form of a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "coerce-to-one":
		return CoerceToOne, nil
	case "reject":
		return Reject, nil
	default:
		return 0, fmt.Errorf("unknown category policy %q", s)
	}
}

// Normalize applies the policy to one parsed value.
func (p Policy) Normalize(v int) (int, error) {
	if v == 0 || v == 1 {
		return v, nil
	}
	if p == Reject {
		return 0, fmt.Errorf("%w: %d outside {0,1}", ErrInvalidValue, v)
	}
	return 1, nil
}

// Encoded is the column-expanded form of a category string column.
type Encoded struct {
	Names []string
	// Values holds one row per input cell, one value per name.
	Values [][]int
}

// ColumnNames derives column names from a category string by stripping the
// two-character value suffix from each token.
func ColumnNames(cell string) []string {
	tokens := strings.Split(cell, Separator)
	names := make([]string, len(tokens))
	for i, tok := range tokens {
		if len(tok) >= suffixWidth {
			names[i] = tok[:len(tok)-suffixWidth]
		}
	}
	return names
}

// ParseValue returns the integer value of a token's last character.
func ParseValue(token string) (int, error) {
	if token == "" {
		return 0, fmt.Errorf("%w: empty token", ErrInvalidValue)
	}
	v, err := strconv.Atoi(token[len(token)-1:])
	if err != nil {
		return 0, fmt.Errorf("%w: token %q", ErrInvalidValue, token)
	}
	return v, nil
}

// Encode splits every cell into binary values. Column names come from the
// first cell only.
func Encode(cells []string, policy Policy) (*Encoded, error) {
	if len(cells) == 0 {
		return nil, ErrEmpty
	}
	enc := &Encoded{
		Names:  ColumnNames(cells[0]),
		Values: make([][]int, len(cells)),
	}
	for i, cell := range cells {
		row, err := encodeCell(cell, len(enc.Names), policy)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		enc.Values[i] = row
	}
	return enc, nil
}

func encodeCell(cell string, width int, policy Policy) ([]int, error) {
	tokens := strings.Split(cell, Separator)
	if len(tokens) != width {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrArityMismatch, len(tokens), width)
	}
	row := make([]int, width)
	for j, tok := range tokens {
		v, err := ParseValue(tok)
		if err != nil {
			return nil, err
		}
		if row[j], err = policy.Normalize(v); err != nil {
			return nil, fmt.Errorf("token %q: %w", tok, err)
		}
	}
	return row, nil
}
