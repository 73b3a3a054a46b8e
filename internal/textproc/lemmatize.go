package textproc

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

//go:embed lemmas.txt
var defaultLemmas string

// Dictionary is a noun lemma index plus irregular-form exceptions.
type Dictionary struct {
	lemmas     map[string]struct{}
	exceptions map[string][]string
}

// Noun suffix detachment rules, tried in order.
var nounSuffixes = [][2]string{
	{"s", ""},
	{"ses", "s"},
	{"ves", "f"},
	{"xes", "x"},
	{"zes", "z"},
	{"ches", "ch"},
	{"shes", "sh"},
	{"men", "man"},
	{"ies", "y"},
}

var (
	defaultOnce sync.Once
	defaultDict *Dictionary
)

// DefaultDictionary returns the embedded dictionary, parsed once.
func DefaultDictionary() *Dictionary {
	defaultOnce.Do(func() {
		d, err := ParseDictionary(strings.NewReader(defaultLemmas))
		if err != nil {
			panic(fmt.Sprintf("textproc: embedded lemmas: %v", err))
		}
		defaultDict = d
	})
	return defaultDict
}

// LoadDictionary reads a dictionary file. See ParseDictionary for the format.
func LoadDictionary(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lemmas: %w", err)
	}
	defer f.Close()
	return ParseDictionary(f)
}

// ParseDictionary reads one entry per line. A line with a single word adds a
// lemma; a line "inflected lemma [lemma...]" adds an exception and its lemmas.
// Blank lines and lines starting with # are ignored.
func ParseDictionary(r io.Reader) (*Dictionary, error) {
	d := &Dictionary{
		lemmas:     make(map[string]struct{}),
		exceptions: make(map[string][]string),
	}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) == 1 {
			d.lemmas[fields[0]] = struct{}{}
			continue
		}
		d.exceptions[fields[0]] = append(d.exceptions[fields[0]], fields[1:]...)
		for _, l := range fields[1:] {
			d.lemmas[l] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lemmas line %d: %w", line, err)
	}
	return d, nil
}

// Len returns the number of lemmas.
func (d *Dictionary) Len() int { return len(d.lemmas) }

// Lemmatize returns the shortest dictionary form of word as a noun, or word
// itself when no form is known. Irregular exceptions win over suffix rules.
func (d *Dictionary) Lemmatize(word string) string {
	var forms []string
	if exc, ok := d.exceptions[word]; ok {
		forms = append([]string{word}, exc...)
	} else {
		forms = []string{word}
		for _, s := range nounSuffixes {
			if strings.HasSuffix(word, s[0]) {
				forms = append(forms, word[:len(word)-len(s[0])]+s[1])
			}
		}
	}

	best := ""
	seen := make(map[string]bool, len(forms))
	for _, f := range forms {
		if seen[f] {
			continue
		}
		seen[f] = true
		if _, ok := d.lemmas[f]; !ok {
			continue
		}
		if best == "" || len(f) < len(best) {
			best = f
		}
	}
	if best == "" {
		return word
	}
	return best
}
