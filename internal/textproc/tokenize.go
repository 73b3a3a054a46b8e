// Package textproc turns free-text messages into normalised tokens: Penn
// Treebank style word splitting followed by noun lemmatisation.
package textproc

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

func rules(pairs ...string) []rule {
	out := make([]rule, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, rule{re: regexp.MustCompile(pairs[i]), repl: pairs[i+1]})
	}
	return out
}

var (
	startingQuotes = rules(
		`^"`, "``",
		"(``)", " ${1} ",
		`([ (\[{<])("|'')`, "${1} `` ",
	)

	punctuation = rules(
		`([^.])(\.)([\]\)}>"']*)\s*$`, "${1} ${2} ${3} ",
		`([:,])([^\d])`, " ${1} ${2}",
		`([:,])$`, " ${1} ",
		`\.{2,}`, " ${0} ",
		`[;@#$%&]`, " ${0} ",
		`([^.])(\.)([\]\)}>"']*)\s*$`, "${1} ${2} ${3} ",
		`[?!]`, " ${0} ",
		`([^'])' `, "${1} ' ",
		`[*]`, " ${0} ",
	)

	parensBrackets = rule{re: regexp.MustCompile(`[\]\[\(\)\{\}<>]`), repl: " ${0} "}
	doubleDashes   = rule{re: regexp.MustCompile(`--`), repl: " -- "}

	endingQuotes = rules(
		`''`, " '' ",
		`"`, " '' ",
		`(\S)('')`, "${1} ${2} ",
		`([^' ])('[sS]|'[mM]|'[dD]|') `, "${1} ${2} ",
		`([^' ])('ll|'LL|'re|'RE|'ve|'VE|n't|N'T) `, "${1} ${2} ",
	)

	contractions = rules(
		`(?i)\b(can)(not)\b`, " ${1} ${2} ",
		`(?i)\b(d)('ye)\b`, " ${1} ${2} ",
		`(?i)\b(gim)(me)\b`, " ${1} ${2} ",
		`(?i)\b(gon)(na)\b`, " ${1} ${2} ",
		`(?i)\b(got)(ta)\b`, " ${1} ${2} ",
		`(?i)\b(lem)(me)\b`, " ${1} ${2} ",
		`(?i)\b(more)('n)\b`, " ${1} ${2} ",
		`(?i)\b(wan)(na)(\s)`, " ${1} ${2} ${3}",
		`(?i) ('t)(is)\b`, " ${1} ${2} ",
		`(?i) ('t)(was)\b`, " ${1} ${2} ",
	)
)

func apply(text string, rs ...rule) string {
	for _, r := range rs {
		text = r.re.ReplaceAllString(text, r.repl)
	}
	return text
}

// treebankWords splits one sentence into Treebank tokens.
func treebankWords(text string) []string {
	text = apply(text, startingQuotes...)
	text = apply(text, punctuation...)
	text = apply(text, parensBrackets, doubleDashes)
	text = " " + text + " "
	text = apply(text, endingQuotes...)
	text = apply(text, contractions...)
	return strings.Fields(text)
}

// WordTokenize splits text into sentences, then each sentence into words.
func WordTokenize(text string) []string {
	var out []string
	for _, s := range Sentences(text) {
		out = append(out, treebankWords(s)...)
	}
	return out
}

var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "st": true, "jr": true, "sr": true,
	"prof": true, "gen": true, "gov": true, "sen": true, "rep": true, "rev": true,
	"no": true, "vs": true, "etc": true, "e.g": true, "i.e": true, "u.s": true, "u.n": true,
	"jan": true, "feb": true, "mar": true, "apr": true, "jun": true, "jul": true, "aug": true,
	"sep": true, "sept": true, "oct": true, "nov": true, "dec": true, "inc": true, "co": true,
	"ltd": true, "dept": true, "approx": true, "p.m": true, "a.m": true,
}

const closers = `"')]}`

// Sentences splits text on terminal punctuation followed by whitespace and a
// word that does not start with a lowercase letter. A period after a known
// abbreviation or a single-letter initial does not end a sentence.
func Sentences(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(words)-1; i++ {
		if endsSentence(words[i], words[i+1]) {
			out = append(out, strings.Join(words[start:i+1], " "))
			start = i + 1
		}
	}
	return append(out, strings.Join(words[start:], " "))
}

func endsSentence(word, next string) bool {
	w := strings.TrimRight(word, closers)
	if w == "" {
		return false
	}
	last := w[len(w)-1]
	if last != '.' && last != '!' && last != '?' {
		return false
	}
	first := []rune(strings.TrimLeft(next, closers+"(["))
	if len(first) > 0 && unicode.IsLower(first[0]) {
		return false
	}
	if last == '.' {
		stem := strings.ToLower(strings.TrimRight(w, "."))
		if abbreviations[stem] || len([]rune(stem)) == 1 {
			return false
		}
		if strings.HasSuffix(w, "..") {
			return false
		}
	}
	return true
}

// Lower lowercases s with Unicode rules.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Tokenizer produces the normalised tokens fed to the vectoriser.
type Tokenizer struct {
	dict *Dictionary
}

// New returns a Tokenizer lemmatising against dict, or the embedded default
// dictionary when dict is nil.
func New(dict *Dictionary) *Tokenizer {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Tokenizer{dict: dict}
}

// Tokenize word-tokenises text, lemmatises every token, then lowercases and
// trims it. Output order follows the input; tokens that trim to "" are kept.
func (t *Tokenizer) Tokenize(text string) []string {
	words := WordTokenize(text)
	lower := cases.Lower(language.Und)
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.TrimSpace(lower.String(t.dict.Lemmatize(w)))
	}
	return out
}
