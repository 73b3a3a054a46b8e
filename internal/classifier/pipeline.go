package classifier

import (
	"context"
	"fmt"

	"github.com/pable/go-data-pipelines/internal/textproc"
)

// Params are the grid-searched pipeline hyperparameters.
type Params struct {
	// NGramMax is the upper bound of the n-gram range; the lower bound is 1.
	NGramMax   int `json:"ngram_max"`
	Estimators int `json:"estimators"`
}

func (p Params) String() string {
	return fmt.Sprintf("ngram_range=(1, %d) n_estimators=%d", p.NGramMax, p.Estimators)
}

// Pipeline chains lowercasing, tokenisation, n-gram counts, TF-IDF and the
// per-label forests.
type Pipeline struct {
	Params     Params           `json:"params"`
	Labels     []string         `json:"labels"`
	Vectorizer *CountVectorizer `json:"vectorizer"`
	TFIDF      *TFIDF           `json:"tfidf"`
	Model      *MultiOutput     `json:"model"`

	tokenizer *textproc.Tokenizer
}

// NewPipeline returns an unfitted pipeline. A nil tokenizer uses the default
// dictionary.
func NewPipeline(p Params, labels []string, tok *textproc.Tokenizer) *Pipeline {
	if tok == nil {
		tok = textproc.New(nil)
	}
	return &Pipeline{Params: p, Labels: labels, tokenizer: tok}
}

// SetTokenizer replaces the tokenizer, e.g. after loading an artifact that
// was trained with a custom dictionary.
func (p *Pipeline) SetTokenizer(tok *textproc.Tokenizer) { p.tokenizer = tok }

// Analyze lowercases text and tokenizes it.
func (p *Pipeline) Analyze(text string) []string {
	return p.tokenizer.Tokenize(textproc.Lower(text))
}

// AnalyzeAll runs Analyze over every text.
func (p *Pipeline) AnalyzeAll(texts []string) [][]string {
	out := make([][]string, len(texts))
	for i, t := range texts {
		out[i] = p.Analyze(t)
	}
	return out
}

// FitOptions are the non-searched fitting settings.
type FitOptions struct {
	Seed uint64
	Jobs int
}

// FitTokens fits every stage on already analysed documents.
func (p *Pipeline) FitTokens(ctx context.Context, docs [][]string, y [][]uint8, opts FitOptions) error {
	p.Vectorizer = NewCountVectorizer(1, p.Params.NGramMax)
	counts, err := p.Vectorizer.FitTransform(docs)
	if err != nil {
		return fmt.Errorf("vectorize: %w", err)
	}
	p.TFIDF = &TFIDF{}
	x := p.TFIDF.FitTransform(counts)
	p.Model, err = FitMultiOutput(ctx, x, y, ForestOptions{
		Estimators: p.Params.Estimators,
		Seed:       opts.Seed,
		Jobs:       opts.Jobs,
	})
	return err
}

// Fit analyses texts and fits the pipeline.
func (p *Pipeline) Fit(ctx context.Context, texts []string, y [][]uint8, opts FitOptions) error {
	return p.FitTokens(ctx, p.AnalyzeAll(texts), y, opts)
}

// PredictTokens predicts labels for already analysed documents.
func (p *Pipeline) PredictTokens(docs [][]string) [][]uint8 {
	return p.Model.Predict(p.TFIDF.Transform(p.Vectorizer.Transform(docs)))
}

// Predict analyses texts and predicts their labels.
func (p *Pipeline) Predict(texts []string) [][]uint8 {
	return p.PredictTokens(p.AnalyzeAll(texts))
}

// LabelResult pairs a label name with its predicted value.
type LabelResult struct {
	Name  string `json:"name"`
	Value uint8  `json:"value"`
}

// Classify predicts one text and zips the result with the label names.
func (p *Pipeline) Classify(text string) []LabelResult {
	pred := p.Predict([]string{text})[0]
	out := make([]LabelResult, len(pred))
	for i, v := range pred {
		name := ""
		if i < len(p.Labels) {
			name = p.Labels[i]
		}
		out[i] = LabelResult{Name: name, Value: v}
	}
	return out
}
