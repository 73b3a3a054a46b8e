package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/pable/go-data-pipelines/internal/textproc"
)

// ArtifactVersion is bumped whenever the serialised layout changes.
const ArtifactVersion = 1

// ErrArtifactVersion is returned when loading an artifact written by an
// incompatible version.
var ErrArtifactVersion = errors.New("classifier: unsupported artifact version")

type artifact struct {
	Version  int           `json:"version"`
	Pipeline *Pipeline     `json:"pipeline"`
	Search   *SearchResult `json:"search,omitempty"`
}

// WriteArtifact encodes p (and the optional search scores) as zstd-compressed JSON.
func WriteArtifact(w io.Writer, p *Pipeline, search *SearchResult) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(enc).Encode(artifact{Version: ArtifactVersion, Pipeline: p, Search: search}); err != nil {
		enc.Close()
		return fmt.Errorf("encode model: %w", err)
	}
	return enc.Close()
}

// ReadArtifact decodes an artifact written by WriteArtifact.
func ReadArtifact(r io.Reader) (*Pipeline, *SearchResult, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	defer dec.Close()

	var a artifact
	if err := json.NewDecoder(dec).Decode(&a); err != nil {
		return nil, nil, fmt.Errorf("decode model: %w", err)
	}
	if a.Version != ArtifactVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrArtifactVersion, a.Version)
	}
	if a.Pipeline == nil || a.Pipeline.Vectorizer == nil || a.Pipeline.TFIDF == nil || a.Pipeline.Model == nil {
		return nil, nil, fmt.Errorf("decode model: incomplete pipeline")
	}
	a.Pipeline.Vectorizer.buildIndex()
	a.Pipeline.tokenizer = textproc.New(nil)
	return a.Pipeline, a.Search, nil
}

// SaveModel writes the artifact to path.
func SaveModel(path string, p *Pipeline, search *SearchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	if err := WriteArtifact(f, p, search); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadModel reads the artifact at path.
func LoadModel(path string) (*Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer f.Close()
	p, _, err := ReadArtifact(f)
	return p, err
}
