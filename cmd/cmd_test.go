package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pable/go-data-pipelines/internal/config"
)

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	orig := os.Stdout
	os.Stdout = w
	runErr := fn()
	os.Stdout = orig
	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(out), runErr
}

// ---- usage ----

func TestProcessDataUsage(t *testing.T) {
	out, err := captureStdout(t, func() error {
		return runProcessData(processDataCmd, []string{"only-one.csv"})
	})
	if err != nil {
		t.Fatalf("wrong arg count should not fail: %v", err)
	}
	if !strings.Contains(out, "Example: dpipe process-data") {
		t.Errorf("usage not printed: %q", out)
	}
}

func TestTrainUsage(t *testing.T) {
	out, err := captureStdout(t, func() error {
		return runTrain(trainCmd, nil)
	})
	if err != nil {
		t.Fatalf("wrong arg count should not fail: %v", err)
	}
	if !strings.Contains(out, "Example: dpipe train-classifier") {
		t.Errorf("usage not printed: %q", out)
	}
}

// ---- options ----

func TestTrainOptionsFromConfig(t *testing.T) {
	cfg = config.New()
	cfg.Seed = 7
	cfg.CVFolds = 3

	opts, err := trainOptions(trainCmd)
	if err != nil {
		t.Fatalf("trainOptions: %v", err)
	}
	if opts.Seed != 7 || opts.Folds != 3 || opts.TestSize != 0.2 || opts.Jobs != 1 {
		t.Errorf("unexpected options: %+v", opts)
	}
	if len(opts.Grid) != 6 {
		t.Errorf("default grid size: %d", len(opts.Grid))
	}
	if opts.Tokenizer == nil {
		t.Error("tokenizer not set")
	}
}

func TestRunProcessDataEndToEnd(t *testing.T) {
	cfg = config.New()
	dir := t.TempDir()
	messages := filepath.Join(dir, "messages.csv")
	cats := filepath.Join(dir, "categories.csv")
	dbFile := filepath.Join(dir, "out.db")
	if err := os.WriteFile(messages, []byte("id,message,original,genre\n1,Need water,,direct\n2,Fire here,,news\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cats, []byte("id,categories\n1,water-1;fire-0\n2,water-0;fire-1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := captureStdout(t, func() error {
		return runProcessData(processDataCmd, []string{messages, cats, dbFile})
	})
	if err != nil {
		t.Fatalf("runProcessData: %v", err)
	}
	if !strings.Contains(out, "Cleaned data saved to database!") {
		t.Errorf("missing completion line: %q", out)
	}
	if _, err := os.Stat(dbFile); err != nil {
		t.Errorf("database not written: %v", err)
	}
}

func TestOrDefault(t *testing.T) {
	if orDefault("", "x") != "x" || orDefault("y", "x") != "y" {
		t.Error("orDefault")
	}
}
