// Package testsupport holds fixture and golden-file helpers shared by tests.
// Set UPDATE_GOLDENS=1 to rewrite golden files from current output.
package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-lesionform/pkg/model"
)

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// LoadPrediction decodes a service response fixture. Probability order follows
// the fixture document.
func LoadPrediction(path string) (model.PredictionResult, error) {
	if path == "" {
		return model.PredictionResult{}, errors.New("testsupport: prediction path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.PredictionResult{}, fmt.Errorf("testsupport: read prediction: %w", err)
	}
	var out model.PredictionResult
	if err := json.Unmarshal(data, &out); err != nil {
		return model.PredictionResult{}, fmt.Errorf("testsupport: unmarshal prediction: %w", err)
	}
	return out, nil
}

// MustLoadPrediction is LoadPrediction for tests.
func MustLoadPrediction(t *testing.T, path string) model.PredictionResult {
	t.Helper()

	result, err := LoadPrediction(path)
	if err != nil {
		t.Fatalf("load prediction: %v", err)
	}
	return result
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// AssertGolden compares got with the golden file at path, or rewrites the file
// when UPDATE_GOLDENS is set.
func AssertGolden(t *testing.T, path string, got []byte) {
	t.Helper()
	if WriteMaybeGolden(t, path, got) {
		return
	}
	want := MustReadGolden(t, path)
	if diff := CompareGolden(string(want), string(got)); diff != "" {
		t.Fatalf("golden mismatch %s (-want +got):\n%s", path, diff)
	}
}
