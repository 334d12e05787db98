package repository

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	gojson "github.com/goccy/go-json"
)

// WriteJSON encodes summaries as an indented JSON array.
func WriteJSON(w io.Writer, summaries []ProcessSummary) error {
	enc := gojson.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summaries); err != nil {
		return fmt.Errorf("encode summaries: %w", err)
	}
	return nil
}

// WriteFiles writes one <process>_cutflow.json per summary into dir and
// returns the written paths.
func WriteFiles(dir string, summaries []ProcessSummary) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	paths := make([]string, 0, len(summaries))
	for _, s := range summaries {
		b, err := gojson.MarshalIndent(s, "", "  ")
		if err != nil {
			return paths, fmt.Errorf("encode %s: %w", s.Process, err)
		}
		path := filepath.Join(dir, s.Process+"_cutflow.json")
		if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ReadJSON decodes what WriteJSON wrote.
func ReadJSON(r io.Reader) ([]ProcessSummary, error) {
	var out []ProcessSummary
	if err := gojson.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode summaries: %w", err)
	}
	return out, nil
}
