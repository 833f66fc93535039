// Package extract turns uploaded documents and model output into candidate records.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cchome2024/FinanceSync/internal/model"
)

// File is one uploaded document.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Ext returns the lowercased file extension without the dot.
func (f File) Ext() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
}

// Input is everything an extractor may read: free text and attached files.
type Input struct {
	Text  string
	Files []File
}

// Extractor produces candidate records from an input.
type Extractor interface {
	// Name identifies the extractor on the import job, e.g. a model name.
	Name() string
	Extract(ctx context.Context, in Input) ([]model.CandidateRecord, error)
}

// ParseError means the extractor produced output that could not be turned
// into candidate records. Raw is kept on the failed job for inspection.
type ParseError struct {
	Err error
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse extractor output: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ForFile picks an extractor by file extension. It returns nil for formats
// this package does not handle.
func ForFile(name string) Extractor {
	switch (File{Name: name}).Ext() {
	case "json", "txt":
		return NewJSONExtractor()
	case "xlsx", "xlsm", "csv":
		return NewSheetExtractor("")
	}
	return nil
}
