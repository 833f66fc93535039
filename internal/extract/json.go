package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/cchome2024/FinanceSync/internal/model"
)

// JSONExtractor reads candidate records from JSON text. The text may be a
// bare array, or an object holding the array under "records" or "preview",
// optionally wrapped in a markdown code fence. Malformed JSON is repaired
// before it is rejected.
type JSONExtractor struct{}

// NewJSONExtractor creates a JSON extractor.
func NewJSONExtractor() *JSONExtractor {
	return &JSONExtractor{}
}

// Name implements Extractor.
func (e *JSONExtractor) Name() string {
	return "json"
}

// Extract parses in.Text, or the first JSON or text file when no text is given.
func (e *JSONExtractor) Extract(_ context.Context, in Input) ([]model.CandidateRecord, error) {
	raw := in.Text
	if strings.TrimSpace(raw) == "" {
		for _, f := range in.Files {
			if f.Ext() == "json" || f.Ext() == "txt" {
				records, err := ParseRecords(string(f.Data))
				if err != nil {
					return nil, err
				}
				return records, nil
			}
		}
		return nil, &ParseError{Err: fmt.Errorf("no JSON content"), Raw: raw}
	}
	return ParseRecords(raw)
}

// ParseRecords decodes raw into candidate records. Any failure is a *ParseError.
func ParseRecords(raw string) ([]model.CandidateRecord, error) {
	text := stripFence(raw)
	if text == "" {
		return nil, &ParseError{Err: fmt.Errorf("empty output"), Raw: raw}
	}

	records, err := decodeRecords(text)
	if err != nil {
		repaired, repairErr := jsonrepair.RepairJSON(text)
		if repairErr != nil {
			return nil, &ParseError{Err: err, Raw: raw}
		}
		if records, err = decodeRecords(repaired); err != nil {
			return nil, &ParseError{Err: err, Raw: raw}
		}
	}

	for i, r := range records {
		if !r.RecordType.Valid() {
			return nil, &ParseError{Err: fmt.Errorf("record %d: unknown record type %q", i, r.RecordType), Raw: raw}
		}
		if r.Payload == nil {
			records[i].Payload = map[string]any{}
		}
	}
	return records, nil
}

func decodeRecords(text string) ([]model.CandidateRecord, error) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "[") {
		var records []model.CandidateRecord
		if err := json.Unmarshal([]byte(trimmed), &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
		return nil, err
	}
	for _, key := range []string{"records", "preview", "candidates"} {
		data, ok := envelope[key]
		if !ok {
			continue
		}
		var records []model.CandidateRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("invalid %q: %w", key, err)
		}
		return records, nil
	}

	_, camel := envelope["recordType"]
	_, snake := envelope["record_type"]
	if camel || snake {
		var record model.CandidateRecord
		if err := json.Unmarshal([]byte(trimmed), &record); err != nil {
			return nil, err
		}
		return []model.CandidateRecord{record}, nil
	}
	return nil, fmt.Errorf("no records found in output")
}

// stripFence removes a surrounding ``` or ```json fence.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
