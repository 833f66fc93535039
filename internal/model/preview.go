package model

import (
	"encoding/json"
	"fmt"
)

// EncodePreview serializes a preview for storage on its job.
func EncodePreview(records []CandidateRecord) (string, error) {
	if records == nil {
		records = []CandidateRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("failed to encode preview: %w", err)
	}
	return string(data), nil
}

// DecodePreview is the inverse of EncodePreview. An empty string decodes to no records.
func DecodePreview(raw string) ([]CandidateRecord, error) {
	if raw == "" {
		return nil, nil
	}
	var records []CandidateRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("failed to decode preview: %w", err)
	}
	return records, nil
}

// AverageConfidence is the mean of the non-nil confidences, or nil if there are none.
func AverageConfidence(records []CandidateRecord) *float64 {
	var sum float64
	var n int
	for _, r := range records {
		if r.Confidence != nil {
			sum += *r.Confidence
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// WithDefaultCompany sets company_id on every payload that names no company.
// Records are copied; the input slice is not modified.
func WithDefaultCompany(records []CandidateRecord, companyID string) []CandidateRecord {
	out := make([]CandidateRecord, len(records))
	for i, r := range records {
		out[i] = r
		if companyID == "" {
			continue
		}
		if _, ok := r.Payload["company_id"]; ok {
			continue
		}
		if _, ok := r.Payload["companyId"]; ok {
			continue
		}
		payload := make(map[string]any, len(r.Payload)+1)
		for k, v := range r.Payload {
			payload[k] = v
		}
		payload["company_id"] = companyID
		out[i].Payload = payload
	}
	return out
}
