package engine

import "github.com/cchome2024/FinanceSync/internal/model"

// previewQueue hands out preview records per record type in preview order.
// Actions without a payload bind to the next unconsumed record of their type,
// so the order of actions decides which preview record each one confirms.
type previewQueue struct {
	pending map[model.RecordType][]model.CandidateRecord
}

func newPreviewQueue(preview []model.CandidateRecord) *previewQueue {
	q := &previewQueue{pending: make(map[model.RecordType][]model.CandidateRecord)}
	for _, r := range preview {
		t := r.RecordType.Canonical()
		q.pending[t] = append(q.pending[t], r)
	}
	return q
}

// next pops the oldest unconsumed record of recordType.
func (q *previewQueue) next(recordType model.RecordType) (model.CandidateRecord, bool) {
	t := recordType.Canonical()
	records := q.pending[t]
	if len(records) == 0 {
		return model.CandidateRecord{}, false
	}
	q.pending[t] = records[1:]
	return records[0], true
}

// remaining counts unconsumed records of every type.
func (q *previewQueue) remaining() int {
	var n int
	for _, records := range q.pending {
		n += len(records)
	}
	return n
}
