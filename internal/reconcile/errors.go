// Package reconcile persists confirmed records, matching them against
// existing ledger rows by natural key.
package reconcile

import (
	"fmt"

	"github.com/cchome2024/FinanceSync/internal/common"
	"github.com/cchome2024/FinanceSync/internal/model"
)

// Conflict describes the natural key of a record that already exists.
// Keys are camelCase and ready for JSON: companyId, the date key of the
// record type (reportedAt, occurredOn, cashInDate, cashOutDate), and for
// categorized records category, categoryPath, categoryLabel, subcategory,
// description, accountName and amount.
type Conflict map[string]any

// DuplicateRecordError reports that a record matches an existing ledger row
// and the caller did not ask to overwrite it.
type DuplicateRecordError struct {
	Conflict   Conflict
	RecordType model.RecordType
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("duplicate %s record for company %v", e.RecordType, e.Conflict["companyId"])
}

// Unwrap lets errors.Is match common.ErrDuplicateRecord.
func (e *DuplicateRecordError) Unwrap() error {
	return common.ErrDuplicateRecord
}
