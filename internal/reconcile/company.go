package reconcile

import (
	"context"
	"fmt"

	"github.com/cchome2024/FinanceSync/internal/model"
)

// Placeholder company used for records that name no company.
const (
	PlaceholderCompanyID   = "company-unknown"
	PlaceholderCompanyName = "未指定公司"
)

// CompanyStore is the storage needed to resolve companies.
type CompanyStore interface {
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	GetCompanyByName(ctx context.Context, name string) (*model.Company, error)
	CreateCompany(ctx context.Context, company *model.Company) error
}

// ResolveCompany returns the id a record should be stored under. An empty id
// resolves to the placeholder company. Unknown ids are registered on first use
// under their own name, suffixed when another company already holds it.
func ResolveCompany(ctx context.Context, store CompanyStore, id string) (string, error) {
	company := model.Company{ID: id, Name: id, DisplayName: id, Currency: model.DefaultCurrency}
	if id == "" {
		company = model.Company{
			ID:          PlaceholderCompanyID,
			Name:        PlaceholderCompanyName,
			DisplayName: PlaceholderCompanyName,
			Currency:    model.DefaultCurrency,
		}
	}

	existing, err := store.GetCompany(ctx, company.ID)
	if err != nil {
		return "", fmt.Errorf("failed to look up company %q: %w", company.ID, err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	if company.Name, err = freeCompanyName(ctx, store, company.Name); err != nil {
		return "", err
	}
	if err := store.CreateCompany(ctx, &company); err != nil {
		return "", fmt.Errorf("failed to register company %q: %w", company.ID, err)
	}
	return company.ID, nil
}

func freeCompanyName(ctx context.Context, store CompanyStore, base string) (string, error) {
	name := base
	for n := 2; ; n++ {
		taken, err := store.GetCompanyByName(ctx, name)
		if err != nil {
			return "", fmt.Errorf("failed to look up company name %q: %w", name, err)
		}
		if taken == nil {
			return name, nil
		}
		name = fmt.Sprintf("%s (%d)", base, n)
	}
}
