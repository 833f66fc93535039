package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/cchome2024/FinanceSync/internal/model"
)

const categoryColumns = `id, category_type, name, parent_id, level, full_path, created_at`

// GetCategoryByPath returns the category with the given full path, or nil if none exists.
func (s *SQLiteStorage) GetCategoryByPath(ctx context.Context, categoryType model.CategoryType, fullPath string) (*model.FinanceCategory, error) {
	return s.getCategoryByPathTx(ctx, s.db, categoryType, fullPath)
}

// CreateCategory inserts a category. A path that already exists yields common.ErrDuplicateEntry.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.FinanceCategory) error {
	return s.createCategoryTx(ctx, s.db, category)
}

// GetCategories lists categories ordered by path. An empty type lists every tree.
func (s *SQLiteStorage) GetCategories(ctx context.Context, categoryType model.CategoryType) ([]model.FinanceCategory, error) {
	return s.getCategoriesTx(ctx, s.db, categoryType)
}

func (t *sqliteTransaction) GetCategoryByPath(ctx context.Context, categoryType model.CategoryType, fullPath string) (*model.FinanceCategory, error) {
	return t.storage.getCategoryByPathTx(ctx, t.tx, categoryType, fullPath)
}

func (t *sqliteTransaction) CreateCategory(ctx context.Context, category *model.FinanceCategory) error {
	return t.storage.createCategoryTx(ctx, t.tx, category)
}

func (t *sqliteTransaction) GetCategories(ctx context.Context, categoryType model.CategoryType) ([]model.FinanceCategory, error) {
	return t.storage.getCategoriesTx(ctx, t.tx, categoryType)
}

func (s *SQLiteStorage) getCategoryByPathTx(ctx context.Context, q queryable, categoryType model.CategoryType, fullPath string) (*model.FinanceCategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(fullPath, "fullPath"); err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM finance_categories WHERE category_type = ? AND full_path = ?`,
		categoryType, fullPath)

	cat, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return cat, nil
}

func (s *SQLiteStorage) createCategoryTx(ctx context.Context, q queryable, category *model.FinanceCategory) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}
	if category.ID == "" {
		category.ID = newID()
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO finance_categories (`+categoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		category.ID, category.Type, category.Name, nullString(category.ParentID),
		category.Level, category.FullPath, category.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create category %q: %w", category.FullPath, mapConstraintError(err))
	}

	slog.Info("created new category", "type", category.Type, "path", category.FullPath, "level", category.Level)
	return nil
}

func (s *SQLiteStorage) getCategoriesTx(ctx context.Context, q queryable, categoryType model.CategoryType) ([]model.FinanceCategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + categoryColumns + ` FROM finance_categories`
	var args []any
	if categoryType != "" {
		query += ` WHERE category_type = ?`
		args = append(args, categoryType)
	}
	query += ` ORDER BY category_type, full_path`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.FinanceCategory
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "type", categoryType, "count", len(categories))
	return categories, nil
}

func scanCategory(row rowScanner) (*model.FinanceCategory, error) {
	var cat model.FinanceCategory
	var parentID sql.NullString
	if err := row.Scan(&cat.ID, &cat.Type, &cat.Name, &parentID, &cat.Level, &cat.FullPath, &cat.CreatedAt); err != nil {
		return nil, err
	}
	cat.ParentID = stringPtr(parentID)
	return &cat, nil
}
