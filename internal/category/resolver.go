// Package category resolves hierarchical category paths, creating missing nodes.
package category

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cchome2024/FinanceSync/internal/common"
	"github.com/cchome2024/FinanceSync/internal/model"
)

// Store is the subset of storage the resolver needs. Pass a transaction so
// created nodes commit or roll back with the records that reference them.
type Store interface {
	GetCategoryByPath(ctx context.Context, categoryType model.CategoryType, fullPath string) (*model.FinanceCategory, error)
	CreateCategory(ctx context.Context, category *model.FinanceCategory) error
}

// PathSeparator joins category names into a full path.
const PathSeparator = "/"

// CleanNames trims names and drops blanks, preserving order.
func CleanNames(names []string) []string {
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	return cleaned
}

// ResolveOrCreate walks names from the root, creating any missing node, and
// returns the deepest category. It returns nil when no non-blank names remain.
func ResolveOrCreate(ctx context.Context, store Store, names []string, categoryType model.CategoryType) (*model.FinanceCategory, error) {
	if !categoryType.Valid() {
		return nil, fmt.Errorf("unknown category type %q", categoryType)
	}

	path := CleanNames(names)
	if len(path) == 0 {
		return nil, nil
	}

	var parent *model.FinanceCategory
	for depth := 1; depth <= len(path); depth++ {
		fullPath := strings.Join(path[:depth], PathSeparator)

		node, err := store.GetCategoryByPath(ctx, categoryType, fullPath)
		if err != nil {
			return nil, fmt.Errorf("failed to look up category %q: %w", fullPath, err)
		}
		if node == nil {
			node, err = create(ctx, store, categoryType, path[depth-1], fullPath, depth, parent)
			if err != nil {
				return nil, err
			}
		}
		parent = node
	}
	return parent, nil
}

func create(ctx context.Context, store Store, categoryType model.CategoryType, name, fullPath string, level int, parent *model.FinanceCategory) (*model.FinanceCategory, error) {
	node := &model.FinanceCategory{
		Type:     categoryType,
		Name:     name,
		FullPath: fullPath,
		Level:    level,
	}
	if parent != nil {
		node.ParentID = &parent.ID
	}

	err := store.CreateCategory(ctx, node)
	if err == nil {
		return node, nil
	}
	if !errors.Is(err, common.ErrDuplicateEntry) {
		return nil, fmt.Errorf("failed to create category %q: %w", fullPath, err)
	}

	// Another writer created the same path first; use theirs.
	slog.Debug("category created concurrently, re-reading", "type", categoryType, "path", fullPath)
	existing, lookupErr := store.GetCategoryByPath(ctx, categoryType, fullPath)
	if lookupErr != nil {
		return nil, fmt.Errorf("failed to re-read category %q: %w", fullPath, lookupErr)
	}
	if existing == nil {
		return nil, fmt.Errorf("category %q reported duplicate but was not found: %w", fullPath, err)
	}
	return existing, nil
}
