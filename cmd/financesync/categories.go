package main

import (
	"fmt"
	"strings"

	"github.com/cchome2024/FinanceSync/internal/cli"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Show the category trees",
		Long: `Show the category tree of one type. Categories are created on demand
when confirmed records reference a new path.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			typeName, _ := cmd.Flags().GetString("type")

			a, err := initApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			categories, err := a.engine.ListCategories(cmd.Context(), model.CategoryType(typeName))
			if err != nil {
				return err
			}
			if len(categories) == 0 {
				cmd.Println(cli.FormatInfo(fmt.Sprintf("No %s categories yet", typeName)))
				return nil
			}

			cmd.Println(cli.FormatTitle(fmt.Sprintf("%s categories", typeName)))
			cmd.Println(renderCategoryTree(categories))
			return nil
		},
	}
	cmd.Flags().String("type", string(model.CategoryTypeRevenue), "category type (revenue, expense, forecast)")
	return cmd
}

// renderCategoryTree indents categories by level. Input is ordered by full path.
func renderCategoryTree(categories []model.FinanceCategory) string {
	var b strings.Builder
	for _, c := range categories {
		indent := strings.Repeat("  ", max(c.Level-1, 0))
		name := c.Name
		if c.IsRoot() {
			name = cli.TableHeaderStyle.Render(name)
		}
		fmt.Fprintf(&b, "%s%s\n", indent, name)
	}
	return strings.TrimRight(b.String(), "\n")
}
