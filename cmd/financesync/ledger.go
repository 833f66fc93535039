package main

import (
	"fmt"

	"github.com/cchome2024/FinanceSync/internal/cli"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/spf13/cobra"
)

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "ledger <balances|revenue|expenses|income-forecasts|expense-forecasts>",
		Short:     "Show confirmed ledger entries of a company",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"balances", "revenue", "expenses", "income-forecasts", "expense-forecasts"},
		RunE:      runLedger,
	}
	cmd.Flags().String("company", "", "company ID (required)")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func runLedger(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	companyID, _ := cmd.Flags().GetString("company")

	a, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	var headers []string
	var rows [][]string
	switch args[0] {
	case "balances":
		balances, err := a.store.ListAccountBalances(ctx, companyID)
		if err != nil {
			return err
		}
		headers = []string{"Reported", "Cash", "Investment", "Total", "Currency"}
		for _, b := range balances {
			rows = append(rows, []string{
				b.ReportedAt.UTC().Format("2006-01-02 15:04"),
				b.CashBalance.StringFixed(2),
				b.InvestmentBalance.StringFixed(2),
				b.TotalBalance.StringFixed(2),
				b.Currency,
			})
		}
	case "revenue":
		details, err := a.store.ListRevenueDetails(ctx, companyID)
		if err != nil {
			return err
		}
		headers = []string{"Date", "Amount", "Currency", "Category", "Description", "Account"}
		for _, d := range details {
			rows = append(rows, []string{
				d.OccurredOn.Format("2006-01-02"),
				d.Amount.StringFixed(2),
				d.Currency,
				deref(d.CategoryPathText),
				deref(d.Description),
				deref(d.AccountName),
			})
		}
	case "expenses":
		records, err := a.store.ListExpenseRecords(ctx, companyID)
		if err != nil {
			return err
		}
		headers = []string{"Month", "Amount", "Currency", "Category", "Description"}
		for _, r := range records {
			rows = append(rows, []string{
				r.Month.Format("2006-01"),
				r.Amount.StringFixed(2),
				r.Currency,
				deref(r.CategoryPathText),
				deref(r.Description),
			})
		}
	default:
		direction := model.ForecastIncome
		if args[0] == "expense-forecasts" {
			direction = model.ForecastExpense
		}
		forecasts, err := a.store.ListForecasts(ctx, direction, companyID)
		if err != nil {
			return err
		}
		headers = []string{"Date", "Expected", "Currency", "Certainty", "Category", "Description"}
		for _, f := range forecasts {
			rows = append(rows, []string{
				f.CashDate.Format("2006-01-02"),
				f.ExpectedAmount.StringFixed(2),
				f.Currency,
				string(f.Certainty),
				deref(f.CategoryPathText),
				deref(f.Description),
			})
		}
	}

	if len(rows) == 0 {
		cmd.Println(cli.FormatInfo(fmt.Sprintf("No %s entries for company %s", args[0], companyID)))
		return nil
	}
	cmd.Println(cli.RenderTable(headers, rows))
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
