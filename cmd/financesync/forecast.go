package main

import (
	"fmt"

	"github.com/cchome2024/FinanceSync/internal/cli"
	"github.com/cchome2024/FinanceSync/internal/common"
	"github.com/cchome2024/FinanceSync/internal/engine"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func forecastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Maintain expense forecasts by hand",
		Long: `Add, update or delete single expense forecasts. Imported forecasts
replace a company's whole forecast on confirmation; these commands edit
one row at a time. Use "ledger expense-forecasts" to list them.`,
	}
	cmd.AddCommand(forecastAddCmd())
	cmd.AddCommand(forecastUpdateCmd())
	cmd.AddCommand(forecastDeleteCmd())
	return cmd
}

func forecastAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an expense forecast",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			month, _ := flags.GetString("month")
			company, _ := flags.GetString("company")
			certainty, _ := flags.GetString("certainty")
			amount, err := amountFlag(flags)
			if err != nil {
				return err
			}

			a, err := initApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			forecast, err := a.engine.CreateExpenseForecast(cmd.Context(), engine.ExpenseForecastInput{
				Month:         month,
				CompanyID:     company,
				CategoryLabel: changedString(flags, "category"),
				Description:   changedString(flags, "description"),
				AccountName:   changedString(flags, "account"),
				Amount:        *amount,
				Certainty:     model.Certainty(certainty),
			})
			if err != nil {
				return err
			}
			cmd.Println(cli.FormatSuccess(fmt.Sprintf("Added expense forecast %s (%s, %s)",
				forecast.ID, forecast.CashDate.Format("2006-01"), forecast.ExpectedAmount.StringFixed(2))))
			return nil
		},
	}
	cmd.Flags().String("month", "", "forecast month as YYYY-MM (required)")
	cmd.Flags().String("amount", "", "expected amount (required)")
	cmd.Flags().String("company", "", "company ID (default: the placeholder company)")
	cmd.Flags().String("certainty", string(model.CertaintyCertain), "certain or uncertain")
	addForecastTextFlags(cmd)
	_ = cmd.MarkFlagRequired("month")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func forecastUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <forecast-id>",
		Short: "Change fields of an expense forecast",
		Long:  `Change the fields given as flags. An empty --category clears the category.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			patch := engine.ExpenseForecastPatch{
				CategoryLabel: changedString(flags, "category"),
				Description:   changedString(flags, "description"),
				AccountName:   changedString(flags, "account"),
			}
			if flags.Changed("amount") {
				amount, err := amountFlag(flags)
				if err != nil {
					return err
				}
				patch.Amount = amount
			}
			if flags.Changed("certainty") {
				v, _ := flags.GetString("certainty")
				certainty := model.Certainty(v)
				patch.Certainty = &certainty
			}

			a, err := initApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			forecast, err := a.engine.UpdateExpenseForecast(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			cmd.Println(cli.FormatSuccess(fmt.Sprintf("Updated expense forecast %s (%s, %s)",
				forecast.ID, forecast.CashDate.Format("2006-01"), forecast.ExpectedAmount.StringFixed(2))))
			return nil
		},
	}
	cmd.Flags().String("amount", "", "expected amount")
	cmd.Flags().String("certainty", "", "certain or uncertain")
	addForecastTextFlags(cmd)
	return cmd
}

func forecastDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <forecast-id>",
		Short: "Delete an expense forecast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.engine.DeleteExpenseForecast(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Println(cli.FormatSuccess(fmt.Sprintf("Deleted expense forecast %s", args[0])))
			return nil
		},
	}
}

func addForecastTextFlags(cmd *cobra.Command) {
	cmd.Flags().String("category", "", "expense category name")
	cmd.Flags().String("description", "", "description")
	cmd.Flags().String("account", "", "account name")
}

type flagSet interface {
	Changed(name string) bool
	GetString(name string) (string, error)
}

// changedString returns the flag value only when it was set on the command line.
func changedString(flags flagSet, name string) *string {
	if !flags.Changed(name) {
		return nil
	}
	v, _ := flags.GetString(name)
	return &v
}

func amountFlag(flags flagSet) (*decimal.Decimal, error) {
	raw, _ := flags.GetString("amount")
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, common.NewValidationError("amount", fmt.Sprintf("not a number: %q", raw))
	}
	return &amount, nil
}
