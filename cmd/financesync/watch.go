package main

import (
	"time"

	"github.com/cchome2024/FinanceSync/internal/common"
	"github.com/cchome2024/FinanceSync/internal/watch"
	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Import files dropped into a directory",
		Long: `Watch a directory and create an import job for every supported file
written to it. Imported files move to processed/, files whose job could
not be created move to failed/. Defaults to import.watch_dir.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}
	cmd.Flags().Duration("settle", watch.DefaultSettle, "how long a file must be unchanged before import")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	settle, _ := cmd.Flags().GetDuration("settle")

	a, err := initApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	dir := a.settings.Import.WatchDir
	if len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		return common.NewUserError("No directory to watch: pass one or set import.watch_dir", nil)
	}

	w := watch.New(a.engine, extractorForName, watch.Config{
		Dir:         dir,
		CompanyID:   a.settings.Import.CompanyID,
		InitiatorID: a.settings.Import.InitiatorID,
		Settle:      settle,
	})
	return w.Run(cmd.Context())
}

func daysToDuration(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
