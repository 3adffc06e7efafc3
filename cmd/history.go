package main

import (
	"fmt"

	"learn-audio/internal/migrations"

	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyStatus bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Последние запуски (нужен HISTORY_ENABLED=true)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if a.store == nil {
			return fmt.Errorf("история отключена: установите HISTORY_ENABLED=true и параметры DB_*")
		}

		if historyStatus {
			return migrations.GetMigrationStatus(a.cfg.Database, a.logger)
		}

		runs, err := a.store.History().ListRecent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println(mutedStyle.Render("История пуста"))
			return nil
		}

		for _, r := range runs {
			state := successStyle.Render(r.State)
			if r.Error != nil {
				state = errorStyle.Render(r.State)
			}
			fmt.Printf("%s %s %s %s\n",
				mutedStyle.Render(r.StartedAt.Format("2006-01-02 15:04")),
				state,
				r.Title,
				mutedStyle.Render(fmt.Sprintf("(%s, %s, %.2fx)", r.Language, r.Voice, r.Speed)))
			if r.Error != nil {
				fmt.Println("  " + warnStyle.Render(*r.Error))
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "количество записей")
	historyCmd.Flags().BoolVar(&historyStatus, "status", false, "показать статус миграций базы истории")
	rootCmd.AddCommand(historyCmd)
}
