package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"kakeibo/internal/config"
	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	applog "kakeibo/internal/log"
	"kakeibo/internal/plan"
	"kakeibo/internal/storage"
	"kakeibo/internal/worker"
)

var (
	flagYear  int
	flagMonth int
)

var rootCmd = &cobra.Command{
	Use:   "kakeibo-cli",
	Short: "Household ledger command-line interface",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the cumulative balance for a month",
	RunE: func(cmd *cobra.Command, _ []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		key, err := targetMonth()
		if err != nil {
			return err
		}
		svc := ledger.NewService(repo, repo, repo, repo, nil)
		saving, err := svc.Saving(cmd.Context(), key)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", saving.Key, saving.Amount.String())
		return nil
	},
}

var adjustCmd = &cobra.Command{
	Use:   "adjust <balance>",
	Short: "Reconcile a month's balance against a declared value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		key, err := targetMonth()
		if err != nil {
			return err
		}
		target, err := parseBalance(args[0])
		if err != nil {
			return err
		}

		svc := ledger.NewService(repo, repo, repo, repo, nil)
		if err := svc.CreateAdjustment(cmd.Context(), target, key); err != nil {
			return err
		}
		saving, err := svc.Saving(cmd.Context(), key)
		if err != nil {
			return err
		}
		fmt.Printf("adjusted %s to %s\n", saving.Key, saving.Amount.String())
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Project the balance trajectory from a month onward",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		key, err := targetMonth()
		if err != nil {
			return err
		}
		svc := plan.NewService(repo, repo, repo, repo, repo, cfg.HorizonMonths)
		results, err := svc.Inspect(cmd.Context(), key)
		if err != nil {
			return err
		}
		for _, res := range results {
			marker := " "
			if res.Status.Kind == plan.Deficit {
				marker = "-"
			}
			fmt.Printf("%s  %s%s  (%d in, %d out)\n",
				res.Date.Format("2006-01-02"),
				marker,
				res.Status.Amount.String(),
				len(res.Incomes),
				len(res.Outcomes))
		}
		return nil
	},
}

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Materialize recurring records for the upcoming months",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		months, _ := cmd.Flags().GetInt("months")
		svc := plan.NewService(repo, repo, repo, repo, repo, cfg.HorizonMonths)
		w := worker.NewWarmupWorker(svc, months, time.Hour)
		if err := w.WarmUp(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("materialized %d months\n", months+1)
		return nil
	},
}

func openRepo() (*storage.SQLiteRepository, error) {
	cfg := config.Load()
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}
	return repo, nil
}

// parseBalance accepts any decimal, negative balances included.
func parseBalance(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid balance %q: %w", s, err)
	}
	return d, nil
}

func targetMonth() (core.YearMonth, error) {
	now := time.Now()
	year, month := flagYear, flagMonth
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	key := core.YM(year, month)
	if err := key.Validate(); err != nil {
		return core.YearMonth{}, err
	}
	return key, nil
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagYear, "year", 0, "Target year (default: current)")
	rootCmd.PersistentFlags().IntVar(&flagMonth, "month", 0, "Target month 1-12 (default: current)")

	warmCmd.Flags().Int("months", 3, "How many months ahead to materialize")

	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(adjustCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(warmCmd)
}

func main() {
	_ = godotenv.Load()
	applog.SetDefault(applog.New(applog.ConfigFromEnv(applog.ComponentCLI)))

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
