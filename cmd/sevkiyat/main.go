// sevkiyat reads a branch's daily order CSV and distributes the quantities
// into the dessert, frozen and logistics workbook templates.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seyhanlar/sevkiyat/internal/dispatch"
	"github.com/seyhanlar/sevkiyat/internal/order"
	"github.com/seyhanlar/sevkiyat/pkg/archive"
	"github.com/seyhanlar/sevkiyat/pkg/config"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sevkiyat",
		Short:         "Distributes branch order CSVs into the shipment workbook templates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(processCmd(), clearCmd(), identifyCmd(), runsCmd(), versionCmd())
	return root
}

func setup() (*config.Config, *slog.Logger, *order.AliasTable, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.JSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	log := slog.New(handler)

	aliases := order.DefaultAliasTable()
	if cfg.Branches.AliasFile != "" {
		aliases, err = order.LoadAliasTable(cfg.Branches.AliasFile)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return cfg, log, aliases, nil
}

func processCmd() *cobra.Command {
	var sheetHint string

	cmd := &cobra.Command{
		Use:   "process <order.csv>",
		Short: "Distribute one order CSV into the configured templates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, aliases, err := setup()
			if err != nil {
				return err
			}
			svc, err := dispatch.New(cfg, log, aliases)
			if err != nil {
				return err
			}

			sum, err := svc.Run(cmd.Context(), args[0], sheetHint)
			if err != nil {
				return err
			}

			fmt.Printf("Şube: %s\n", branchLabel(sum.Branch))
			printStats("Donuk", sum.Frozen)
			printStats("Tatlı", sum.Dessert)
			printStats("Lojistik", sum.Logistics)
			if sum.Dropped > 0 {
				fmt.Printf("Atlanan satır: %d\n", sum.Dropped)
			}
			if sum.Archived != "" {
				fmt.Printf("Arşiv: %s\n", sum.Archived)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sheetHint, "sheet", "", "worksheet to try first (overrides the day-sheet tables)")
	return cmd
}

func clearCmd() *cobra.Command {
	var sheetHint string

	cmd := &cobra.Command{
		Use:   "clear <branch>",
		Short: "Reset a branch's cells in the frozen and dessert templates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, aliases, err := setup()
			if err != nil {
				return err
			}
			svc, err := dispatch.New(cfg, log, aliases)
			if err != nil {
				return err
			}

			sum, err := svc.Clear(cmd.Context(), args[0], sheetHint)
			if err != nil {
				return err
			}
			fmt.Printf("Şube: %s\n", branchLabel(sum.Branch))
			printStats("Donuk", sum.Frozen)
			printStats("Tatlı", sum.Dessert)
			return nil
		},
	}
	cmd.Flags().StringVar(&sheetHint, "sheet", "", "worksheet to try first (overrides the day-sheet tables)")
	return cmd
}

func identifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identify <order.csv>",
		Short: "Show the branch identity resolved from a CSV, without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, aliases, err := setup()
			if err != nil {
				return err
			}
			f, err := order.ReadFile(args[0], aliases)
			if err != nil {
				return err
			}
			if f.Identity.IsZero() {
				return fmt.Errorf("no branch identity found in %s", args[0])
			}
			fmt.Printf("Şube: %s\n", branchLabel(f.Identity))
			fmt.Printf("Satır: %d (atlanan %d)\n", len(f.Lines), f.Dropped)
			if sheets := aliases.CandidateSheets(f.Identity); len(sheets) > 0 {
				fmt.Printf("Sayfa adayları: %s\n", strings.Join(sheets, ", "))
			}
			return nil
		},
	}
}

func runsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs <branch>",
		Short: "List archived runs for a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := setup()
			if err != nil {
				return err
			}
			if cfg.Archive.Dir == "" {
				return fmt.Errorf("archiving is disabled, set SEVKIYAT_ARCHIVE_DIR")
			}
			store, err := archive.NewStore(cfg.Archive.Dir)
			if err != nil {
				return err
			}
			records, err := store.List(args[0])
			if err != nil {
				return err
			}
			for _, rec := range records {
				fmt.Printf("%s  %s  donuk=%d tatlı=%d lojistik=%d\n",
					rec.ArchivedAt.Format("02.01.2006 15:04"),
					rec.StoredName,
					rec.FrozenWritten, rec.DessertWritten, rec.LogisticsWritten)
			}
			if len(records) == 0 {
				fmt.Println("kayıt yok")
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("sevkiyat " + version)
		},
	}
}

func branchLabel(id order.Identity) string {
	if id.Fallback != "" {
		return id.Primary + " (" + id.Fallback + ")"
	}
	return id.Primary
}

func printStats(name string, st dispatch.Stats) {
	switch {
	case st.Skipped && st.Err != nil:
		fmt.Printf("%s: atlandı (%v)\n", name, st.Err)
	case st.Skipped:
		fmt.Printf("%s: atlandı\n", name)
	default:
		fmt.Printf("%s: %d yazıldı, %d eşleşti, %d eşleşmedi\n", name, st.Written, st.Matched, st.Unmatched)
	}
}
