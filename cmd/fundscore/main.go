// Command fundscore computes pro-Israel funding scores for federal
// candidates from campaign-finance ledger data. It wires the SQLite
// stores, the cached configuration layer, and the scoring engine behind
// a small administrative and query CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/obedier/fundscore/infrastructure/keywords"
	"github.com/obedier/fundscore/infrastructure/middleware"
	"github.com/obedier/fundscore/infrastructure/storage/sqlite"
	"github.com/obedier/fundscore/internal/application"
	"github.com/obedier/fundscore/internal/domain"
	"github.com/obedier/fundscore/internal/ports"
)

var version = "0.1.0"

// Flags shared by every subcommand.
var (
	dbPath     string
	configPath string
	cyclesFlag string
	ledgerRPS  float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fundscore",
		Short: "Campaign-finance funding aggregation and scoring",
		Long: `Fundscore aggregates campaign-finance transactions from a curated
committee allow-list and scores federal candidates on the share of
their funding that comes from pro-Israel sources.

Scores run 0-5, scaled by each candidate's total receipts and mapped
into labeled categories. Administrative subcommands curate the
committee, keyword, and transaction-type allow-lists.`,
		Version: version,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "fundscore.db", "path to the SQLite database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML engine configuration (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&cyclesFlag, "cycles", "all", `election cycles to cover: "all" or a comma-separated list of even years`)
	rootCmd.PersistentFlags().Float64Var(&ledgerRPS, "ledger-rps", 0, "ledger reads per second (0 disables rate limiting)")

	rootCmd.AddCommand(scoreCmd())
	rootCmd.AddCommand(overviewCmd())
	rootCmd.AddCommand(totalsCmd())
	rootCmd.AddCommand(matchCmd())
	rootCmd.AddCommand(committeeCmd())
	rootCmd.AddCommand(keywordCmd())
	rootCmd.AddCommand(txtypeCmd())
	rootCmd.AddCommand(overrideCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles the wired collaborators a subcommand needs.
type app struct {
	store   *sqlite.Store
	ledger  *sqlite.Ledger
	config  *application.CachedConfigStore
	service application.Service
}

func (a *app) Close() error { return a.store.Close() }

// newApp opens the database and wires the engine stack.
func newApp() (*app, error) {
	store, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cfg, err := application.LoadConfig(configPath)
	if err != nil {
		store.Close()
		return nil, err
	}

	ledger := sqlite.NewLedger(store.DB())
	var reader ports.LedgerReader = ledger
	if ledgerRPS > 0 {
		reader = middleware.RateLimitLedger(reader, rate.Limit(ledgerRPS), int(ledgerRPS)+1)
	}

	cached := application.NewCachedConfigStore(store, store, cfg.ConfigCacheTTL)
	engine, err := application.NewEngine(cfg, cached, reader, ledger,
		application.WithOverrides(store),
	)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		store:   store,
		ledger:  ledger,
		config:  cached,
		service: middleware.NewTracingService(engine),
	}, nil
}

func parseCycles() (domain.CycleSelector, error) {
	return domain.ParseCycles(cyclesFlag)
}

// printJSON renders any result as indented JSON on stdout.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func scoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <person-id>",
		Short: "Compute the funding score for one candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cycles, err := parseCycles()
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			record, err := a.service.GetScore(context.Background(), args[0], cycles)
			if err != nil {
				return err
			}
			return printJSON(record)
		},
	}
}

func overviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Score every candidate in the selected cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cycles, err := parseCycles()
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			overview, err := a.service.GetOverview(context.Background(), cycles)
			if err != nil {
				return err
			}
			return printJSON(overview)
		},
	}
}

func totalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "Aggregate net pro-Israel funding across the selected cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cycles, err := parseCycles()
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			totals, err := a.service.GetTotals(context.Background(), cycles)
			if err != nil {
				return err
			}
			return printJSON(totals)
		},
	}
}

func matchCmd() *cobra.Command {
	var threshold float64
	var maxResults int

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Search ledger committee names against the keyword allow-list",
		Long: `Match runs every active keyword against every committee name in the
ledger directory and prints ranked candidates for inclusion in the
committee allow-list. Matching never alters the allow-list; add
accepted committees with "fundscore committee add".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			matcher, err := keywords.NewMatcher(a.ledger, a.config, keywords.MatcherConfig{
				Threshold:  threshold,
				MaxResults: maxResults,
			})
			if err != nil {
				return err
			}
			matches, err := matcher.FindMatches(context.Background())
			if err != nil {
				return err
			}
			return printJSON(matches)
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", keywords.DefaultMatcherConfig().Threshold, "minimum word similarity for a fuzzy match")
	cmd.Flags().IntVar(&maxResults, "max-results", keywords.DefaultMatcherConfig().MaxResults, "maximum matches to print (0 for unbounded)")
	return cmd
}

func committeeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "committee",
		Short: "Curate the committee allow-list",
	}

	var category string
	addCmd := &cobra.Command{
		Use:   "add <committee-id>",
		Short: "Add a committee to the allow-list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			committee, err := a.config.UpsertCommittee(context.Background(), args[0], domain.CommitteeCategory(category))
			if err != nil {
				return err
			}
			return printJSON(committee)
		},
	}
	addCmd.Flags().StringVar(&category, "category", string(domain.CategoryMajor), "committee category")

	var listCategory string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List active allow-list committees",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			committees, err := a.config.ListActiveCommittees(context.Background(), domain.CommitteeCategory(listCategory))
			if err != nil {
				return err
			}
			return printJSON(committees)
		},
	}
	listCmd.Flags().StringVar(&listCategory, "category", "", "restrict to one category (empty for all)")

	deactivateCmd := &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate a committee row by its numeric ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			committee, err := a.config.DeactivateCommittee(context.Background(), id)
			if err != nil {
				return err
			}
			return printJSON(committee)
		},
	}

	cmd.AddCommand(addCmd, listCmd, deactivateCmd)
	return cmd
}

func keywordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyword",
		Short: "Curate the keyword allow-list",
	}

	var category, description string
	addCmd := &cobra.Command{
		Use:   "add <term>",
		Short: "Add a matching keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			keyword, err := a.config.UpsertKeyword(context.Background(), args[0], domain.CommitteeCategory(category), description)
			if err != nil {
				return err
			}
			return printJSON(keyword)
		},
	}
	addCmd.Flags().StringVar(&category, "category", string(domain.CategoryPhrase), "keyword category")
	addCmd.Flags().StringVar(&description, "description", "", "optional description")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List active keywords",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			terms, err := a.config.ListActiveKeywords(context.Background())
			if err != nil {
				return err
			}
			return printJSON(terms)
		},
	}

	deactivateCmd := &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate a keyword row by its numeric ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			keyword, err := a.config.DeactivateKeyword(context.Background(), id)
			if err != nil {
				return err
			}
			return printJSON(keyword)
		},
	}

	cmd.AddCommand(addCmd, listCmd, deactivateCmd)
	return cmd
}

func txtypeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "txtype",
		Short: "Curate the transaction-type classification",
	}

	var name string
	var proIsrael bool
	addCmd := &cobra.Command{
		Use:   "add <code>",
		Short: "Classify a transaction-type code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			txType, err := a.config.UpsertTransactionType(context.Background(), args[0], name, proIsrael)
			if err != nil {
				return err
			}
			return printJSON(txType)
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "human-readable code name")
	addCmd.Flags().BoolVar(&proIsrael, "pro-israel", true, "whether money under this code counts toward support")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List active transaction-type classifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			types, err := a.config.ListActiveTransactionTypes(context.Background())
			if err != nil {
				return err
			}
			return printJSON(types)
		},
	}

	deactivateCmd := &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate a transaction-type row by its numeric ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			txType, err := a.config.DeactivateTransactionType(context.Background(), id)
			if err != nil {
				return err
			}
			return printJSON(txType)
		},
	}

	cmd.AddCommand(addCmd, listCmd, deactivateCmd)
	return cmd
}

func overrideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Manage manual score overrides",
	}

	var score float64
	var category, reason, author string
	setCmd := &cobra.Command{
		Use:   "set <person-id>",
		Short: "Record a manual score override for a candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cycles, err := parseCycles()
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			override, err := a.store.SetOverride(context.Background(), domain.ScoreOverride{
				PersonID:   args[0],
				CycleScope: cycles.String(),
				Score:      score,
				Category:   category,
				Reason:     reason,
				CreatedBy:  author,
			})
			if err != nil {
				return err
			}
			return printJSON(override)
		},
	}
	setCmd.Flags().Float64Var(&score, "score", 0, "override score (0-5)")
	setCmd.Flags().StringVar(&category, "category", "", "override category label")
	setCmd.Flags().StringVar(&reason, "reason", "", "audit reason (required)")
	setCmd.Flags().StringVar(&author, "by", "", "author of the override (required)")

	clearCmd := &cobra.Command{
		Use:   "clear <id>",
		Short: "Remove an override by its numeric ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.ClearOverride(context.Background(), id); err != nil {
				return err
			}
			fmt.Printf("cleared override %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(setCmd, clearCmd)
	return cmd
}
