package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ocr-screening/internal/catalog"
	"github.com/ocr-screening/internal/config"
	"github.com/ocr-screening/internal/db"
	"github.com/ocr-screening/internal/logging"
	"github.com/ocr-screening/internal/match"
	"github.com/ocr-screening/internal/ocr"
	"github.com/ocr-screening/internal/screening"
	"github.com/ocr-screening/internal/web"
)

var (
	// Set by the persistent pre-run of the root command
	cfg    *config.Config
	logger zerolog.Logger

	catalogFlag  string
	logLevelFlag string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "screener",
		Short: "Lab report test screening",
		Long:  `Resolves lab test mentions in OCR text against a test catalog and refuses results it cannot trace back to the source`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if catalogFlag != "" {
				cfg.CatalogFile = catalogFlag
				cfg.CatalogDatabaseURL = ""
			}
			if logLevelFlag != "" {
				cfg.LogLevel = logLevelFlag
			}
			logger = logging.New(cfg.Env, cfg.LogLevel)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&catalogFlag, "catalog", "", "YAML catalog file (overrides CATALOG_FILE and CATALOG_DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createScreenCmd())
	rootCmd.AddCommand(createMatchCmd())
	rootCmd.AddCommand(createCatalogCmd())
	rootCmd.AddCommand(createPingCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadCatalog picks the catalog source: database, file, then the built-in set.
func loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	switch {
	case cfg.CatalogDatabaseURL != "":
		conn, err := db.Open(ctx, cfg.CatalogDatabaseURL, cfg.DBMaxConns, cfg.DBMaxIdle)
		if err != nil {
			return nil, err
		}
		defer conn.Close()

		c, err := catalog.LoadPostgres(ctx, conn.DB)
		if err != nil {
			return nil, err
		}
		logger.Info().Int("tests", c.Len()).Msg("catalog loaded from database")
		return c, nil

	case cfg.CatalogFile != "":
		c, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("file", cfg.CatalogFile).Int("tests", c.Len()).Msg("catalog loaded from file")
		return c, nil

	default:
		c := catalog.Default()
		logger.Debug().Int("tests", c.Len()).Msg("using built-in catalog")
		return c, nil
	}
}

func newService(ctx context.Context, opts ...screening.Option) (*screening.Service, error) {
	c, err := loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	index := catalog.NewIndex(c, cfg.SymSpellConfig())
	stats := index.Names().FuzzyStats()
	logger.Debug().
		Int("names", index.Names().Len()).
		Int("units", index.Units().Len()).
		Int("fuzzy_terms", stats.TermCount).
		Int("fuzzy_deletes", stats.DeleteCount).
		Msg("catalog index built")
	opts = append([]screening.Option{screening.WithLogger(logger)}, opts...)
	return screening.New(index, cfg.ScreeningConfig(), opts...), nil
}

func createServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the screening HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ocr.NewClient(cfg.OCRConfig(), ocr.WithLogger(logger))
			svc, err := newService(cmd.Context(), screening.WithOCR(client))
			if err != nil {
				return err
			}

			webConfig := web.DefaultConfig()
			webConfig.Server.Host = cfg.ServerHost
			webConfig.Server.Port = cfg.ServerPort

			return web.NewServer(webConfig, svc, logger).Start()
		},
	}
}

func createScreenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "screen [file|-]",
		Short: "Screen report text and print the result as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			svc, err := newService(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(svc.Screen(text))
		},
	}
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}

func createMatchCmd() *cobra.Command {
	var unit, status string

	cmd := &cobra.Command{
		Use:   "match [name]",
		Short: "Show how a test name resolves against the catalog",
		Long:  `Resolves a test name. With --unit or --status the whole test is resolved and the confidence is broken down per field.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cmd.Context())
			if err != nil {
				return err
			}

			name := strings.Join(args, " ")
			printMatch(cmd.OutOrStdout(), svc.Matcher(), name, unit, status)
			return nil
		},
	}
	cmd.Flags().StringVar(&unit, "unit", "", "unit to resolve with the name")
	cmd.Flags().StringVar(&status, "status", "", "status token to resolve with the name")

	return cmd
}

func printMatch(out io.Writer, m *match.Matcher, name, unit, status string) {
	res, ok := m.MatchName(name)
	if !ok {
		fmt.Fprintf(out, "%q: no match\n", name)
		return
	}

	fmt.Fprintf(out, "%q -> %s\n", name, res.Key)
	fmt.Fprintf(out, "  term:       %s\n", res.Term)
	fmt.Fprintf(out, "  method:     %s\n", res.Method)
	fmt.Fprintf(out, "  tier:       %s\n", res.Tier)
	fmt.Fprintf(out, "  similarity: %.3f\n", res.Similarity)

	if unit == "" && status == "" {
		return
	}
	tm, ok := m.MatchTest(name, 0, unit, status)
	if !ok {
		return
	}
	fmt.Fprintf(out, "  unit:       %s (%s)\n", tm.Unit.Key, tm.Unit.Method)
	if tm.Status != nil {
		fmt.Fprintf(out, "  status:     %s (%s)\n", tm.Status.Key, tm.Status.Method)
	}

	scores := m.Scorer().Explain(tm)
	fields := make([]string, 0, len(scores))
	for field := range scores {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(out, "  %-20s %.3f\n", field+":", scores[field])
	}
}

func createCatalogCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the catalog in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(map[string][]catalog.Entry{"tests": c.Entries()})
			case "table":
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "KEY\tNAME\tUNIT\tREFERENCE")
				for _, e := range c.Entries() {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Key, e.DisplayName, e.Unit, e.Reference)
				}
				return w.Flush()
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "output format: table or yaml")

	return cmd
}

func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the OCR service and catalog are reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), describeIndex(catalog.NewIndex(c, cfg.SymSpellConfig())))

			client := ocr.NewClient(cfg.OCRConfig(), ocr.WithLogger(logger))
			if err := client.Health(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OCR service at %s is healthy\n", cfg.OCRURL)
			return nil
		},
	}
}

func describeIndex(ix *catalog.Index) string {
	names := ix.Names()
	stats := names.FuzzyStats()
	return fmt.Sprintf("Catalog: %d tests, %d name spellings (%d fuzzy, %d deletes), %d unit spellings",
		ix.Catalog().Len(), names.Len(), stats.TermCount, stats.DeleteCount, ix.Units().Len())
}
