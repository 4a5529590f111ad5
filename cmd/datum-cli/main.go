// Package main provides the Datum CLI entrypoint.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/datum-viz/datum/internal/chartspec"
	"github.com/datum-viz/datum/internal/config"
	"github.com/datum-viz/datum/internal/observability"
	"github.com/datum-viz/datum/internal/registry"
	"github.com/datum-viz/datum/internal/storage"
	"github.com/datum-viz/datum/internal/tabular"
	"github.com/datum-viz/datum/pkg/engine"
)

var (
	// Global flags
	cfgFile    string
	outputJSON bool
	verbose    bool
	noColor    bool

	// Configuration and logger
	cfg    *config.Config
	logger *observability.Logger
	ui     *UI
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "datum",
	Short: "Datum CLI for chart generation, validation, and administration",
	Long: `Datum CLI provides commands for working with the chart spec engine.

Use this tool to:
- Inspect the chart archetype catalog
- Parse pasted CSV/TSV data and preview the inferred column roles
- Generate chart spec documents from data files
- Run the pre-publish validation checks
- Migrate the database and re-render stored visualizations

All commands support --json for automation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logFormat := "console"
		if outputJSON {
			logFormat = "json"
		}

		level := cfg.Observability.LogLevel
		if !verbose {
			level = "warn"
		}

		logger = observability.NewLogger(observability.LogConfig{
			Level:       level,
			Format:      logFormat,
			ServiceName: "datum-cli",
		})
		ui = NewUI(outputJSON, noColor)

		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Add subcommands
	rootCmd.AddCommand(newTemplatesCmd())
	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newRerenderCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newTemplatesCmd creates the templates subcommand.
func newTemplatesCmd() *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the chart archetype catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			templates := registry.All()
			if activeOnly {
				active := templates[:0]
				for _, t := range templates {
					if t.Status == registry.StatusActive {
						active = append(active, t)
					}
				}
				templates = active
			}

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(templates)
			}

			rows := make([][]string, 0, len(templates))
			for _, t := range templates {
				rows = append(rows, []string{string(t.ID), t.Label, string(t.Status)})
			}
			ui.Table([]string{"ID", "Label", "Status"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "only list selectable archetypes")
	return cmd
}

// newParseCmd creates the parse subcommand.
func newParseCmd() *cobra.Command {
	var (
		input  string
		sample bool
	)

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse pasted CSV/TSV data and preview the inferred roles",
		Long: `Parse reads tabular text from a file (or stdin), detects the delimiter,
coerces cell values, and infers which columns hold time and values.
Use --sample to run against the built-in example dataset.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			var data string
			if sample {
				data = tabular.SampleInput()
			} else {
				var err error
				data, err = readInput(input)
				if err != nil {
					return err
				}
			}

			eng := newEngine()
			res, err := eng.Parse(ctx, data)
			if err != nil {
				return fmt.Errorf("parse failed: %w", err)
			}

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			ui.Success("Parsed %d rows, %d columns (delimiter: %q)",
				len(res.Table.Rows), len(res.Table.Columns), string(res.Table.Delimiter))
			ui.KeyValue("Time column", res.Suggestion.Time)
			ui.KeyValue("Value columns", res.Suggestion.Value)
			for _, msg := range res.RowErrors {
				ui.Warning("%s", msg)
			}
			if res.Truncated {
				ui.Warning("further row errors omitted")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input file path (default: stdin)")
	cmd.Flags().BoolVar(&sample, "sample", false, "use the built-in example dataset")
	return cmd
}

// newGenerateCmd creates the generate subcommand.
func newGenerateCmd() *cobra.Command {
	var (
		template string
		input    string
		output   string
		timeCol  string
		valCols  []string
		groupBy  string
		title    string
		subtitle string
		unit     string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a chart spec document from a data file",
		Long: `Generate parses the input data and produces the spec document for the
chosen archetype. Without explicit column flags the inferred mapping is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			data, err := readInput(input)
			if err != nil {
				return err
			}

			var mapping *chartspec.RoleMapping
			if timeCol != "" || len(valCols) > 0 || groupBy != "" {
				mapping = &chartspec.RoleMapping{
					Time:    timeCol,
					Value:   valCols,
					GroupBy: groupBy,
				}
			}

			opts := chartspec.EditorialOptions{
				Title:    title,
				Subtitle: subtitle,
				Unit:     unit,
			}

			eng := newEngine()
			spec, err := eng.GenerateFromRaw(ctx, registry.ID(template), data, mapping, opts)
			if err != nil {
				return fmt.Errorf("generate failed: %w", err)
			}

			doc, err := spec.JSON()
			if err != nil {
				return fmt.Errorf("serialize spec: %w", err)
			}

			if output != "" {
				if err := os.WriteFile(output, doc, 0o644); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				ui.Success("Spec written to %s", output)
			} else {
				fmt.Println(string(doc))
			}

			if spec.IsInvalid {
				ui.Warning("spec is a placeholder: %s", spec.InvalidReason)
			}
			for _, w := range spec.Warnings {
				ui.Warning("%s", w)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "", "archetype ID (required)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "input data file path (default: stdin)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default: stdout)")
	cmd.Flags().StringVar(&timeCol, "time", "", "time column name")
	cmd.Flags().StringSliceVar(&valCols, "value", nil, "value column names")
	cmd.Flags().StringVar(&groupBy, "group-by", "", "grouping column name")
	cmd.Flags().StringVar(&title, "title", "", "chart title")
	cmd.Flags().StringVar(&subtitle, "subtitle", "", "chart subtitle")
	cmd.Flags().StringVar(&unit, "unit", "", "value unit label")

	_ = cmd.MarkFlagRequired("template")
	return cmd
}

// newValidateCmd creates the validate subcommand.
func newValidateCmd() *cobra.Command {
	var (
		template string
		input    string
		title    string
		summary  string
		sources  []string
		timeCol  string
		valCols  []string
		groupBy  string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run the pre-publish validation checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			data, err := readInput(input)
			if err != nil {
				return err
			}

			eng := newEngine()

			req := chartspec.Request{
				Template: registry.ID(template),
				RawData:  data,
				Mapping: chartspec.RoleMapping{
					Time:    timeCol,
					Value:   valCols,
					GroupBy: groupBy,
				},
			}
			if parsed, err := eng.Parse(ctx, data); err == nil {
				req.Rows = parsed.Table.Rows
				if timeCol == "" && len(valCols) == 0 {
					req.Mapping.Time = parsed.Suggestion.Time
					req.Mapping.Value = parsed.Suggestion.Value
				}
			}

			result := eng.Validate(req, chartspec.Metadata{
				Title:   title,
				Summary: summary,
				Sources: sources,
			})

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			for _, e := range result.Errors {
				ui.Error("%s", e)
			}
			for _, w := range result.Warnings {
				ui.Warning("%s", w)
			}
			if result.OK() {
				ui.Success("Ready to publish")
				return nil
			}
			return fmt.Errorf("%d blocking error(s)", len(result.Errors))
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "", "archetype ID (required)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "input data file path (default: stdin)")
	cmd.Flags().StringVar(&title, "title", "", "chart title")
	cmd.Flags().StringVar(&summary, "summary", "", "chart summary text")
	cmd.Flags().StringSliceVar(&sources, "source", nil, "data source attribution")
	cmd.Flags().StringVar(&timeCol, "time", "", "time column name")
	cmd.Flags().StringSliceVar(&valCols, "value", nil, "value column names")
	cmd.Flags().StringVar(&groupBy, "group-by", "", "grouping column name")

	_ = cmd.MarkFlagRequired("template")
	return cmd
}

// newMigrateCmd creates the migrate subcommand.
func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			db, err := openDatabase(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			stop := ui.Spinner("Applying migrations")
			err = storage.Migrate(ctx, db)
			stop()
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			version, err := storage.SchemaVersion(ctx, db)
			if err != nil {
				return fmt.Errorf("read schema version: %w", err)
			}

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				return enc.Encode(map[string]interface{}{
					"driver":  cfg.Database.Driver,
					"version": version,
				})
			}

			ui.Success("Migrations applied on %s (schema version %d)", cfg.Database.Driver, version)
			return nil
		},
	}
	return cmd
}

// newVersionCmd creates the version subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.Encode(map[string]string{
					"version": "0.1.0",
					"go":      "1.24",
				})
				return
			}
			fmt.Println("datum v0.1.0")
		},
	}
}

// newEngine builds an engine with the configured editor limits applied.
func newEngine() *engine.Engine {
	return engine.New(
		engine.WithLogger(logger),
		engine.WithLimits(engine.Limits{
			MaxInputBytes:   cfg.Editor.MaxInputBytes,
			MaxRows:         cfg.Editor.MaxRows,
			MaxValueColumns: cfg.Editor.MaxValueColumns,
		}),
	)
}

// readInput reads the data payload from a file, or stdin when no path given.
func readInput(path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input file: %w", err)
	}
	return string(data), nil
}

// openDatabase opens a database connection based on the configuration.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		dsn := fmt.Sprintf("%s?_journal_mode=%s&_foreign_keys=on",
			cfg.Database.SQLite.Path, cfg.Database.SQLite.JournalMode)
		db, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.SQLite.MaxOpenConns)
		return db, nil
	case "postgres":
		db, err := sql.Open("postgres", cfg.Database.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.Postgres.ConnMaxLifetime)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}
