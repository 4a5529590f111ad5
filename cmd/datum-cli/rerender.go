package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/datum-viz/datum/internal/storage"
	"github.com/datum-viz/datum/pkg/engine"
)

// newRerenderCmd creates the rerender subcommand. Stored specs embed their
// editor state, so after a generator change every chart can be rebuilt from
// its own inputs without touching the original paste.
func newRerenderCmd() *cobra.Command {
	var (
		status string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "rerender",
		Short: "Regenerate stored visualization specs from their editor state",
		Long: `Rerender walks the stored visualizations, restores each one's generation
inputs from the embedded editor state, regenerates the spec with the current
generators, and saves the result. Use --dry-run to report without writing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()

			db, err := openDatabase(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			repo := storage.NewVisualizationRepository(db)
			eng := newEngine()

			stop := ui.Spinner("Loading visualizations")
			vizzes, err := loadAllVisualizations(ctx, repo, storage.VizStatus(status))
			stop()
			if err != nil {
				return fmt.Errorf("list visualizations: %w", err)
			}

			if len(vizzes) == 0 {
				ui.Info("No visualizations to rerender")
				return nil
			}

			bar := ui.ProgressBar("Rerendering", len(vizzes))
			var updated, unchanged, skipped, failed int
			for _, viz := range vizzes {
				err := rerenderOne(ctx, eng, repo, viz, dryRun)
				switch {
				case err == nil:
					updated++
				case errors.Is(err, errSpecUnchanged):
					unchanged++
				case errors.Is(err, engine.ErrNoEditorState):
					skipped++
					logger.Warn().Str("id", viz.ID.String()).Msg("No editor state, skipping")
				default:
					failed++
					logger.Error().Err(err).Str("id", viz.ID.String()).Str("slug", viz.Slug).Msg("Rerender failed")
				}
				if bar != nil {
					_ = bar.Add(1)
				}
			}

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"total":     len(vizzes),
					"updated":   updated,
					"unchanged": unchanged,
					"skipped":   skipped,
					"failed":    failed,
					"dryRun":    dryRun,
				})
			}

			ui.Success("Rerendered %d visualization(s): %d updated, %d unchanged, %d skipped, %d failed",
				len(vizzes), updated, unchanged, skipped, failed)
			if failed > 0 {
				return fmt.Errorf("%d visualization(s) failed to rerender", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only rerender visualizations with this status")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "regenerate without saving")
	return cmd
}

var errSpecUnchanged = errors.New("spec unchanged")

func rerenderOne(ctx context.Context, eng *engine.Engine, repo *storage.VisualizationRepository, viz *storage.Visualization, dryRun bool) error {
	req, err := eng.Restore(ctx, viz.ChartSpec)
	if err != nil {
		return err
	}

	spec, err := eng.Generate(ctx, *req)
	if err != nil {
		return err
	}
	doc, err := spec.JSON()
	if err != nil {
		return err
	}

	if string(doc) == string(viz.ChartSpec) {
		return errSpecUnchanged
	}
	if dryRun {
		return nil
	}

	viz.ChartSpec = doc
	viz.EmbedVersion++
	return repo.Update(ctx, viz, viz.LastUpdated)
}

const rerenderPageSize = 200

func loadAllVisualizations(ctx context.Context, repo *storage.VisualizationRepository, status storage.VizStatus) ([]*storage.Visualization, error) {
	var all []*storage.Visualization
	for offset := 0; ; offset += rerenderPageSize {
		page, err := repo.List(ctx, status, rerenderPageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < rerenderPageSize {
			return all, nil
		}
	}
}
