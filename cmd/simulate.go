// File: cmd/simulate.go
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/xkilldash9x/dropzone/internal/editor/gesture"
	"github.com/xkilldash9x/dropzone/internal/editor/placement"
	"github.com/xkilldash9x/dropzone/internal/editor/session"
	"github.com/xkilldash9x/dropzone/internal/observability"
	"go.uber.org/zap"
)

func newSimulateCmd() *cobra.Command {
	var (
		page   string
		css    []string
		script string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a gesture script against a page and write the resulting HTML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			scriptPath, err := homedir.Expand(script)
			if err != nil {
				return fmt.Errorf("failed to expand script path %q: %w", script, err)
			}
			s, err := gesture.LoadScriptFile(scriptPath)
			if err != nil {
				return err
			}

			ws, err := openWorkspace(ctx, cfg, page, css, logger)
			if err != nil {
				return err
			}
			defer ws.close()

			resolver := placement.NewResolver(ws.geom, cfg.Placement().HorizontalDistance)
			ctrl := session.NewController(resolver, logger)
			player := gesture.NewPlayer(ws.doc, ctrl, ws.geom, gesture.Options{
				EventsPerSecond: cfg.Gesture().EventsPerSecond,
				DefaultSteps:    cfg.Gesture().DefaultSteps,
			}, logger)

			stats, err := player.Play(ctx, s)
			if err != nil {
				return fmt.Errorf("replay failed: %w", err)
			}
			if ctrl.Session().Active() {
				logger.Warn("Script ended in the middle of a drag; abandoning it.")
				ctrl.Cancel()
			}
			logger.Info("Simulation complete",
				zap.Int("events", len(s.Events)),
				zap.Int("dispatched", stats.Dispatched),
				zap.Int("skipped", stats.Skipped))

			return writeOutput(cmd.OutOrStdout(), out, ws.doc.Render)
		},
	}

	cmd.Flags().StringVarP(&page, "page", "p", "", "HTML page holding the canvas and the sidebar")
	cmd.Flags().StringSliceVar(&css, "css", nil, "extra stylesheet files applied after the page's own styles")
	cmd.Flags().StringVarP(&script, "script", "s", "", "gesture script (JSON)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file for the resulting HTML (default stdout)")
	cmd.Flags().String("geometry", "", "geometry backend: layout or chrome (overrides config)")
	cmd.Flags().Float64("events-per-second", 0, "pace replay to this many events per second (overrides config)")
	cmd.Flags().Int("steps", 0, "pointer samples for drag events without steps (overrides config)")
	cmd.Flags().Bool("horizontal-distance", false, "rank drop positions by 2-D distance (overrides config)")
	addLayoutFlags(cmd)
	_ = cmd.MarkFlagRequired("page")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

// writeOutput renders to path, or to stdout when path is empty.
func writeOutput(stdout io.Writer, path string, render func(io.Writer) error) error {
	if path == "" {
		return render(stdout)
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("failed to expand output path %q: %w", path, err)
	}
	f, err := os.Create(expanded)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	return f.Close()
}
