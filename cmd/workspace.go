// File: cmd/workspace.go
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/antchfx/htmlquery"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/xkilldash9x/dropzone/internal/config"
	"github.com/xkilldash9x/dropzone/internal/editor/component"
	"github.com/xkilldash9x/dropzone/internal/editor/geometry"
	"go.uber.org/zap"
)

// workspace is a loaded page bound to the editor, with a geometry backend.
type workspace struct {
	doc   *component.Document
	geom  geometry.Query
	close func()
}

// openWorkspace parses the page, binds it and starts the configured geometry
// backend. extraCSS paths are applied after the configured stylesheets.
func openWorkspace(ctx context.Context, cfg config.Interface, pagePath string, extraCSS []string, logger *zap.Logger) (*workspace, error) {
	path, err := homedir.Expand(pagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to expand page path %q: %w", pagePath, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	root, err := htmlquery.Parse(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", path, err)
	}

	doc, err := component.NewDocument(root, classesFromConfig(cfg.Editor()), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to bind page %s: %w", path, err)
	}

	sheets, err := readStylesheets(cfg.Layout(), extraCSS)
	if err != nil {
		return nil, err
	}

	ws := &workspace{doc: doc, close: func() {}}
	layoutCfg := cfg.Layout()
	switch kind := cfg.Gesture().Geometry; kind {
	case "layout":
		ws.geom = geometry.NewLayout(doc, layoutCfg.ViewportWidth, layoutCfg.ViewportHeight, sheets, logger)
	case "chrome":
		chrome, err := geometry.NewChrome(ctx, doc, geometry.ChromeOptions{
			ViewportWidth:  int(layoutCfg.ViewportWidth),
			ViewportHeight: int(layoutCfg.ViewportHeight),
			Stylesheets:    sheets,
			Timeout:        cfg.Gesture().ChromeTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		ws.geom = chrome
		ws.close = chrome.Close
	default:
		return nil, fmt.Errorf("unknown geometry backend %q", kind)
	}

	logger.Debug("Workspace ready.",
		zap.String("page", path),
		zap.String("geometry", cfg.Gesture().Geometry),
		zap.Int("stylesheets", len(sheets)),
		zap.Int("components", len(doc.Components())))
	return ws, nil
}

func addLayoutFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("viewport-width", 0, "viewport width in CSS pixels (overrides config)")
	cmd.Flags().Float64("viewport-height", 0, "viewport height in CSS pixels (overrides config)")
}

func classesFromConfig(e config.EditorConfig) component.Classes {
	return component.Classes{
		Canvas:    e.CanvasClass,
		Sidebar:   e.SidebarClass,
		Component: e.ComponentClass,
		Preview:   e.PreviewClass,
	}
}

// readStylesheets loads the configured stylesheets followed by extra.
func readStylesheets(l config.LayoutConfig, extra []string) ([]string, error) {
	l.Stylesheets = append(append([]string{}, l.Stylesheets...), extra...)
	paths, err := l.ResolvedStylesheets()
	if err != nil {
		return nil, err
	}
	sheets := make([]string, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read stylesheet: %w", err)
		}
		sheets = append(sheets, string(data))
	}
	return sheets, nil
}
