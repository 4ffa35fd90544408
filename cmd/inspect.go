// File: cmd/inspect.go
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xkilldash9x/dropzone/internal/editor/component"
	"github.com/xkilldash9x/dropzone/internal/editor/geometry"
	"github.com/xkilldash9x/dropzone/internal/observability"
	"golang.org/x/net/html"
)

func newInspectCmd() *cobra.Command {
	var (
		page string
		css  []string
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the component outline of a page with kinds, ids and boxes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			ws, err := openWorkspace(ctx, cfg, page, css, observability.GetLogger())
			if err != nil {
				return err
			}
			defer ws.close()

			return writeOutline(cmd.OutOrStdout(), ws.doc, ws.geom)
		},
	}

	cmd.Flags().StringVarP(&page, "page", "p", "", "HTML page holding the canvas and the sidebar")
	cmd.Flags().StringSliceVar(&css, "css", nil, "extra stylesheet files applied after the page's own styles")
	cmd.Flags().String("geometry", "", "geometry backend: layout or chrome (overrides config)")
	addLayoutFlags(cmd)
	_ = cmd.MarkFlagRequired("page")
	return cmd
}

// writeOutline prints one line per component, indented by nesting:
//
//	generic 0b6c... #c1 [8,108 784x40]
func writeOutline(w io.Writer, doc *component.Document, q geometry.Query) error {
	var walk func(el *html.Node, depth int) error
	walk = func(el *html.Node, depth int) error {
		for child := el.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.ElementNode {
				continue
			}
			next := depth
			if c := doc.ComponentFor(child); c != nil {
				if _, err := fmt.Fprintln(w, strings.Repeat("  ", depth)+describe(c, q)); err != nil {
					return err
				}
				next++
			}
			if err := walk(child, next); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(doc.Root(), 0)
}

func describe(c *component.Component, q geometry.Query) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", c.Kind(), c.ID())
	if id := c.Node().Attr("id"); id != "" {
		fmt.Fprintf(&b, " #%s", id)
	}
	if r, ok := q.Box(c.Element()); ok {
		fmt.Fprintf(&b, " [%g,%g %gx%g]", r.X, r.Y, r.Width, r.Height)
	} else {
		b.WriteString(" [no box]")
	}
	return b.String()
}
