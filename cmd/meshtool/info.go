package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/Faultbox/meshview/pkg/mesh"
)

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.obj>...",
		Short: "Print attribute counts, bounds and sanity check results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				m, err := load(path)
				if err != nil {
					return err
				}
				printInfo(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}

func printInfo(w io.Writer, m *mesh.Mesh) {
	fmt.Fprintln(w, m.String())
	fmt.Fprintf(w, "  vertices: %s\n", humanize.Comma(int64(m.V.Rows)))
	fmt.Fprintf(w, "  faces:    %s\n", humanize.Comma(int64(m.F.Rows)))
	fmt.Fprintf(w, "  edges:    %s\n", humanize.Comma(int64(m.E.Rows)))
	fmt.Fprintf(w, "  memory:   %s\n", humanize.Bytes(m.MemoryFootprint()))
	if m.IsEmpty() {
		return
	}

	b := m.BoundingBox()
	fmt.Fprintf(w, "  bounds:   [%.4g %.4g %.4g] - [%.4g %.4g %.4g]\n",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
	fmt.Fprintf(w, "  scale:    %.4g\n", m.GetScale())

	if m.F.Rows > 0 {
		_, vertNM, manifold := m.ComputeNonManifold()
		if manifold {
			fmt.Fprintln(w, "  manifold: yes")
		} else {
			n := 0
			for _, nm := range vertNM {
				if nm {
					n++
				}
			}
			fmt.Fprintf(w, "  manifold: no (%d non-manifold vertices)\n", n)
		}
	}

	if err := m.SanityCheck(); err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintf(w, "  invalid:  %v\n", e)
		}
	} else {
		fmt.Fprintln(w, "  sanity:   ok")
	}
	for _, warn := range m.ColorTypeWarnings() {
		fmt.Fprintf(w, "  warning:  %s\n", warn)
	}
}
