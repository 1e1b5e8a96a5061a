package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func (a *app) distanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distance <source.obj> <target.obj>",
		Short: "Report the distance from every source vertex to the target surface",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := load(args[0])
			if err != nil {
				return err
			}
			target, err := load(args[1])
			if err != nil {
				return err
			}
			d, err := src.ComputeDistanceToMesh(target)
			if err != nil {
				return errors.Wrap(err, "computing distance")
			}
			if d.Rows == 0 {
				return errors.Errorf("%s has no vertices", args[0])
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "min:  %.6g\n", floats.Min(d.Data))
			fmt.Fprintf(w, "mean: %.6g\n", stat.Mean(d.Data, nil))
			fmt.Fprintf(w, "max:  %.6g\n", floats.Max(d.Data))
			return nil
		},
	}
}
