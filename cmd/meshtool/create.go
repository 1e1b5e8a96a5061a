package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshview/pkg/mesh"
)

var shapes = []string{"box", "sphere", "cylinder", "floor", "grid"}

func (a *app) createCmd() *cobra.Command {
	var (
		out      string
		size     float64
		y        float64
		segments int
	)
	cmd := &cobra.Command{
		Use:       "create <shape>",
		Short:     "Write a primitive: box, sphere, cylinder, floor or grid",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: shapes,
		RunE: func(cmd *cobra.Command, args []string) error {
			if size <= 0 {
				return errors.Errorf("size %g must be positive", size)
			}
			m := mesh.New()
			m.Name = args[0]
			switch args[0] {
			case "box":
				m.CreateBox(size, size, size)
			case "sphere":
				m.CreateSphere(r3.Vec{Y: y}, size/2)
			case "cylinder":
				m.CreateCylinder(r3.Vec{Y: 1}, size, size/2, true, true)
			case "floor":
				m.CreateFloor(y, size/2)
			case "grid":
				m.CreateGrid(segments, y, size)
			}
			return save(m, out)
		},
	}
	addOutFlag(cmd, &out)
	flag := cmd.Flags()
	flag.Float64Var(&size, "size", 1, "edge length or diameter")
	flag.Float64Var(&y, "y", 0, "height of the floor, grid or sphere center")
	flag.IntVar(&segments, "segments", 10, "cells per side of the grid")
	return cmd
}
