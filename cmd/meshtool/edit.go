package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Faultbox/meshview/pkg/mesh"
)

func (a *app) normalsCmd() *cobra.Command {
	var (
		out    string
		radius float64
		flip   bool
	)
	cmd := &cobra.Command{
		Use:   "normals <file.obj>",
		Short: "Recompute vertex normals, estimating them for point clouds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := load(args[0])
			if err != nil {
				return err
			}
			if m.F.Rows > 0 {
				if flip {
					m.FlipWinding()
				}
				if err := m.RecalculateNormals(); err != nil {
					return err
				}
			} else {
				if !cmd.Flags().Changed("radius") {
					radius = a.cfg.Mesh.NormalRadius
				}
				if err := m.EstimateNormalsFromNeighbourhood(radius); err != nil {
					return err
				}
			}
			return save(m, out)
		},
	}
	addOutFlag(cmd, &out)
	flag := cmd.Flags()
	flag.Float64Var(&radius, "radius", 0, "neighbourhood radius for point clouds (default from config)")
	flag.BoolVar(&flip, "flip", false, "flip face winding before recomputing")
	return cmd
}

func (a *app) decimateCmd() *cobra.Command {
	var (
		out   string
		faces int
		ratio float64
	)
	cmd := &cobra.Command{
		Use:   "decimate <file.obj>",
		Short: "Reduce the face count by quadric edge collapse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := load(args[0])
			if err != nil {
				return err
			}
			if m.F.Rows == 0 {
				return errors.Errorf("%s has no faces to decimate", args[0])
			}
			target := faces
			if target <= 0 {
				if !cmd.Flags().Changed("ratio") {
					ratio = a.cfg.Mesh.DecimateRatio
				}
				if ratio <= 0 || ratio > 1 {
					return errors.Errorf("ratio %g out of range (0, 1]", ratio)
				}
				target = int(ratio * float64(m.F.Rows))
			}
			before := m.F.Rows
			m.Decimate(target)
			fmt.Fprintf(cmd.OutOrStdout(), "faces: %d -> %d\n", before, m.F.Rows)
			return save(m, out)
		},
	}
	addOutFlag(cmd, &out)
	flag := cmd.Flags()
	flag.IntVar(&faces, "faces", 0, "target face count, overrides --ratio")
	flag.Float64Var(&ratio, "ratio", 0, "fraction of faces to keep (default from config)")
	return cmd
}

func (a *app) upsampleCmd() *cobra.Command {
	var (
		out    string
		levels int
		smooth bool
	)
	cmd := &cobra.Command{
		Use:   "upsample <file.obj>",
		Short: "Subdivide every triangle into four, optionally with Loop smoothing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := load(args[0])
			if err != nil {
				return err
			}
			m.Upsample(levels, smooth)
			return save(m, out)
		},
	}
	addOutFlag(cmd, &out)
	flag := cmd.Flags()
	flag.IntVarP(&levels, "levels", "n", 1, "number of subdivision passes")
	flag.BoolVar(&smooth, "smooth", false, "apply Loop smoothing")
	return cmd
}

func (a *app) cleanCmd() *cobra.Command {
	var (
		out      string
		dropZero bool
	)
	cmd := &cobra.Command{
		Use:   "clean <file.obj>",
		Short: "Merge duplicate vertices and drop unreferenced ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := load(args[0])
			if err != nil {
				return err
			}
			before := m.V.Rows
			if dropZero {
				m.RemoveVerticesAtZero()
			}
			m.RemoveDuplicateVertices()
			m.RemoveUnreferencedVerts()
			fmt.Fprintf(cmd.OutOrStdout(), "vertices: %d -> %d\n", before, m.V.Rows)
			return save(m, out)
		},
	}
	addOutFlag(cmd, &out)
	cmd.Flags().BoolVar(&dropZero, "drop-zero", false, "also remove invalid points at the origin")
	return cmd
}

func (a *app) componentsCmd() *cobra.Command {
	var (
		out  string
		seed uint64
	)
	cmd := &cobra.Command{
		Use:   "components <file.obj>",
		Short: "Color every connected patch of faces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := load(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				m.SetSeed(seed)
			}
			n := m.ColorConnectedComponents()
			fmt.Fprintf(cmd.OutOrStdout(), "components: %d\n", n)
			return save(m, out)
		},
	}
	addOutFlag(cmd, &out)
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for the component colors")
	return cmd
}

func (a *app) transformCmd() *cobra.Command {
	var (
		out       string
		pose      string
		scale     float64
		normalize bool
	)
	cmd := &cobra.Command{
		Use:   "transform <file.obj>",
		Short: "Bake a rigid pose and scale into the vertices",
		Long: `Bake a rigid pose and scale into the vertices.

The pose is "x y z qx qy qz qw". With --normalize the mesh is first centered
and scaled to unit size.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := load(args[0])
			if err != nil {
				return err
			}
			if normalize {
				m.NormalizePosition()
				m.NormalizeSize()
			}
			if scale != 1 {
				if scale <= 0 {
					return errors.Errorf("scale %g must be positive", scale)
				}
				m.ScaleMesh(scale)
			}
			if pose != "" {
				t, err := mesh.ParsePose(pose)
				if err != nil {
					return err
				}
				m.TransformModelMatrix(t)
			}
			m.ApplyModelMatrixToCPU(false)
			return save(m, out)
		},
	}
	addOutFlag(cmd, &out)
	flag := cmd.Flags()
	flag.StringVar(&pose, "pose", "", `rigid pose "x y z qx qy qz qw"`)
	flag.Float64Var(&scale, "scale", 1, "uniform scale")
	flag.BoolVar(&normalize, "normalize", false, "center and scale to unit size first")
	return cmd
}
