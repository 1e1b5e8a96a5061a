package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/config"
	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/pkg/mesh"
)

// app carries the state shared by every subcommand.
type app struct {
	flags *config.Flags
	cfg   *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Default()}

	root := &cobra.Command{
		Use:           "meshtool",
		Short:         "Inspect and edit meshes and point clouds",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.flags)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return logger.InitWithFileConfig(cfg.Logging.Level, cfg.Logging.FileConfig(), true)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}
	a.flags = config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		a.infoCmd(),
		a.normalsCmd(),
		a.decimateCmd(),
		a.upsampleCmd(),
		a.cleanCmd(),
		a.componentsCmd(),
		a.transformCmd(),
		a.distanceCmd(),
		a.createCmd(),
	)
	return root
}

func load(path string) (*mesh.Mesh, error) {
	m, err := mesh.NewFromFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	logger.Debug("loaded mesh",
		zap.String("path", path),
		zap.Int("vertices", m.V.Rows),
		zap.Int("faces", m.F.Rows),
		zap.Int("edges", m.E.Rows))
	return m, nil
}

func save(m *mesh.Mesh, path string) error {
	if err := m.SaveToFile(path); err != nil {
		return errors.Wrapf(err, "saving %s", path)
	}
	logger.Info("wrote mesh",
		zap.String("path", path),
		zap.Int("vertices", m.V.Rows),
		zap.Int("faces", m.F.Rows))
	return nil
}

// addOutFlag registers the required -o flag of commands that write a mesh.
func addOutFlag(cmd *cobra.Command, out *string) {
	cmd.Flags().StringVarP(out, "out", "o", "", "output OBJ file")
	_ = cmd.MarkFlagRequired("out")
}
