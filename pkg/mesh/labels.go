package mesh

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LabelManager maps semantic class indices to names and colors. Meshes share
// one manager and only read from it.
type LabelManager interface {
	NrClasses() int
	IdxToLabel(idx int) string
	LabelToColor(idx int) [3]float64
	// Unlabeled is the class index that marks "no label".
	Unlabeled() int
}

// LabelClass is one entry of a StaticLabelManager.
type LabelClass struct {
	Name  string     `yaml:"name"`
	Color [3]float64 `yaml:"color,flow"`
}

// StaticLabelManager is a LabelManager backed by a fixed class table.
type StaticLabelManager struct {
	Classes    []LabelClass `yaml:"classes"`
	Unlabelled int          `yaml:"unlabeled"`
}

// NewStaticLabelManager builds a manager from class names and colors of the
// same length.
func NewStaticLabelManager(names []string, colors [][3]float64, unlabeled int) (*StaticLabelManager, error) {
	if len(names) != len(colors) {
		return nil, errors.Errorf("label manager: %d names but %d colors", len(names), len(colors))
	}
	lm := &StaticLabelManager{Unlabelled: unlabeled}
	for i, n := range names {
		lm.Classes = append(lm.Classes, LabelClass{Name: n, Color: colors[i]})
	}
	return lm, nil
}

// LoadLabelManager reads a YAML class table.
func LoadLabelManager(path string) (*StaticLabelManager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read label file %s", path)
	}
	var lm StaticLabelManager
	if err := yaml.Unmarshal(data, &lm); err != nil {
		return nil, errors.Wrapf(err, "parse label file %s", path)
	}
	return &lm, nil
}

func (l *StaticLabelManager) NrClasses() int { return len(l.Classes) }

func (l *StaticLabelManager) IdxToLabel(idx int) string {
	if idx < 0 || idx >= len(l.Classes) {
		return ""
	}
	return l.Classes[idx].Name
}

func (l *StaticLabelManager) LabelToColor(idx int) [3]float64 {
	if idx < 0 || idx >= len(l.Classes) {
		return [3]float64{}
	}
	return l.Classes[idx].Color
}

func (l *StaticLabelManager) Unlabeled() int { return l.Unlabelled }
