package mesh

import (
	"fmt"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ColorType selects how a mesh is colored by the renderer.
type ColorType int

const (
	ColorSolid ColorType = iota
	ColorPerVert
	ColorTexture
	ColorSemanticPred
	ColorSemanticGT
	ColorNormalVector
	ColorHeight
	ColorIntensity
	ColorUV
	ColorNormalViewCoords
)

// EnumEntry pairs an enum value with its display name, used to fill dropdowns.
type EnumEntry[T ~int] struct {
	Value T
	Name  string
}

var colorTypes = []EnumEntry[ColorType]{
	{ColorSolid, "Solid"},
	{ColorPerVert, "PerVertColor"},
	{ColorTexture, "Texture"},
	{ColorSemanticPred, "SemanticPred"},
	{ColorSemanticGT, "SemanticGT"},
	{ColorNormalVector, "NormalVector"},
	{ColorHeight, "Height"},
	{ColorIntensity, "Intensity"},
	{ColorUV, "UV"},
	{ColorNormalViewCoords, "NormalViewCoords"},
}

// ColorTypes returns every color type in declaration order.
func ColorTypes() []EnumEntry[ColorType] {
	return append([]EnumEntry[ColorType](nil), colorTypes...)
}

// String returns the display name.
func (c ColorType) String() string {
	if c >= 0 && int(c) < len(colorTypes) {
		return colorTypes[c].Name
	}
	return fmt.Sprintf("ColorType(%d)", int(c))
}

// ParseColorType maps a display name back to its value.
func ParseColorType(name string) (ColorType, error) {
	for _, e := range colorTypes {
		if e.Name == name {
			return e.Value, nil
		}
	}
	return ColorSolid, errors.Errorf("unknown color type %q", name)
}

// MarshalYAML writes the display name.
func (c ColorType) MarshalYAML() (any, error) {
	return c.String(), nil
}

// UnmarshalYAML reads the display name.
func (c *ColorType) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseColorType(node.Value)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ColorScheme is the colormap used for scalar color types (height, intensity).
type ColorScheme int

const (
	SchemePlasma ColorScheme = iota
	SchemeViridis
	SchemeMagma
)

var colorSchemes = []EnumEntry[ColorScheme]{
	{SchemePlasma, "Plasma"},
	{SchemeViridis, "Viridis"},
	{SchemeMagma, "Magma"},
}

// ColorSchemes returns every color scheme in declaration order.
func ColorSchemes() []EnumEntry[ColorScheme] {
	return append([]EnumEntry[ColorScheme](nil), colorSchemes...)
}

// String returns the display name.
func (c ColorScheme) String() string {
	if c >= 0 && int(c) < len(colorSchemes) {
		return colorSchemes[c].Name
	}
	return fmt.Sprintf("ColorScheme(%d)", int(c))
}

// ParseColorScheme maps a display name back to its value.
func ParseColorScheme(name string) (ColorScheme, error) {
	for _, e := range colorSchemes {
		if e.Name == name {
			return e.Value, nil
		}
	}
	return SchemePlasma, errors.Errorf("unknown color scheme %q", name)
}

// MarshalYAML writes the display name.
func (c ColorScheme) MarshalYAML() (any, error) {
	return c.String(), nil
}

// UnmarshalYAML reads the display name.
func (c *ColorScheme) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseColorScheme(node.Value)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// VisOptions is the visualization state attached to a mesh. It is a plain
// value: compare with == to detect changes.
type VisOptions struct {
	IsVisible       bool `yaml:"is_visible"`
	ForceCastShadow bool `yaml:"force_cast_shadow"`
	ShowPoints      bool `yaml:"show_points"`
	ShowLines       bool `yaml:"show_lines"`
	ShowNormals     bool `yaml:"show_normals"`
	ShowMesh        bool `yaml:"show_mesh"`
	ShowWireframe   bool `yaml:"show_wireframe"`
	ShowSurfels     bool `yaml:"show_surfels"`
	ShowVertIDs     bool `yaml:"show_vert_ids"`
	ShowVertCoords  bool `yaml:"show_vert_coords"`
	UseCustomShader bool `yaml:"use_custom_shader"`

	// Overlays skip depth testing so points/lines draw on top of everything.
	OverlayPoints  bool `yaml:"overlay_points"`
	OverlayLines   bool `yaml:"overlay_lines"`
	PointsAsCircle bool `yaml:"points_as_circle"`

	PointSize float32 `yaml:"point_size"`
	LineWidth float32 `yaml:"line_width"`
	// NormalsScale starts negative; the renderer picks a scale from the mesh size.
	NormalsScale float32 `yaml:"normals_scale"`

	ColorType   ColorType   `yaml:"color_type"`
	ColorScheme ColorScheme `yaml:"color_scheme"`
	PointColor  [3]float32  `yaml:"point_color,flow"`
	LineColor   [3]float32  `yaml:"line_color,flow"`
	SolidColor  [3]float32  `yaml:"solid_color,flow"`
	LabelColor  [3]float32  `yaml:"label_color,flow"`
	Metalness   float32     `yaml:"metalness"`
	Roughness   float32     `yaml:"roughness"`
}

// DefaultVisOptions returns the options a fresh mesh starts with.
func DefaultVisOptions() VisOptions {
	return VisOptions{
		IsVisible:    true,
		ShowMesh:     true,
		PointSize:    4.0,
		LineWidth:    1.0,
		NormalsScale: -1.0,
		ColorType:    ColorSolid,
		ColorScheme:  SchemePlasma,
		PointColor:   [3]float32{245.0 / 255.0, 175.0 / 255.0, 110.0 / 255.0},
		LineColor:    [3]float32{1.0, 0.0, 0.0},
		SolidColor:   [3]float32{1.0, 206.0 / 255.0, 143.0 / 255.0},
		LabelColor:   [3]float32{1.0, 160.0 / 255.0, 0.0},
		Metalness:    0.0,
		Roughness:    0.35,
	}
}

// affectsShadow reports whether switching from a to b changes what casts shadows.
func affectsShadow(a, b VisOptions) bool {
	return a.IsVisible != b.IsVisible ||
		a.ForceCastShadow != b.ForceCastShadow ||
		a.ShowPoints != b.ShowPoints ||
		a.ShowLines != b.ShowLines ||
		a.ShowMesh != b.ShowMesh ||
		a.ShowNormals != b.ShowNormals ||
		a.ShowWireframe != b.ShowWireframe ||
		a.ShowSurfels != b.ShowSurfels ||
		a.UseCustomShader != b.UseCustomShader
}
