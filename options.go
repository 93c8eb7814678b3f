package cuberemap

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/deepteams/cuberemap/internal/geom"
)

// Layout identifies a planar sphere layout.
type Layout int

const (
	LayoutCubemap Layout = iota
	LayoutCubemap32
	LayoutCubemap180
	LayoutPlanePoles
	LayoutPlanePoles6
	LayoutPlanePolesCubemap
	LayoutPlaneCubemap
	LayoutPlaneCubemap32
	LayoutFlatFixed
)

var layoutNames = map[Layout]string{
	LayoutCubemap:           "cubemap",
	LayoutCubemap32:         "cubemap_32",
	LayoutCubemap180:        "cubemap_180",
	LayoutPlanePoles:        "plane_poles",
	LayoutPlanePoles6:       "plane_poles_6",
	LayoutPlanePolesCubemap: "plane_poles_cubemap",
	LayoutPlaneCubemap:      "plane_cubemap",
	LayoutPlaneCubemap32:    "plane_cubemap_32",
	LayoutFlatFixed:         "flat_fixed",
}

func (l Layout) String() string {
	if n, ok := layoutNames[l]; ok {
		return n
	}
	return fmt.Sprintf("layout(%d)", int(l))
}

// ParseLayout resolves a layout by its option-string name.
func ParseLayout(name string) (Layout, error) {
	for l, n := range layoutNames {
		if n == name {
			return l, nil
		}
	}
	return 0, fmt.Errorf("cuberemap: unknown layout %q", name)
}

// UnmarshalYAML decodes a layout from its option-string name.
func (l *Layout) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseLayout(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MarshalYAML encodes a layout as its option-string name.
func (l Layout) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}

// StereoFormat identifies the eye packing of a stereoscopic frame.
type StereoFormat int

const (
	StereoMono StereoFormat = iota
	StereoTB
	StereoLR
)

var stereoNames = map[StereoFormat]string{
	StereoMono: "mono",
	StereoTB:   "tb",
	StereoLR:   "lr",
}

func (s StereoFormat) String() string {
	if n, ok := stereoNames[s]; ok {
		return n
	}
	return fmt.Sprintf("stereo(%d)", int(s))
}

// ParseStereoFormat resolves a stereo format by its option-string name.
func ParseStereoFormat(name string) (StereoFormat, error) {
	for s, n := range stereoNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("cuberemap: unknown stereo format %q", name)
}

// UnmarshalYAML decodes a stereo format from its option-string name.
func (s *StereoFormat) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseStereoFormat(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML encodes a stereo format as its option-string name.
func (s StereoFormat) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// ErrInvalidConfig is wrapped by every configuration rejection.
var ErrInvalidConfig = errors.New("cuberemap: invalid configuration")

// Options is the immutable remapping configuration.
type Options struct {
	InputLayout  Layout `yaml:"input_layout"`
	OutputLayout Layout `yaml:"output_layout"`

	Yaw   float64 `yaml:"yaw"`   // degrees
	Pitch float64 `yaml:"pitch"` // degrees
	HFov  float64 `yaml:"hfov"`  // degrees, flat_fixed only
	VFov  float64 `yaml:"vfov"`  // degrees, flat_fixed only

	ExpandCoef     float64 `yaml:"expand_coef"`
	MainPlaneRatio float64 `yaml:"main_plane_ratio"`

	WSubdivisions int `yaml:"w_subdivisions"`
	HSubdivisions int `yaml:"h_subdivisions"`

	Stereo StereoFormat `yaml:"stereo"`
	VFlip  bool         `yaml:"vflip"`

	// Threads caps the resampler workers per plane; 0 means
	// GOMAXPROCS.
	Threads int `yaml:"threads"`
}

// DefaultOptions returns the option-table defaults.
func DefaultOptions() *Options {
	return &Options{
		InputLayout:    LayoutCubemap,
		OutputLayout:   LayoutCubemap32,
		HFov:           90,
		VFov:           90,
		ExpandCoef:     1.0,
		MainPlaneRatio: 0.5,
		WSubdivisions:  1,
		HSubdivisions:  1,
		Stereo:         StereoMono,
	}
}

// ParseOptions decodes yaml option data over the defaults.
func ParseOptions(data []byte) (*Options, error) {
	o := DefaultOptions()
	if err := yaml.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("cuberemap: parsing options: %w", err)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// LoadOptions reads a yaml options file.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cuberemap: reading options: %w", err)
	}
	return ParseOptions(data)
}

// Validate rejects configurations the engine cannot serve.
func (o *Options) Validate() error {
	if _, ok := layoutNames[o.InputLayout]; !ok {
		return fmt.Errorf("%w: unknown input layout %d", ErrInvalidConfig, int(o.InputLayout))
	}
	if _, ok := layoutNames[o.OutputLayout]; !ok {
		return fmt.Errorf("%w: unknown output layout %d", ErrInvalidConfig, int(o.OutputLayout))
	}
	if o.InputLayout == LayoutFlatFixed {
		return fmt.Errorf("%w: flat_fixed is an output-only layout", ErrInvalidConfig)
	}
	if _, ok := stereoNames[o.Stereo]; !ok {
		return fmt.Errorf("%w: unknown stereo format %d", ErrInvalidConfig, int(o.Stereo))
	}
	if o.ExpandCoef <= 0 || o.ExpandCoef > 2 {
		return fmt.Errorf("%w: expand_coef %g outside (0,2]", ErrInvalidConfig, o.ExpandCoef)
	}
	if o.MainPlaneRatio <= 0 || o.MainPlaneRatio >= 1 {
		return fmt.Errorf("%w: main_plane_ratio %g outside (0,1)", ErrInvalidConfig, o.MainPlaneRatio)
	}
	if o.WSubdivisions < 1 || o.WSubdivisions > 16 {
		return fmt.Errorf("%w: w_subdivisions %d outside [1,16]", ErrInvalidConfig, o.WSubdivisions)
	}
	if o.HSubdivisions < 1 || o.HSubdivisions > 16 {
		return fmt.Errorf("%w: h_subdivisions %d outside [1,16]", ErrInvalidConfig, o.HSubdivisions)
	}
	if o.WSubdivisions*o.HSubdivisions > 255 {
		return fmt.Errorf("%w: %d sub-samples overflow the 8-bit pair counts", ErrInvalidConfig, o.WSubdivisions*o.HSubdivisions)
	}
	if o.OutputLayout == LayoutFlatFixed {
		if o.HFov <= 0 || o.HFov > 360 {
			return fmt.Errorf("%w: hfov %g outside (0,360]", ErrInvalidConfig, o.HFov)
		}
		if o.VFov <= 0 || o.VFov > 180 {
			return fmt.Errorf("%w: vfov %g outside (0,180]", ErrInvalidConfig, o.VFov)
		}
	}
	if o.Threads < 0 {
		return fmt.Errorf("%w: negative thread count %d", ErrInvalidConfig, o.Threads)
	}
	return nil
}

// geomLayout converts a public layout to its geometry-kernel value.
func geomLayout(l Layout) geom.Layout {
	switch l {
	case LayoutCubemap:
		return geom.LayoutCubemap
	case LayoutCubemap32:
		return geom.LayoutCubemap32
	case LayoutCubemap180:
		return geom.LayoutCubemap180
	case LayoutPlanePoles:
		return geom.LayoutPlanePoles
	case LayoutPlanePoles6:
		return geom.LayoutPlanePoles6
	case LayoutPlanePolesCubemap:
		return geom.LayoutPlanePolesCubemap
	case LayoutPlaneCubemap:
		return geom.LayoutPlaneCubemap
	case LayoutPlaneCubemap32:
		return geom.LayoutPlaneCubemap32
	default:
		return geom.LayoutFlatFixed
	}
}

// geomStereo converts a public stereo format to its geometry-kernel
// value.
func geomStereo(s StereoFormat) geom.Stereo {
	switch s {
	case StereoTB:
		return geom.StereoTB
	case StereoLR:
		return geom.StereoLR
	default:
		return geom.StereoMono
	}
}

// geomConfig converts the validated options to the geometry-kernel
// configuration.
func (o *Options) geomConfig() geom.Config {
	return geom.Config{
		InputLayout:    geomLayout(o.InputLayout),
		OutputLayout:   geomLayout(o.OutputLayout),
		Stereo:         geomStereo(o.Stereo),
		VFlip:          o.VFlip,
		Yaw:            o.Yaw,
		Pitch:          o.Pitch,
		HFov:           o.HFov,
		VFov:           o.VFov,
		ExpandCoef:     o.ExpandCoef,
		MainPlaneRatio: o.MainPlaneRatio,
	}
}
