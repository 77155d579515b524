package subdiv

import (
	"encoding/json"
	"io"
	"os"

	"github.com/go-playground/validator"
	"github.com/pkg/errors"
)

// DisplacementConfig 高度图位移配置
type DisplacementConfig struct {
	Heightmap string  `json:"heightmap" validate:"required"`
	Scale     float32 `json:"scale"`
}

// Config 细分求值配置
type Config struct {
	MaxCacheDepth    int                 `json:"maxCacheDepth" validate:"min=0,max=8"`
	MaxEvalDepth     int                 `json:"maxEvalDepth" validate:"min=0,max=16"`
	MaxValence       int                 `json:"maxValence" validate:"min=3,max=64"`
	TessellationRate float32             `json:"tessellationRate" validate:"gt=0,lte=256"`
	RegularPatch     string              `json:"regularPatch" validate:"oneof=bspline bezier"`
	Deferred         bool                `json:"deferred"`
	EvalTrees        bool                `json:"evalTrees"`
	Displacement     *DisplacementConfig `json:"displacement,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		MaxCacheDepth:    DefaultMaxCacheDepth,
		MaxEvalDepth:     DefaultMaxEvalDepth,
		MaxValence:       DefaultMaxValence,
		TessellationRate: DefaultTessellationRate,
		RegularPatch:     "bspline",
	}
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	return nil
}

// ParseConfig reads a JSON config. Missing fields keep their defaults.
func ParseConfig(rd io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := json.NewDecoder(rd).Decode(&cfg); err != nil {
		return cfg, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return DefaultConfig(), errors.Wrapf(err, "open config %s", path)
	}
	defer f.Close()
	return ParseConfig(f)
}

// BuildOptions 面片构建参数
type BuildOptions struct {
	MaxCacheDepth int
	MaxEvalDepth  int
	MaxValence    int
	Bezier        bool
	Deferred      bool
}

func (c Config) BuildOptions() BuildOptions {
	return BuildOptions{
		MaxCacheDepth: c.MaxCacheDepth,
		MaxEvalDepth:  c.MaxEvalDepth,
		MaxValence:    c.MaxValence,
		Bezier:        c.RegularPatch == "bezier",
		Deferred:      c.Deferred,
	}
}

func DefaultBuildOptions() BuildOptions {
	return DefaultConfig().BuildOptions()
}
