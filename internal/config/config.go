package config

import (
	"math"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-msri/internal/surface"
	"github.com/rxtech-lab/argo-msri/internal/tracker"
	"github.com/rxtech-lab/argo-msri/internal/version"
	"github.com/rxtech-lab/argo-msri/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SurfaceConfig configures the sensitivity surface sampler.
type SurfaceConfig struct {
	Density float64 `yaml:"density" json:"density" jsonschema:"title=Density,description=Spacing between axis samples,exclusiveMinimum=0" validate:"gt=0"`
	Ceiling float64 `yaml:"ceiling" json:"ceiling" jsonschema:"title=Ceiling,description=Axis range and maximum visible surface value,exclusiveMinimum=0" validate:"gt=0"`
}

// ScenarioConfig describes one tracker run: the seed and smoothing of the
// tracker and the multiplier sequence fed into it.
type ScenarioConfig struct {
	Version           string                     `yaml:"version" json:"version,omitempty" jsonschema:"title=Version,description=Engine version the scenario was written for"`
	Seed              float64                    `yaml:"seed" json:"seed" jsonschema:"title=Seed,description=Initial smoothed value"`
	Momentum          float64                    `yaml:"momentum" json:"momentum" jsonschema:"title=Momentum,description=Weight kept on the previous smoothed value,minimum=0,exclusiveMaximum=1" validate:"gte=0,lt=1"`
	Steps             int                        `yaml:"steps" json:"steps" jsonschema:"title=Steps,description=Number of multipliers fed to the tracker,minimum=0" validate:"gte=0"`
	InitialAlpha      float64                    `yaml:"initial_alpha" json:"initial_alpha" jsonschema:"title=Initial Alpha,description=Multiplier used for the first initial_steps steps"`
	InitialSteps      int                        `yaml:"initial_steps" json:"initial_steps" jsonschema:"title=Initial Steps,description=How many steps use initial_alpha,minimum=0" validate:"gte=0"`
	Alpha             float64                    `yaml:"alpha" json:"alpha" jsonschema:"title=Alpha,description=Multiplier used after the initial steps"`
	Alphas            optional.Option[[]float64] `yaml:"alphas" json:"alphas" jsonschema:"title=Alphas,description=Explicit multiplier sequence. Overrides steps and the step-change pattern"`
	SingularityPolicy tracker.SingularityPolicy  `yaml:"singularity_policy" json:"singularity_policy" jsonschema:"title=Singularity Policy,description=What to do when mu lands exactly on plus or minus one" validate:"omitempty,oneof=propagate reject"`
	Surface           SurfaceConfig              `yaml:"surface" json:"surface" jsonschema:"title=Surface,description=Sensitivity surface sampling"`
}

// scenarioYAML is the on-disk shape of ScenarioConfig.
type scenarioYAML struct {
	Version           string                    `yaml:"version,omitempty"`
	Seed              float64                   `yaml:"seed"`
	Momentum          float64                   `yaml:"momentum"`
	Steps             int                       `yaml:"steps"`
	InitialAlpha      float64                   `yaml:"initial_alpha"`
	InitialSteps      int                       `yaml:"initial_steps"`
	Alpha             float64                   `yaml:"alpha"`
	Alphas            []float64                 `yaml:"alphas,omitempty"`
	SingularityPolicy tracker.SingularityPolicy `yaml:"singularity_policy"`
	Surface           SurfaceConfig             `yaml:"surface"`
}

// UnmarshalYAML decodes a scenario on top of the receiver's current values,
// so keys missing from the document keep their defaults.
func (c *ScenarioConfig) UnmarshalYAML(value *yaml.Node) error {
	aux := c.toYAML()
	aux.Alphas = nil

	if err := value.Decode(&aux); err != nil {
		return err
	}

	c.Version = aux.Version
	c.Seed = aux.Seed
	c.Momentum = aux.Momentum
	c.Steps = aux.Steps
	c.InitialAlpha = aux.InitialAlpha
	c.InitialSteps = aux.InitialSteps
	c.Alpha = aux.Alpha
	c.SingularityPolicy = aux.SingularityPolicy
	c.Surface = aux.Surface

	if aux.Alphas != nil {
		c.Alphas = optional.Some(aux.Alphas)
	} else {
		c.Alphas = optional.None[[]float64]()
	}

	return nil
}

// MarshalYAML writes the explicit alpha list as a plain sequence.
func (c ScenarioConfig) MarshalYAML() (interface{}, error) {
	return c.toYAML(), nil
}

func (c ScenarioConfig) toYAML() scenarioYAML {
	aux := scenarioYAML{
		Version:           c.Version,
		Seed:              c.Seed,
		Momentum:          c.Momentum,
		Steps:             c.Steps,
		InitialAlpha:      c.InitialAlpha,
		InitialSteps:      c.InitialSteps,
		Alpha:             c.Alpha,
		Alphas:            nil,
		SingularityPolicy: c.SingularityPolicy,
		Surface:           c.Surface,
	}

	if c.Alphas.IsSome() {
		aux.Alphas = c.Alphas.Unwrap()
	}

	return aux
}

// DefaultConfig returns the reference scenario: seed 1, momentum 0.9, one step
// at 0.5 followed by 99 steps at 1.01, and the default surface.
func DefaultConfig() ScenarioConfig {
	return ScenarioConfig{
		Version:           version.GetVersion(),
		Seed:              1,
		Momentum:          tracker.DefaultMomentum,
		Steps:             100,
		InitialAlpha:      0.5,
		InitialSteps:      1,
		Alpha:             1.01,
		Alphas:            optional.None[[]float64](),
		SingularityPolicy: tracker.SingularityPropagate,
		Surface: SurfaceConfig{
			Density: surface.DefaultDensity,
			Ceiling: surface.DefaultCeiling,
		},
	}
}

// Parse decodes a YAML scenario over DefaultConfig and validates it.
func Parse(data []byte) (ScenarioConfig, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal(data, &config); err != nil {
		return ScenarioConfig{}, errors.Wrap(errors.ErrCodeConfigParse, "failed to parse scenario config", err)
	}

	if err := config.Validate(); err != nil {
		return ScenarioConfig{}, err
	}

	return config, nil
}

// Load reads and parses a scenario file. An empty path yields DefaultConfig.
func Load(path string) (ScenarioConfig, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ScenarioConfig{}, errors.Wrapf(errors.ErrCodeConfigNotFound, err, "failed to read scenario config %s", path)
	}

	return Parse(data)
}

// Validate checks struct constraints, the explicit alpha list, and the
// scenario's version against the running engine.
func (c *ScenarioConfig) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid scenario config", err)
	}

	scalars := map[string]float64{
		"seed":          c.Seed,
		"initial_alpha": c.InitialAlpha,
		"alpha":         c.Alpha,
	}
	for name, v := range scalars {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Newf(errors.ErrCodeInvalidSchedule, "%s must be finite, got %v", name, v)
		}
	}

	if c.Alphas.IsSome() {
		for i, alpha := range c.Alphas.Unwrap() {
			if math.IsNaN(alpha) || math.IsInf(alpha, 0) {
				return errors.Newf(errors.ErrCodeInvalidSchedule, "alphas[%d] must be finite, got %v", i, alpha)
			}
		}
	}

	if err := version.CheckVersionCompatibility(version.GetVersion(), c.Version); err != nil {
		return err
	}

	return nil
}

// Policy returns the parsed singularity policy.
func (c *ScenarioConfig) Policy() (tracker.SingularityPolicy, error) {
	return tracker.ParseSingularityPolicy(string(c.SingularityPolicy))
}
