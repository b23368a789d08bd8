package tyeapps

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/golobby/config/v3"
)

// Feeder aliases
type Feeder = config.Feeder

// ComplexFeeder extends the basic Feeder interface with keyed access, used
// to read one section of a file holding several.
type ComplexFeeder interface {
	Feeder
	FeedKey(string, any) error
}

// ProviderConfig configures a TaskBasedApplicationProvider.
type ProviderConfig struct {
	RunTaskType      string `yaml:"runTaskType" toml:"runTaskType" json:"runTaskType" env:"TYEAPPS_RUN_TASK_TYPE" default:"tye-run" desc:"Task type treated as a tye run task (exact match)"`
	DefaultDashboard string `yaml:"defaultDashboard" toml:"defaultDashboard" json:"defaultDashboard" env:"TYEAPPS_DEFAULT_DASHBOARD" default:"http://localhost:8000" desc:"Dashboard of the fallback application"`
}

// Validate implements ConfigValidator.
func (c *ProviderConfig) Validate() error {
	if strings.TrimSpace(c.RunTaskType) == "" {
		return ErrInvalidRunTaskType
	}
	u, err := url.Parse(c.DefaultDashboard)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("%w: %q", ErrInvalidDefaultDashboard, c.DefaultDashboard)
	}
	return nil
}

// LoadConfig feeds cfg from feeders in order, later feeders overriding
// earlier ones, then applies defaults and validates it.
func LoadConfig(cfg any, feeders ...Feeder) error {
	if _, err := structValue(cfg); err != nil {
		return err
	}

	builder := config.New()
	for _, feeder := range feeders {
		builder.AddFeeder(feeder)
	}
	builder.AddStruct(cfg)

	if err := builder.Feed(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigFeederError, err)
	}

	return ValidateConfig(cfg)
}

// LoadConfigSection feeds cfg from the named section of each feeder, then
// applies defaults and validates it.
func LoadConfigSection(section string, cfg any, feeders ...ComplexFeeder) error {
	if _, err := structValue(cfg); err != nil {
		return err
	}

	for _, feeder := range feeders {
		if err := feeder.FeedKey(section, cfg); err != nil {
			return fmt.Errorf("%w: section %s: %w", ErrConfigFeederError, section, err)
		}
	}

	return ValidateConfig(cfg)
}
