package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/tyeapps"
	"github.com/GoCodeAlone/tyeapps/feeders"
	"github.com/GoCodeAlone/tyeapps/taskfile"
)

// ServeConfig is the configuration of the serve command.
type ServeConfig struct {
	Provider  tyeapps.ProviderConfig `yaml:"provider" toml:"provider" json:"provider"`
	TasksFile string                 `yaml:"tasksFile" toml:"tasksFile" json:"tasksFile" env:"TYEAPPS_TASKS_FILE" required:"true" desc:"Task manifest written by the task runner (.yaml, .toml or .json)"`
	Listen    string                 `yaml:"listen" toml:"listen" json:"listen" env:"TYEAPPS_LISTEN" default:"127.0.0.1:8085" desc:"HTTP listen address"`
	Resync    string                 `yaml:"resync" toml:"resync" json:"resync" env:"TYEAPPS_RESYNC" default:"@every 30s" desc:"Cron spec of the periodic manifest re-read, or off"`
	LogLevel  string                 `yaml:"logLevel" toml:"logLevel" json:"logLevel" env:"TYEAPPS_LOG_LEVEL" default:"info" desc:"debug, info, warn or error"`
}

// Validate implements tyeapps.ConfigValidator.
func (c *ServeConfig) Validate() error {
	if _, err := taskfile.FormatForPath(c.TasksFile); err != nil {
		return err
	}
	return c.Provider.Validate()
}

// ResyncSpec returns the cron spec to hand to the task file monitor.
func (c *ServeConfig) ResyncSpec() string {
	if strings.EqualFold(c.Resync, "off") {
		return ""
	}
	return c.Resync
}

// flagFeeder applies explicitly set command line flags on top of the other
// feeders.
type flagFeeder struct {
	cmd       *cobra.Command
	tasksFile string
	listen    string
	logLevel  string
}

func (f flagFeeder) Feed(structure any) error {
	cfg, ok := structure.(*ServeConfig)
	if !ok {
		return fmt.Errorf("%w: %T", tyeapps.ErrConfigNotStruct, structure)
	}
	flags := f.cmd.Flags()
	if flags.Changed("tasks") {
		cfg.TasksFile = f.tasksFile
	}
	if flags.Changed("listen") {
		cfg.Listen = f.listen
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	return nil
}

// loadServeConfig composes the optional config file, the environment and
// the flags, in increasing precedence.
func loadServeConfig(configFile string, flags flagFeeder) (*ServeConfig, error) {
	var feederList []tyeapps.Feeder
	if configFile != "" {
		fileFeeder, err := feeders.ForFile(configFile)
		if err != nil {
			return nil, err
		}
		feederList = append(feederList, fileFeeder)
	}
	feederList = append(feederList, feeders.NewEnvFeeder(), flags)

	cfg := &ServeConfig{}
	if err := tyeapps.LoadConfig(cfg, feederList...); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// NewConfigCommand groups configuration helpers.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	cmd.AddCommand(newConfigSampleCommand())
	cmd.AddCommand(newConfigDescribeCommand())
	return cmd
}

func newConfigSampleCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print a sample serve configuration with defaults applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := tyeapps.GenerateSampleConfig(&ServeConfig{}, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml, toml or json")
	return cmd
}

func newConfigDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Describe every serve configuration field",
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptions, err := tyeapps.DescribeConfig(&ServeConfig{})
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(descriptions))
			for k := range descriptions {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s %s\n", k, descriptions[k])
			}
			return nil
		},
	}
}
