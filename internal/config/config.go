// Package config loads the simulator configuration through viper and maps
// it onto solver options.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"circuitsim/pkg/physics"
	"circuitsim/pkg/snapshot"
	"circuitsim/pkg/solve"
)

// Config is the root configuration for the simulator process.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger"`
	Sim    SimConfig    `mapstructure:"sim"`
}

// LoggerConfig holds the logging settings.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	LogFile    string `mapstructure:"log_file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SimConfig mirrors the solver's tunable options.
type SimConfig struct {
	BulbRatedWatts      float64       `mapstructure:"bulb_rated_watts"`
	ResistorIMax        float64       `mapstructure:"resistor_i_max"`
	ResistorVMax        float64       `mapstructure:"resistor_v_max"`
	ResistorPMax        float64       `mapstructure:"resistor_p_max"`
	SwitchClosedOhms    float64       `mapstructure:"switch_closed_ohms"`
	SwitchOpenOhms      float64       `mapstructure:"switch_open_ohms"`
	BatteryInternalOhms float64       `mapstructure:"battery_internal_ohms"`
	NodeMergeTolerance  float64       `mapstructure:"node_merge_tolerance"`
	AutoSeriesOnNoWires bool          `mapstructure:"auto_series_on_no_wires"`
	KCLTolerance        float64       `mapstructure:"kcl_tolerance"`
	KVLTolerance        float64       `mapstructure:"kvl_tolerance"`
	PublishCurrentTol   float64       `mapstructure:"publish_current_tol"`
	PublishVoltageTol   float64       `mapstructure:"publish_voltage_tol"`
	PublishBrightTol    float64       `mapstructure:"publish_brightness_tol"`
	NodalFallback       bool          `mapstructure:"nodal_fallback"`
	FrameBudget         time.Duration `mapstructure:"frame_budget"`
}

// SetDefaults installs defaults so the process runs with no config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.max_size_mb", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age_days", 7)

	def := solve.DefaultOptions()
	v.SetDefault("sim.bulb_rated_watts", def.Physics.BulbRatedWatts)
	v.SetDefault("sim.resistor_i_max", def.Physics.ResistorLimits.IMax)
	v.SetDefault("sim.resistor_v_max", def.Physics.ResistorLimits.VMax)
	v.SetDefault("sim.resistor_p_max", def.Physics.ResistorLimits.PMax)
	v.SetDefault("sim.switch_closed_ohms", def.Physics.SwitchClosedResistance)
	v.SetDefault("sim.switch_open_ohms", def.Physics.SwitchOpenResistance)
	v.SetDefault("sim.battery_internal_ohms", def.Physics.BatteryInternal)
	v.SetDefault("sim.node_merge_tolerance", def.NodeMergeTolerance)
	v.SetDefault("sim.auto_series_on_no_wires", def.AutoSeriesOnNoWires)
	v.SetDefault("sim.kcl_tolerance", def.KCLTolerance)
	v.SetDefault("sim.kvl_tolerance", def.KVLTolerance)
	v.SetDefault("sim.publish_current_tol", def.Publish.I)
	v.SetDefault("sim.publish_voltage_tol", def.Publish.V)
	v.SetDefault("sim.publish_brightness_tol", def.Publish.Brightness)
	v.SetDefault("sim.nodal_fallback", def.NodalFallback)
	v.SetDefault("sim.frame_budget", 8*time.Millisecond)
}

// Load unmarshals and validates the configuration.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Sim.NodeMergeTolerance < 0 {
		return fmt.Errorf("node_merge_tolerance must be non-negative")
	}
	if c.Sim.SwitchClosedOhms <= 0 || c.Sim.SwitchOpenOhms <= 0 {
		return fmt.Errorf("switch resistances must be positive")
	}
	if c.Sim.BatteryInternalOhms < 0 || c.Sim.BatteryInternalOhms > 0.01 {
		return fmt.Errorf("battery_internal_ohms must be in [0, 0.01]")
	}
	return nil
}

// Options converts the loaded configuration to solver options.
func (c *Config) Options() solve.Options {
	opts := solve.DefaultOptions()
	opts.Physics.BulbRatedWatts = c.Sim.BulbRatedWatts
	opts.Physics.ResistorLimits = physics.Limits{
		IMax: c.Sim.ResistorIMax,
		VMax: c.Sim.ResistorVMax,
		PMax: c.Sim.ResistorPMax,
	}
	opts.Physics.SwitchClosedResistance = c.Sim.SwitchClosedOhms
	opts.Physics.SwitchOpenResistance = c.Sim.SwitchOpenOhms
	opts.Physics.BatteryInternal = c.Sim.BatteryInternalOhms
	opts.NodeMergeTolerance = c.Sim.NodeMergeTolerance
	opts.AutoSeriesOnNoWires = c.Sim.AutoSeriesOnNoWires
	opts.KCLTolerance = c.Sim.KCLTolerance
	opts.KVLTolerance = c.Sim.KVLTolerance
	opts.Publish = snapshot.Tolerances{
		I:          c.Sim.PublishCurrentTol,
		V:          c.Sim.PublishVoltageTol,
		Brightness: c.Sim.PublishBrightTol,
	}
	opts.NodalFallback = c.Sim.NodalFallback
	return opts
}
