// Package config loads the geomag command configuration from flags,
// environment variables and a YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/cgxeiji/geomag"
	"github.com/cgxeiji/geomag/rm3100"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const DefaultAppName = "geomag"
const DefaultConfigName = "config"
const DefaultAxes = "xyz"

var userHomeDir, _ = os.UserHomeDir()
var DefaultConfig = path.Join(userHomeDir, ".config", DefaultAppName, DefaultConfigName+".yaml")
var DefaultConfigSearchPath0 = path.Join(userHomeDir, ".config", DefaultAppName)

const DefaultConfigSearchPath1 = "/etc/" + DefaultAppName
const DefaultConfigSearchPath2 = "./"

// ErrExists is returned by WriteFile when the output file exists and
// overwriting was not requested.
var ErrExists = errors.New("config: file already exists")

// Opt is the configuration of the geomag command.
type Opt struct {
	Bus        string `yaml:"bus" mapstructure:"bus"`
	Addr       uint16 `yaml:"addr" mapstructure:"addr"`
	UpdateRate int    `yaml:"update_rate" mapstructure:"update_rate"`
	Axes       string `yaml:"axes" mapstructure:"axes"`
	// CycleCount is written to every axis when not 0.
	CycleCount uint16 `yaml:"cycle_count" mapstructure:"cycle_count"`
	Average    int    `yaml:"average" mapstructure:"average"`
	Tracking   int    `yaml:"tracking" mapstructure:"tracking"`
	Debug      bool   `yaml:"debug" mapstructure:"debug"`
}

// Desc holds the parsed options and the viper instance they came from.
type Desc struct {
	Opt   Opt
	Viper *viper.Viper
}

func NewDesc() Desc {
	return Desc{
		Opt:   NewOpt(),
		Viper: nil,
	}
}

func NewOpt() Opt {
	return Opt{
		Bus:        "",
		Addr:       rm3100.Addr,
		UpdateRate: rm3100.UpdateRateDefault,
		Axes:       DefaultAxes,
		CycleCount: 0,
		Average:    geomag.DefaultWindow,
		Tracking:   geomag.DefaultTracking,
		Debug:      false,
	}
}

// Flags registers the configuration flags on cmd and its subcommands.
func Flags(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.String("config", "", "configuration file path")
	fs.String("bus", "", "I²C bus name, empty for the first available bus")
	fs.Uint16("addr", rm3100.Addr, "device address (0x20..0x23)")
	fs.IntP("rate", "r", rm3100.UpdateRateDefault, "continuous mode update rate (0 - 600Hz .. 13 - ~0.075Hz)")
	fs.StringP("axes", "a", DefaultAxes, "axes to measure")
	fs.Uint16("cycle-count", 0, "cycle count written to every axis, 0 keeps the device value")
	fs.Int("average", geomag.DefaultWindow, "number of samples averaged per axis")
	fs.Bool("debug", false, "toggle debug logging")
}

// Parse reads the configuration. Values are taken, from highest priority,
// from command line flags, GEOMAG_* environment variables, the config file
// and the defaults.
//
// The config file is the one given by --config, else GEOMAG_CONFIG, else
// config.yaml in $HOME/.config/geomag, /etc/geomag or the current directory.
func (o *Desc) Parse(cmd *cobra.Command) error {
	def := NewOpt()
	vipCfg := viper.New()
	vipCfg.SetDefault("bus", def.Bus)
	vipCfg.SetDefault("addr", def.Addr)
	vipCfg.SetDefault("update_rate", def.UpdateRate)
	vipCfg.SetDefault("axes", def.Axes)
	vipCfg.SetDefault("cycle_count", def.CycleCount)
	vipCfg.SetDefault("average", def.Average)
	vipCfg.SetDefault("tracking", def.Tracking)
	vipCfg.SetDefault("debug", def.Debug)

	explicit := true
	if configFileCmd, err := cmd.Flags().GetString("config"); err == nil && configFileCmd != "" {
		vipCfg.SetConfigFile(configFileCmd)
	} else if configFileEnv := os.Getenv("GEOMAG_CONFIG"); configFileEnv != "" {
		vipCfg.SetConfigFile(configFileEnv)
	} else {
		explicit = false
		vipCfg.SetConfigName(DefaultConfigName)
		vipCfg.SetConfigType("yaml")
		vipCfg.AddConfigPath(DefaultConfigSearchPath0)
		vipCfg.AddConfigPath(DefaultConfigSearchPath1)
		vipCfg.AddConfigPath(DefaultConfigSearchPath2)
	}

	vipCfg.SetEnvPrefix(DefaultAppName)
	vipCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vipCfg.AutomaticEnv()

	_ = vipCfg.BindPFlag("bus", cmd.Flags().Lookup("bus"))
	_ = vipCfg.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	_ = vipCfg.BindPFlag("update_rate", cmd.Flags().Lookup("rate"))
	_ = vipCfg.BindPFlag("axes", cmd.Flags().Lookup("axes"))
	_ = vipCfg.BindPFlag("cycle_count", cmd.Flags().Lookup("cycle-count"))
	_ = vipCfg.BindPFlag("average", cmd.Flags().Lookup("average"))
	_ = vipCfg.BindPFlag("debug", cmd.Flags().Lookup("debug"))

	if err := vipCfg.ReadInConfig(); err == nil {
		log.Debugln("using config file:", vipCfg.ConfigFileUsed())
	} else if explicit {
		return fmt.Errorf("config: could not read %s: %w", vipCfg.ConfigFileUsed(), err)
	} else {
		log.Debugln(err)
	}

	if err := vipCfg.Unmarshal(&o.Opt); err != nil {
		return fmt.Errorf("config: could not unmarshal config: %w", err)
	}

	o.Viper = vipCfg
	return nil
}

func (o *Desc) PostParse() {
	if o.Opt.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// Options returns the device options described by o.
func (o Opt) Options() []geomag.Option {
	opts := []geomag.Option{
		geomag.OnBus(o.Bus),
		geomag.OnAddr(o.Addr),
		geomag.UpdateRate(o.UpdateRate),
		geomag.Averaging(o.Average),
		geomag.Tracking(o.Tracking),
	}
	if o.CycleCount != 0 {
		opts = append(opts, geomag.Configure(
			rm3100.CycleCount("x", o.CycleCount),
			rm3100.CycleCount("y", o.CycleCount),
			rm3100.CycleCount("z", o.CycleCount),
		))
	}
	return opts
}

// Dump writes opt as YAML to w.
func Dump(opt Opt, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(opt); err != nil {
		return fmt.Errorf("config: could not encode: %w", err)
	}
	return enc.Close()
}

// WriteFile dumps opt to outputPath, creating its directory. An existing file
// is only replaced when overwrite is true.
func WriteFile(opt Opt, outputPath string, overwrite bool) error {
	if err := os.MkdirAll(path.Dir(outputPath), 0700); err != nil {
		return fmt.Errorf("config: could not create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(outputPath, flags, 0644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrExists, outputPath)
	}
	if err != nil {
		return fmt.Errorf("config: could not create %s: %w", outputPath, err)
	}
	defer func() { _ = f.Close() }()

	return Dump(opt, f)
}

// InitCfg prints or writes the configuration template built from the
// defaults and any flag or environment override.
func InitCfg(cmd *cobra.Command, _ []string) error {
	printFlag, _ := cmd.Flags().GetBool("print")
	outputPath, _ := cmd.Flags().GetString("output")
	overwriteFlag, _ := cmd.Flags().GetBool("yes")

	desc := NewDesc()
	if err := desc.Parse(cmd); err != nil {
		return err
	}

	if printFlag {
		return Dump(desc.Opt, cmd.OutOrStdout())
	}
	if err := WriteFile(desc.Opt, outputPath, overwriteFlag); err != nil {
		return err
	}
	log.Infoln("configuration written to", outputPath)
	return nil
}
