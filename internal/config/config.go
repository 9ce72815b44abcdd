package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/gradeboard/internal/analysis"
	"github.com/KaramelBytes/gradeboard/internal/parser"
)

// Global configuration structure.
type Global struct {
	// HTTP server
	ListenAddr       string `mapstructure:"listen_addr" yaml:"listen_addr" validate:"required"`
	MaxUploadMB      int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" validate:"min=1,max=512"`
	UploadRatePerMin int    `mapstructure:"upload_rate_per_min" yaml:"upload_rate_per_min" validate:"min=0"`

	// Analysis
	PassMark          float64 `mapstructure:"pass_mark" yaml:"pass_mark" validate:"gt=0"`
	DistributionWidth float64 `mapstructure:"distribution_width" yaml:"distribution_width" validate:"gt=0"`
	TiePolicy         string  `mapstructure:"tie_policy" yaml:"tie_policy" validate:"oneof=sequential competition"`
	DefaultClass      string  `mapstructure:"default_class" yaml:"default_class" validate:"required"`
	NameFallback      string  `mapstructure:"name_fallback" yaml:"name_fallback" validate:"required,contains=%d"`

	// Workbook selection
	SheetName  string `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex int    `mapstructure:"sheet_index" yaml:"sheet_index" validate:"min=0"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=json text"`
}

// Keys lists the configuration keys in display order.
var Keys = []string{
	"listen_addr", "max_upload_mb", "upload_rate_per_min",
	"pass_mark", "distribution_width", "tie_policy", "default_class", "name_fallback",
	"sheet_name", "sheet_index", "log_level", "log_format",
}

func setDefaults(v *viper.Viper) {
	d := analysis.DefaultOptions()
	v.SetDefault("listen_addr", ":3000")
	v.SetDefault("max_upload_mb", 10)
	v.SetDefault("upload_rate_per_min", 30)
	v.SetDefault("pass_mark", d.PassMark)
	v.SetDefault("distribution_width", d.BandWidth)
	v.SetDefault("tie_policy", "sequential")
	v.SetDefault("default_class", d.DefaultClass)
	v.SetDefault("name_fallback", d.NameFallback)
	v.SetDefault("sheet_name", "")
	v.SetDefault("sheet_index", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Default returns the built-in configuration.
func Default() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// DefaultPath is ~/.gradeboard/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".gradeboard", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.gradeboard/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. An explicit cfgFile must exist.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("GRADEBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".gradeboard"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

var validate = validator.New()

// Validate checks field constraints and reports every violation.
func (c *Global) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fieldKey(fe.StructField()), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func fieldKey(field string) string {
	for _, k := range Keys {
		if strings.ReplaceAll(k, "_", "") == strings.ToLower(field) {
			return k
		}
	}
	return field
}

// Set assigns a value by key, parsing it to the field type, and re-validates.
func (c *Global) Set(key, val string) error {
	prev := *c
	switch key {
	case "listen_addr":
		c.ListenAddr = val
	case "max_upload_mb", "upload_rate_per_min", "sheet_index":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %w", key, err)
		}
		switch key {
		case "max_upload_mb":
			c.MaxUploadMB = i
		case "upload_rate_per_min":
			c.UploadRatePerMin = i
		default:
			c.SheetIndex = i
		}
	case "pass_mark", "distribution_width":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for %s: %w", key, err)
		}
		if key == "pass_mark" {
			c.PassMark = f
		} else {
			c.DistributionWidth = f
		}
	case "tie_policy":
		c.TiePolicy = strings.ToLower(val)
	case "default_class":
		c.DefaultClass = val
	case "name_fallback":
		c.NameFallback = val
	case "sheet_name":
		c.SheetName = val
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_format":
		c.LogFormat = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err := c.Validate(); err != nil {
		*c = prev
		return err
	}
	return nil
}

// Get returns the display value of a key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "listen_addr":
		return c.ListenAddr, nil
	case "max_upload_mb":
		return strconv.Itoa(c.MaxUploadMB), nil
	case "upload_rate_per_min":
		return strconv.Itoa(c.UploadRatePerMin), nil
	case "pass_mark":
		return strconv.FormatFloat(c.PassMark, 'g', -1, 64), nil
	case "distribution_width":
		return strconv.FormatFloat(c.DistributionWidth, 'g', -1, 64), nil
	case "tie_policy":
		return c.TiePolicy, nil
	case "default_class":
		return c.DefaultClass, nil
	case "name_fallback":
		return c.NameFallback, nil
	case "sheet_name":
		return c.SheetName, nil
	case "sheet_index":
		return strconv.Itoa(c.SheetIndex), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// AnalysisOptions converts the analysis keys into core options.
func (c *Global) AnalysisOptions() (analysis.Options, error) {
	policy, err := analysis.RankPolicyByName(c.TiePolicy)
	if err != nil {
		return analysis.Options{}, err
	}
	return analysis.Options{
		PassMark:     c.PassMark,
		BandWidth:    c.DistributionWidth,
		Ranks:        policy,
		DefaultClass: c.DefaultClass,
		NameFallback: c.NameFallback,
	}, nil
}

// ParserOptions returns the workbook selection.
func (c *Global) ParserOptions() parser.Options {
	return parser.Options{SheetName: c.SheetName, SheetIndex: c.SheetIndex}
}
