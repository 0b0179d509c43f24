// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Trajectory TrajectoryConfig `yaml:"trajectory" mapstructure:"trajectory"`
	Render     RenderConfig     `yaml:"render" mapstructure:"render"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the SQLite cache.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// FetchConfig configures the download layer.
type FetchConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	CacheDir    string `yaml:"cache_dir" mapstructure:"cache_dir"`
}

// DataConfig names the census sources and how to read them.
type DataConfig struct {
	ODURL        string  `yaml:"od_url" mapstructure:"od_url"`
	BoundaryURL  string  `yaml:"boundary_url" mapstructure:"boundary_url"`
	LabelsPath   string  `yaml:"labels_path" mapstructure:"labels_path"`
	WorkColumn   string  `yaml:"work_column" mapstructure:"work_column"`
	HomeColumn   string  `yaml:"home_column" mapstructure:"home_column"`
	WeightColumn string  `yaml:"weight_column" mapstructure:"weight_column"`
	GeoIDLength  int     `yaml:"geoid_length" mapstructure:"geoid_length"`
	GeoIDField   string  `yaml:"geoid_field" mapstructure:"geoid_field"`
	NameField    string  `yaml:"name_field" mapstructure:"name_field"`
	MinWeight    float64 `yaml:"min_weight" mapstructure:"min_weight"`
}

// TrajectoryConfig exposes the Bezier tuning knobs.
type TrajectoryConfig struct {
	CurveAngleDeg float64 `yaml:"curve_angle_deg" mapstructure:"curve_angle_deg"`
	Divisor       float64 `yaml:"divisor" mapstructure:"divisor"`
}

// RenderConfig configures the SVG outputs.
type RenderConfig struct {
	OutputDir      string  `yaml:"output_dir" mapstructure:"output_dir"`
	Width          float64 `yaml:"width" mapstructure:"width"`
	Height         float64 `yaml:"height" mapstructure:"height"`
	WeightExponent float64 `yaml:"weight_exponent" mapstructure:"weight_exponent"`
	MaxStrokeWidth float64 `yaml:"max_stroke_width" mapstructure:"max_stroke_width"`
	Title          string  `yaml:"title" mapstructure:"title"`
	MatrixMaxZones int     `yaml:"matrix_max_zones" mapstructure:"matrix_max_zones"`
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FLOWMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "flowmap.db")
	v.SetDefault("fetch.user_agent", "flowmap-cli/1.0")
	v.SetDefault("fetch.timeout_secs", 600)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.cache_dir", ".flowmap-cache")
	v.SetDefault("data.od_url", "https://lehd.ces.census.gov/data/lodes/LODES8/ny/od/ny_od_main_JT00_2021.csv.gz")
	v.SetDefault("data.boundary_url", "https://www2.census.gov/geo/tiger/TIGER2021/TRACT/tl_2021_36_tract.zip")
	v.SetDefault("data.work_column", "w_geocode")
	v.SetDefault("data.home_column", "h_geocode")
	v.SetDefault("data.weight_column", "S000")
	v.SetDefault("data.geoid_length", 11)
	v.SetDefault("data.geoid_field", "GEOID")
	v.SetDefault("data.name_field", "NAME")
	v.SetDefault("data.min_weight", 0)
	v.SetDefault("trajectory.curve_angle_deg", -90)
	v.SetDefault("trajectory.divisor", 6)
	v.SetDefault("render.output_dir", "out")
	v.SetDefault("render.width", 1600)
	v.SetDefault("render.height", 1200)
	v.SetDefault("render.weight_exponent", 0.4)
	v.SetDefault("render.max_stroke_width", 4)
	v.SetDefault("render.matrix_max_zones", 120)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
