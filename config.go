package vrpspd

import (
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"git.solver4all.com/azaryc2s/vrpspd/lp"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config stores the solver settings.
// The values are read by viper from vrpspd.env or VRPSPD_ environment variables.
type Config struct {
	Epsilon        float64       `mapstructure:"EPSILON"`
	VehicleSpeed   float64       `mapstructure:"VEHICLE_SPEED"`
	MaxTravelTime  float64       `mapstructure:"MAX_TRAVEL_TIME"`
	Backend        string        `mapstructure:"BACKEND"`
	SimplexTol     float64       `mapstructure:"SIMPLEX_TOL"`
	NodeLimit      int           `mapstructure:"NODE_LIMIT"`
	PivotLimit     int           `mapstructure:"PIVOT_LIMIT"`
	MaxIterations  int           `mapstructure:"MAX_ITERATIONS"`
	MaxColumns     int           `mapstructure:"MAX_COLUMNS"`
	TimeLimit      time.Duration `mapstructure:"TIME_LIMIT"`
	ArtificialCost float64       `mapstructure:"ARTIFICIAL_COST"`
	Snapshots      bool          `mapstructure:"SNAPSHOTS"`
	LogLevel       int           `mapstructure:"LOG_LEVEL"`
	GurobiLog      string        `mapstructure:"GUROBI_LOG"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("EPSILON", 1e-6)
	v.SetDefault("VEHICLE_SPEED", 1.0)
	v.SetDefault("MAX_TRAVEL_TIME", 0.0)
	v.SetDefault("BACKEND", lp.BackendSimplex)
	v.SetDefault("SIMPLEX_TOL", lp.DefaultOptions().Tolerance)
	v.SetDefault("NODE_LIMIT", lp.DefaultOptions().NodeLimit)
	v.SetDefault("PIVOT_LIMIT", 0)
	v.SetDefault("MAX_ITERATIONS", 0)
	v.SetDefault("MAX_COLUMNS", 0)
	v.SetDefault("TIME_LIMIT", time.Duration(0))
	v.SetDefault("ARTIFICIAL_COST", 0.0)
	v.SetDefault("SNAPSHOTS", true)
	v.SetDefault("LOG_LEVEL", 2)
	v.SetDefault("GUROBI_LOG", lp.DefaultOptions().LogFile)
}

// DefaultConfig returns the settings used without file or environment.
func DefaultConfig() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

// LoadConfig reads path/vrpspd.env if present, after loading path/.env into
// the environment. Environment variables win over the file.
func LoadConfig(path string) (config Config, err error) {
	if err = godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return
	}
	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(path)
	v.SetConfigName("vrpspd")
	v.SetConfigType("env")
	v.SetEnvPrefix("VRPSPD")
	v.AutomaticEnv()

	err = v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return
	}
	err = v.Unmarshal(&config)
	return
}

func (c Config) SolverOptions() lp.Options {
	return lp.Options{Tolerance: c.SimplexTol, NodeLimit: c.NodeLimit, PivotLimit: c.PivotLimit, LogFile: c.GurobiLog}
}

// RunOptions translates the settings into column generation options.
func (c Config) RunOptions(logger zerolog.Logger) Options {
	return Options{
		Epsilon:                c.Epsilon,
		MaxIterations:          c.MaxIterations,
		MaxColumnsPerIteration: c.MaxColumns,
		ArtificialCost:         c.ArtificialCost,
		RecordSnapshots:        c.Snapshots,
		Logger:                 logger,
	}
}
