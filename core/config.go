package core

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env                string        `mapstructure:"env"`
		Build              string        `mapstructure:"build"`
		AppName            string        `mapstructure:"appName"`
		Debug              bool          `mapstructure:"debug"`
		TestMode           bool          `mapstructure:"testMode"`
		SecretKey          string        `mapstructure:"secretKey"`
		JWTExpirationDelta time.Duration `mapstructure:"jwtExpirationDelta"`
		RollbarToken       string        `mapstructure:"rollbarToken"`
		Server             ServerConfig  `mapstructure:"server"`
		Database           DBConfig      `mapstructure:"database"`
		Roadmap            RoadmapConfig `mapstructure:"roadmap"`
	}

	ServerConfig struct {
		Host           string `mapstructure:"host"`
		Port           int    `mapstructure:"port"`
		DisableReqLogs bool   `mapstructure:"disableReqLogs"`
	}

	DBConfig struct {
		Engine        string `mapstructure:"engine"`
		Host          string `mapstructure:"host"`
		Port          int    `mapstructure:"port"`
		Name          string `mapstructure:"name"`
		User          string `mapstructure:"user"`
		Password      string `mapstructure:"password"`
		DisableTLS    bool   `mapstructure:"disableTLS"`
		MigrationsDir string `mapstructure:"migrationsDir"`
	}

	RoadmapConfig struct {
		// Store is one of "postgres" or "memory".
		Store        string `mapstructure:"store"`
		CalendarFile string `mapstructure:"calendarFile"`
		DefaultYears int    `mapstructure:"defaultYears"`
		MaxYears     int    `mapstructure:"maxYears"`
	}
)

func (sc ServerConfig) Address() string {
	return net.JoinHostPort(sc.Host, strconv.Itoa(sc.Port))
}

func (dc DBConfig) Address() string {
	return net.JoinHostPort(dc.Host, strconv.Itoa(dc.Port))
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Anchormoms Roadmap")
	v.SetDefault("secretKey", "k3v9-rdm)p2$+48=qz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("jwtExpirationDelta", 12*time.Hour)
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "anchormoms")
	v.SetDefault("database.user", "anchormoms")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.migrationsDir", "migrations")

	v.SetDefault("roadmap.store", "postgres")
	v.SetDefault("roadmap.calendarFile", filepath.Join("config", "calendar.yaml"))
	v.SetDefault("roadmap.defaultYears", 3)
	v.SetDefault("roadmap.maxYears", 10)
}

// NewConfig builds the Config from defaults, `config/.env.<env>`, the environment,
// an optional config file and finally the given flags (nil is allowed).
// A "config" flag, when present and set, names the config file.
func NewConfig(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetDefault("env", env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, errors.Wrap(err, "binding flags")
		}
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "reading config file %s", f.Value.String())
			}
		}
	}

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	return conf, nil
}

// configDir is where the .env.<env> files live; CONFIG_DIR overrides the default "config".
func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "config"
}
