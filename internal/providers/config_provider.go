package providers

import (
	"errors"
	"fmt"
	"followtrack/internal/structures"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	dir := filepath.Dir(flags.ConfigPath)
	// A missing .env is fine, the environment may already carry the values.
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("unable to load .env: %w", err)
	}

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(dir)
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.SetDefault("storage.busyTimeout", 5*time.Second)
	v.SetDefault("storage.location", "Local")
	v.SetDefault("github.baseUrl", "https://api.github.com")
	v.SetDefault("github.timeout", 15*time.Second)
	v.SetDefault("github.perPage", 100)
	v.SetDefault("cache.ttl", 30*time.Second)

	v.BindEnv("logger.level", "FT_LOG_LEVEL")
	v.BindEnv("storage.dbPath", "FT_DB_PATH")
	v.BindEnv("cache.enabled", "FT_CACHE_ENABLED")
	v.BindEnv("cache.size", "FT_CACHE_SIZE")
	v.BindEnv("github.token", "FT_GITHUB_TOKEN")
	v.BindEnv("github.baseUrl", "FT_GITHUB_BASE_URL")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "FollowTrack"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
