package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type StorageConfig struct {
	DbPath      string        `yaml:"dbPath" validate:"required|unixPath"`
	BusyTimeout time.Duration `yaml:"busyTimeout" validate:"required|min:1"`
	Location    string        `yaml:"location"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type GitHubConfig struct {
	BaseUrl string        `yaml:"baseUrl" validate:"required|fullUrl"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout" validate:"required|min:1"`
	PerPage int           `yaml:"perPage" validate:"required|int|min:1|max:100"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	WebServer Server        `yaml:"webServer"`
	Storage   StorageConfig `yaml:"storage"`
	Logger    LoggerConfig  `yaml:"logger"`
	GitHub    GitHubConfig  `yaml:"github"`
	Cache     CacheConfig   `yaml:"cache"`
	Metrics   MetricsConfig `yaml:"metrics"`
}
