package config

import (
	"bytes"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type AppCfg struct {
	Name string
	Env  string
	Host string
	Port int
}

type LogCfg struct {
	Level string
}

type DBCfg struct {
	DSN         string
	MaxOpen     int
	MaxIdle     int
	AutoMigrate bool
}

type RedisCfg struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

type S3Cfg struct {
	Endpoint         string
	Region           string
	AccessKey        string
	SecretKey        string
	Bucket           string
	UsePathStyle     bool
	PresignExpireSec int
	SSE              string
}

// AICfg configures the generative providers. Format selects the wire
// protocol: "openai" or "gemini".
type AICfg struct {
	Format         string
	APIKey         string
	APIBase        string
	SeedreamAPIKey string

	TextModel    string
	ImageModel   string
	CaptionModel string

	OutputLanguage string
	TimeoutSec     int
}

// GenCfg bounds concurrent provider calls per operation class and sets the
// generation defaults.
type GenCfg struct {
	DescriptionWorkers int
	ImageWorkers       int
	QueueSize          int

	DefaultPageAspectRatio  string
	DefaultCoverAspectRatio string
	DefaultResolution       string
}

type TelemetryCfg struct {
	Enabled      bool
	OtlpEndpoint string
	SampleRatio  float64
}

type Config struct {
	App       AppCfg
	Log       LogCfg
	Database  DBCfg
	Redis     RedisCfg
	S3        S3Cfg
	AI        AICfg
	Gen       GenCfg
	Telemetry TelemetryCfg
}

func Load() (*Config, error) {
	base := viper.New()
	base.SetConfigName("config")
	base.SetConfigType("yaml")
	base.AddConfigPath("./configs")
	base.AddConfigPath(".")
	base.AutomaticEnv()
	base.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	base.SetEnvPrefix("XOBI") // e.g. XOBI_APP_PORT -> app.port

	// First assign a default value (effective regardless of whether there is a file or not)
	setDefaults(base)

	// Read the file (if any)
	if err := base.ReadInConfig(); err == nil {
		// After finding the file, manually perform one expansion of ${ENV}, and then parse it.
		path := base.ConfigFileUsed()
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		expanded := os.ExpandEnv(string(raw))

		// Load the expanded content with a new viper and copy the env settings.
		v := viper.New()
		v.SetConfigType("yaml")
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, err
		}
		v.AutomaticEnv()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.SetEnvPrefix("XOBI")
		setDefaults(v)

		cfg := new(Config)
		if err := v.Unmarshal(&cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	// No files are also allowed, using only env + default values
	cfg := new(Config)
	if err := base.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "xobi")
	v.SetDefault("app.env", "debug")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("database.maxOpen", 20)
	v.SetDefault("database.maxIdle", 5)
	v.SetDefault("database.autoMigrate", true)
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("s3.region", "auto")
	v.SetDefault("s3.usePathStyle", true)
	v.SetDefault("s3.presignExpireSec", 900)
	v.SetDefault("ai.format", "gemini")
	v.SetDefault("ai.textModel", "gemini-3-flash-preview")
	v.SetDefault("ai.imageModel", "gemini-3-pro-image-preview")
	v.SetDefault("ai.captionModel", "gemini-3-flash-preview")
	v.SetDefault("ai.outputLanguage", "zh")
	v.SetDefault("ai.timeoutSec", 180)
	v.SetDefault("gen.descriptionWorkers", 3)
	v.SetDefault("gen.imageWorkers", 2)
	v.SetDefault("gen.queueSize", 64)
	v.SetDefault("gen.defaultPageAspectRatio", "3:4")
	v.SetDefault("gen.defaultCoverAspectRatio", "1:1")
	v.SetDefault("gen.defaultResolution", "2K")
	v.SetDefault("telemetry.sampleRatio", 1.0)
}
