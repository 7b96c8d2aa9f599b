package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// MaxSessionTTL caps the lifetime of a login session.
const MaxSessionTTL = 24 * time.Hour

// Config holds application level configuration aggregated from flags, env and config files.
type Config struct {
	Debug  bool
	Server struct {
		Addr string
	}
	Database struct {
		Path string
	}
	Storage struct {
		Backend   string
		UploadDir string
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
	Auth struct {
		SessionSecret    string
		SessionTTL       time.Duration
		CookieName       string
		CookieSecure     bool
		Hasher           string
		PBKDF2Iterations int
	}
	Session struct {
		Backend string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
}

// Load reads configuration from command line flags, environment variables and
// an optional config file. Flags win over env, env wins over the file.
func Load(args []string) (Config, error) {
	loadDotEnv()

	flags := pflag.NewFlagSet("profile-portal", pflag.ContinueOnError)
	flags.Bool("debug", false, "enable debug mode")
	configFile := flags.String("config", "", "path to a config file")
	if err := flags.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("debug", false)
	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("database.path", "data/db.sqlite")
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.uploaddir", "uploads/profile_pictures")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "profile_pictures")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("auth.sessionsecret", "")
	v.SetDefault("auth.sessionttl", MaxSessionTTL)
	v.SetDefault("auth.cookiename", "session")
	v.SetDefault("auth.cookiesecure", true)
	v.SetDefault("auth.hasher", "pbkdf2")
	v.SetDefault("auth.pbkdf2iterations", 600000)
	v.SetDefault("session.backend", "sqlite")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	if err := v.BindPFlag("debug", flags.Lookup("debug")); err != nil {
		return Config{}, fmt.Errorf("bind debug flag: %w", err)
	}

	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		_ = v.ReadInConfig() // optional file
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate checks enumerated settings and clamps the session lifetime.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "local":
		if strings.TrimSpace(c.Storage.UploadDir) == "" {
			return fmt.Errorf("storage upload dir is required")
		}
	case "s3":
		if strings.TrimSpace(c.Storage.Bucket) == "" {
			return fmt.Errorf("storage bucket is required")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Session.Backend {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}

	switch c.Auth.Hasher {
	case "pbkdf2", "bcrypt":
	default:
		return fmt.Errorf("unknown password hasher %q", c.Auth.Hasher)
	}

	if c.Auth.SessionTTL <= 0 || c.Auth.SessionTTL > MaxSessionTTL {
		c.Auth.SessionTTL = MaxSessionTTL
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "session"
	}
	return nil
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
