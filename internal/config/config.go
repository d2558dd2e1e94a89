package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// ErrMissingSecret is returned by Validate when no signing secret is configured.
var ErrMissingSecret = errors.New("auth jwt secret is required")

// maxBcryptInput is the longest password bcrypt accepts.
const maxBcryptInput = 72

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Path string
	}
	Log struct {
		Level string
	}
	Auth struct {
		JWTSecret        string
		TokenTTL         time.Duration
		BcryptCost       int
		MaxPasswordBytes int
		HashWorkers      int
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("TASKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("database.path", "data/tasks.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttl", "24h")
	v.SetDefault("auth.bcryptcost", bcrypt.DefaultCost)
	v.SetDefault("auth.maxpasswordbytes", maxBcryptInput)
	v.SetDefault("auth.hashworkers", runtime.NumCPU())
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "task-attachments")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")

	// JWT_SECRET is accepted for deployments that already export it
	if err := v.BindEnv("auth.jwtsecret", "TASKS_AUTH_JWTSECRET", "JWT_SECRET"); err != nil {
		return Config{}, fmt.Errorf("bind jwt secret env: %w", err)
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations the server must not start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return ErrMissingSecret
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth token ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.BcryptCost < bcrypt.DefaultCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("auth bcrypt cost must be within [%d, %d], got %d", bcrypt.DefaultCost, bcrypt.MaxCost, c.Auth.BcryptCost)
	}
	if c.Auth.MaxPasswordBytes <= 0 || c.Auth.MaxPasswordBytes > maxBcryptInput {
		return fmt.Errorf("auth max password bytes must be within [1, %d], got %d", maxBcryptInput, c.Auth.MaxPasswordBytes)
	}
	if c.Auth.HashWorkers <= 0 {
		return fmt.Errorf("auth hash workers must be positive, got %d", c.Auth.HashWorkers)
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
