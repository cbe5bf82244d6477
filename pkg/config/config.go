package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. ZPAM_MODEL_NAME
const EnvPrefix = "ZPAM"

// Config represents the classifier configuration
type Config struct {
	// Feature vocabulary
	Vocabulary VocabularyConfig `yaml:"vocabulary"`

	// Labelled training and test corpora
	Corpus CorpusConfig `yaml:"corpus"`

	// Parameter estimation
	Training TrainingConfig `yaml:"training"`

	// Model persistence
	Model ModelConfig `yaml:"model"`

	// Performance settings
	Performance PerformanceConfig `yaml:"performance"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`

	// Milter server settings
	Milter MilterConfig `yaml:"milter"`
}

// VocabularyConfig locates the word list that defines the features
type VocabularyConfig struct {
	Path          string `yaml:"path" validate:"required"`
	MinWordLength int    `yaml:"min_word_length" split_words:"true" validate:"gte=1"`
}

// CorpusConfig holds the four labelled corpus directories
type CorpusConfig struct {
	// "text": one plain document per file; "email": RFC 5322 messages
	Format string `yaml:"format" validate:"oneof=text email"`

	TrainSpam string `yaml:"train_spam" split_words:"true" validate:"required"`
	TrainHam  string `yaml:"train_ham" split_words:"true" validate:"required"`
	TestSpam  string `yaml:"test_spam" split_words:"true" validate:"required"`
	TestHam   string `yaml:"test_ham" split_words:"true" validate:"required"`
}

// TrainingConfig contains parameter estimation settings
type TrainingConfig struct {
	Smoothing float64 `yaml:"smoothing" validate:"gt=0"`

	// Expected corpus sizes; training fails if the directories disagree.
	// 0 disables the check.
	ExpectedSpamCount int `yaml:"expected_spam_count" split_words:"true" validate:"gte=0"`
	ExpectedHamCount  int `yaml:"expected_ham_count" split_words:"true" validate:"gte=0"`
}

// ModelConfig selects where trained models are stored
type ModelConfig struct {
	Name    string `yaml:"name" validate:"required"`
	Backend string `yaml:"backend" validate:"oneof=file redis badger"`

	// file backend
	Dir string `yaml:"dir"`

	Redis  RedisConfig  `yaml:"redis"`
	Badger BadgerConfig `yaml:"badger"`
}

// RedisConfig contains Redis store settings
type RedisConfig struct {
	URL       string `yaml:"url"`
	KeyPrefix string `yaml:"key_prefix" split_words:"true"`
	Database  int    `yaml:"database" validate:"gte=0,lte=15"`
	TimeoutMs int    `yaml:"timeout_ms" split_words:"true" validate:"gte=0"`
}

// BadgerConfig contains embedded store settings
type BadgerConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory" split_words:"true"`
}

// PerformanceConfig contains performance settings
type PerformanceConfig struct {
	Workers         int  `yaml:"workers" validate:"gte=1,lte=1024"`
	EnableProfiling bool `yaml:"enable_profiling" split_words:"true"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
	File   string `yaml:"file"`
}

// MilterConfig contains milter server settings
type MilterConfig struct {
	// Network and address for milter socket
	Network string `yaml:"network" validate:"oneof=tcp unix"`
	Address string `yaml:"address" validate:"required"`

	ReadTimeoutMs  int `yaml:"read_timeout_ms" split_words:"true" validate:"gte=1000"`
	WriteTimeoutMs int `yaml:"write_timeout_ms" split_words:"true" validate:"gte=1000"`

	// Protocol options (what events to skip)
	SkipConnect bool `yaml:"skip_connect" split_words:"true"`
	SkipHelo    bool `yaml:"skip_helo" split_words:"true"`
	SkipMail    bool `yaml:"skip_mail" split_words:"true"`
	SkipRcpt    bool `yaml:"skip_rcpt" split_words:"true"`

	MaxConcurrentConnections int `yaml:"max_concurrent_connections" split_words:"true" validate:"gte=1"`
	GracefulShutdownTimeout  int `yaml:"graceful_shutdown_timeout_ms" split_words:"true" validate:"gte=0"`

	// Bytes of body kept for classification
	MaxBodyBytes int `yaml:"max_body_bytes" split_words:"true" validate:"gte=1024"`

	// Messages with P(spam|x) >= RejectProbability are rejected when RejectSpam is set
	RejectSpam        bool    `yaml:"reject_spam" split_words:"true"`
	RejectProbability float64 `yaml:"reject_probability" split_words:"true" validate:"gt=0.5,lte=1"`
	RejectMessage     string  `yaml:"reject_message" split_words:"true"`

	// Header modifications
	AddSpamHeaders   bool   `yaml:"add_spam_headers" split_words:"true"`
	SpamHeaderPrefix string `yaml:"spam_header_prefix" split_words:"true"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Vocabulary: VocabularyConfig{
			Path:          "dictionnaire1000en.txt",
			MinWordLength: 3,
		},
		Corpus: CorpusConfig{
			Format:    "text",
			TrainSpam: "baseapp/spam",
			TrainHam:  "baseapp/ham",
			TestSpam:  "basetest/spam",
			TestHam:   "basetest/ham",
		},
		Training: TrainingConfig{
			Smoothing: 1.0,
		},
		Model: ModelConfig{
			Name:    "default",
			Backend: "file",
			Dir:     "models",
			Redis: RedisConfig{
				URL:       "redis://localhost:6379",
				KeyPrefix: "zpam:nb",
				TimeoutMs: 5000,
			},
			Badger: BadgerConfig{
				Path: "models/badger",
			},
		},
		Performance: PerformanceConfig{
			Workers: 8,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Milter: MilterConfig{
			Network:                  "tcp",
			Address:                  "127.0.0.1:7357",
			ReadTimeoutMs:            10000,
			WriteTimeoutMs:           10000,
			MaxConcurrentConnections: 1000,
			GracefulShutdownTimeout:  30000,
			MaxBodyBytes:             1 << 20,
			RejectProbability:        0.99,
			RejectMessage:            "Message rejected as spam",
			AddSpamHeaders:           true,
			SpamHeaderPrefix:         "X-ZPAM-NB-",
		},
	}
}

// LoadConfig loads configuration from file, then applies environment
// overrides. An empty path starts from the defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// ApplyEnv loads a .env file from the working directory when present and
// overrides fields from ZPAM_* environment variables
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("failed to apply environment: %w", err)
	}
	return nil
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

var validate = validator.New()

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	switch c.Model.Backend {
	case "file":
		if c.Model.Dir == "" {
			return fmt.Errorf("model dir cannot be empty with the file backend")
		}
	case "redis":
		if c.Model.Redis.URL == "" {
			return fmt.Errorf("model redis url cannot be empty with the redis backend")
		}
	case "badger":
		if c.Model.Badger.Path == "" && !c.Model.Badger.InMemory {
			return fmt.Errorf("model badger path cannot be empty unless in_memory is set")
		}
	}

	if c.Milter.AddSpamHeaders && c.Milter.SpamHeaderPrefix == "" {
		return fmt.Errorf("milter spam_header_prefix cannot be empty when add_spam_headers is set")
	}

	return nil
}
