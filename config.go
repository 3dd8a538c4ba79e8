package imagefield

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gobeaver/beaver-kit/config"

	"github.com/gobeaver/imagefield/filevalidator"
)

var validate = validator.New()

// checksumNone is the ChecksumAlgorithm config value that turns
// checksumming off. An empty env value falls back to the default.
const checksumNone = "none"

type Config struct {
	// Storage driver holding uploaded files (local, memory)
	Driver string `env:"IMAGEFIELD_DRIVER,default:local" validate:"required,oneof=local memory"`

	// Local driver configuration
	LocalBasePath string `env:"IMAGEFIELD_LOCAL_BASE_PATH,default:./uploads" validate:"required_if=Driver local"`

	// Memory driver configuration
	MemoryMaxSize int64 `env:"IMAGEFIELD_MEMORY_MAX_SIZE,default:0" validate:"gte=0"` // 0 = unlimited

	// Field defaults
	Required bool `env:"IMAGEFIELD_REQUIRED,default:false"`

	// Image limits, 0 = unlimited
	MaxFileSize int64 `env:"IMAGEFIELD_MAX_FILE_SIZE,default:0" validate:"gte=0"`
	MaxWidth    int   `env:"IMAGEFIELD_MAX_WIDTH,default:0" validate:"gte=0"`
	MaxHeight   int   `env:"IMAGEFIELD_MAX_HEIGHT,default:0" validate:"gte=0"`
	MaxPixels   int   `env:"IMAGEFIELD_MAX_PIXELS,default:0" validate:"gte=0"`

	// Fingerprint of accepted images; "none" disables it
	ChecksumAlgorithm string `env:"IMAGEFIELD_CHECKSUM_ALGORITHM,default:xxhash" validate:"oneof=sha256 crc32 xxhash none"`

	LogLevel string `env:"IMAGEFIELD_LOG_LEVEL,default:info" validate:"oneof=debug info warn error"`
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig loads config from environment variables under a custom prefix
// instead of the default BEAVER_.
func LoadConfig(prefix string) (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: prefix}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Limits returns the configured image limits.
func (c *Config) Limits() *filevalidator.ImageValidator {
	return &filevalidator.ImageValidator{
		MaxFileSize: c.MaxFileSize,
		MaxWidth:    c.MaxWidth,
		MaxHeight:   c.MaxHeight,
		MaxPixels:   c.MaxPixels,
	}
}

// FieldOptions translates the config into options for NewImageFileField.
func (c *Config) FieldOptions(logger *slog.Logger) []FieldOption {
	checksum := ChecksumAlgorithm(c.ChecksumAlgorithm)
	if c.ChecksumAlgorithm == checksumNone {
		checksum = ""
	}

	opts := []FieldOption{
		WithLimits(c.Limits()),
		WithChecksum(checksum),
		WithLogger(logger),
	}
	if c.Required {
		opts = append(opts, WithRequired())
	}
	return opts
}

// Level returns LogLevel as a slog.Level, defaulting to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a text logger writing to w at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}
