package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Default constants
const (
	// DefaultStreamURL is the NHK World live HLS endpoint.
	DefaultStreamURL = "https://nhkwlive-ojp.akamaized.net/hls/live/2003459/nhkwlive-ojp-en/index.m3u8"

	// DefaultSafetyBufferMS pads the capture window on both sides of the
	// scheduled airing.
	DefaultSafetyBufferMS int64 = 40000

	// DefaultMinimumDurationMS is the shortest programme worth recording.
	DefaultMinimumDurationMS int64 = 240000

	// DefaultThreadLimit caps engine threads during post-processing.
	DefaultThreadLimit = 2

	// DefaultMinDiskGB is the free-space preflight threshold.
	DefaultMinDiskGB = 8

	// DefaultStreamRetryAttempts bounds the capture-start retry loop.
	DefaultStreamRetryAttempts = 5

	// DefaultStreamRetryDelaySecs is the fixed delay between capture retries.
	DefaultStreamRetryDelaySecs = 10

	// DefaultConfigFile is the config path probed when --config is not given.
	DefaultConfigFile = "nhk-record.toml"

	// MaxSafetyBufferMS is the largest accepted capture padding.
	MaxSafetyBufferMS int64 = 600000
)

// Config holds all configuration for the recorder.
type Config struct {
	// Directories
	SaveDir   string `toml:"save_dir" env:"SAVE_DIR"`
	WorkDir   string `toml:"work_dir" env:"WORK_DIR"` // Optional, defaults to SaveDir
	AssetsDir string `toml:"assets_dir" env:"ASSETS_DIR"`
	LogDir    string `toml:"log_dir" env:"LOG_DIR"` // Optional, defaults to SaveDir/logs

	// Stream capture
	StreamURL         string `toml:"stream_url" env:"STREAM_URL"`
	SafetyBufferMS    int64  `toml:"safety_buffer_ms" env:"SAFETY_BUFFER_MS"`
	MinimumDurationMS int64  `toml:"minimum_duration_ms" env:"MINIMUM_DURATION_MS"`

	// Post-processing
	TrimVideo     bool `toml:"trim_video" env:"TRIM_VIDEO"`
	CropVideo     bool `toml:"crop_video" env:"CROP_VIDEO"`
	KeepUntrimmed bool `toml:"keep_untrimmed" env:"KEEP_UNTRIMMED"`
	ThreadLimit   int  `toml:"thread_limit" env:"THREAD_LIMIT"`

	// Preflight and retry
	MinDiskGB            int `toml:"min_disk_gb" env:"MIN_DISK_GB"`
	StreamRetryAttempts  int `toml:"stream_retry_attempts" env:"STREAM_RETRY_ATTEMPTS"`
	StreamRetryDelaySecs int `toml:"stream_retry_delay_secs" env:"STREAM_RETRY_DELAY_SECS"`

	// Metrics listener address, empty disables the endpoint
	MetricsAddr string `toml:"metrics_addr" env:"METRICS_ADDR"`

	// Schedule
	ScheduleBaseURL string   `toml:"schedule.base_url" env:"SCHEDULE_BASE_URL"`
	MatchPatterns   []string `toml:"schedule.match_patterns" env:"MATCH_PATTERNS"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		StreamURL:            DefaultStreamURL,
		SafetyBufferMS:       DefaultSafetyBufferMS,
		MinimumDurationMS:    DefaultMinimumDurationMS,
		TrimVideo:            true,
		CropVideo:            true,
		ThreadLimit:          DefaultThreadLimit,
		MinDiskGB:            DefaultMinDiskGB,
		StreamRetryAttempts:  DefaultStreamRetryAttempts,
		StreamRetryDelaySecs: DefaultStreamRetryDelaySecs,
	}
}

// Load fills cfg with proper precedence: CLI args > env vars > config file.
// Flags bound to cfg fields and explicitly set via CLI are not overwritten.
// A missing config file is not an error; the defaults already in cfg stand.
func Load(cfg *Config, path string, cmd *cobra.Command) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	// Build set of flags explicitly changed via CLI
	changedFlags := make(map[string]bool)
	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				changedFlags[f.Name] = true
			}
		})
	}

	// Load TOML file if it exists
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			var file map[string]any
			if err := toml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("failed to parse config file %s: %w", path, err)
			}

			for i := 0; i < v.NumField(); i++ {
				field := v.Field(i)
				fieldType := t.Field(i)

				// Skip if this flag was explicitly set via CLI
				if changedFlags[fieldNameToFlag(fieldType.Name)] {
					continue
				}

				if tomlPath := fieldType.Tag.Get("toml"); tomlPath != "" {
					if value := getNestedValue(file, tomlPath); value != nil {
						setFieldValue(field, value)
					}
				}
			}
		case errors.Is(err, fs.ErrNotExist):
			// A missing file is not an error
		default:
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	// Apply environment variable overrides (skip CLI-set flags)
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if changedFlags[fieldNameToFlag(fieldType.Name)] {
			continue
		}

		if envKey := fieldType.Tag.Get("env"); envKey != "" {
			if envValue := os.Getenv("NHK_RECORD_" + envKey); envValue != "" {
				setFieldValueFromString(field, envValue)
			}
		}
	}

	return nil
}

// fieldNameToFlag converts a struct field name to a CLI flag name,
// keeping runs of uppercase letters as one word.
// Example: "SafetyBufferMS" -> "safety-buffer-ms", "StreamURL" -> "stream-url".
func fieldNameToFlag(fieldName string) string {
	runes := []rune(fieldName)
	var result []rune
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
				result = append(result, '-')
			}
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}

// getNestedValue retrieves a value from nested map using dot notation.
func getNestedValue(data map[string]any, path string) any {
	parts := strings.Split(path, ".")
	current := data

	for i, part := range parts {
		if i == len(parts)-1 {
			return current[part]
		}
		if next, ok := current[part].(map[string]any); ok {
			current = next
		} else {
			return nil
		}
	}
	return nil
}

// setFieldValue sets a field value using reflection.
func setFieldValue(field reflect.Value, value any) {
	if !field.CanSet() {
		return
	}

	switch field.Kind() {
	case reflect.String:
		if s, ok := value.(string); ok {
			field.SetString(s)
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int64:
		if i, ok := value.(int64); ok {
			field.SetInt(i)
		} else if i, intOk := value.(int); intOk {
			field.SetInt(int64(i))
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			if arr, ok := value.([]any); ok {
				slice := make([]string, len(arr))
				for i, v := range arr {
					if s, strOk := v.(string); strOk {
						slice[i] = s
					}
				}
				field.Set(reflect.ValueOf(slice))
			}
		}
	}
}

// setFieldValueFromString sets a field value from string (for env vars).
func setFieldValueFromString(field reflect.Value, value string) {
	if !field.CanSet() {
		return
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		if b, err := strconv.ParseBool(value); err == nil {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int64:
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			field.SetInt(i)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			// Parse comma-separated values for env vars
			parts := strings.Split(value, ",")
			slice := make([]string, len(parts))
			for i, part := range parts {
				slice[i] = strings.TrimSpace(part)
			}
			field.Set(reflect.ValueOf(slice))
		}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SaveDir) == "" {
		return ErrMissingSaveDir
	}

	if strings.TrimSpace(c.StreamURL) == "" {
		return ErrMissingStreamURL
	}

	if c.SafetyBufferMS < 0 || c.SafetyBufferMS > MaxSafetyBufferMS {
		return fmt.Errorf("%w: safety_buffer_ms must be 0-%d, got %d",
			ErrInvalidSafetyBuffer, MaxSafetyBufferMS, c.SafetyBufferMS)
	}

	if c.MinimumDurationMS < 0 {
		return fmt.Errorf("%w: minimum_duration_ms must be >= 0, got %d",
			ErrInvalidDuration, c.MinimumDurationMS)
	}

	if c.ThreadLimit < 0 {
		return fmt.Errorf("%w: thread_limit must be >= 0, got %d",
			ErrInvalidThreadLimit, c.ThreadLimit)
	}

	if c.StreamRetryAttempts < 1 {
		return fmt.Errorf("%w: stream_retry_attempts must be >= 1, got %d",
			ErrInvalidRetry, c.StreamRetryAttempts)
	}

	if c.StreamRetryDelaySecs < 1 {
		return fmt.Errorf("%w: stream_retry_delay_secs must be >= 1, got %d",
			ErrInvalidRetry, c.StreamRetryDelaySecs)
	}

	for _, p := range c.MatchPatterns {
		if _, err := regexp.Compile("(?i)" + p); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidPattern, p, err)
		}
	}

	return nil
}

// GetWorkDir returns the capture directory, falling back to SaveDir if not set.
func (c *Config) GetWorkDir() string {
	if c.WorkDir != "" {
		return c.WorkDir
	}
	return c.SaveDir
}

// GetLogDir returns the log directory, falling back to SaveDir/logs if not set.
func (c *Config) GetLogDir() string {
	if c.LogDir != "" {
		return c.LogDir
	}
	return filepath.Join(c.SaveDir, "logs")
}
