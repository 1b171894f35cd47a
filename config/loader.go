package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Load reads an optional .env file, then configuration from environment
// variables. Unset values fall back to their default tag.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config load: reading .env: %w", err)
	}

	cfg := &Config{}
	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error. Only main should call it.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		value := os.Getenv(envName)
		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		n, err := cast.ToInt64E(value)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(n)

	case reflect.Float64:
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return fmt.Errorf("invalid number: %w", err)
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := cast.ToBoolE(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks the loaded values and reports every failure at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Company.Name == "" {
		errs = append(errs, "COMPANY_NAME must not be empty")
	}
	if !hexColorPattern.MatchString(c.Company.PrimaryColor) {
		errs = append(errs, fmt.Sprintf("COMPANY_PRIMARY_COLOR (%q) must be a #RRGGBB hex color", c.Company.PrimaryColor))
	}

	if c.Quote.NumberPrefix == "" || c.Quote.InlandPrefix == "" {
		errs = append(errs, "QUOTE_NUMBER_PREFIX and QUOTE_INLAND_PREFIX must not be empty")
	}
	if c.Quote.NumberPrefix == c.Quote.InlandPrefix {
		errs = append(errs, "QUOTE_NUMBER_PREFIX and QUOTE_INLAND_PREFIX must differ")
	}
	if c.Quote.ValidityDays <= 0 {
		errs = append(errs, "QUOTE_VALIDITY_DAYS must be positive")
	}
	if c.Quote.DefaultMargin < 0 || c.Quote.DefaultMargin > 1000 {
		errs = append(errs, "QUOTE_DEFAULT_MARGIN must be between 0 and 1000")
	}
	validRenderers := map[string]bool{"raster": true, "vector": true}
	if !validRenderers[strings.ToLower(c.Quote.Renderer)] {
		errs = append(errs, fmt.Sprintf("QUOTE_PDF_RENDERER (%q) must be one of: raster, vector", c.Quote.Renderer))
	}

	if c.Import.MaxUploadBytes <= 0 {
		errs = append(errs, "IMPORT_MAX_UPLOAD_BYTES must be positive")
	}
	if c.Import.VisibleErrors <= 0 {
		errs = append(errs, "IMPORT_VISIBLE_ERRORS must be positive")
	}

	switch strings.ToLower(c.Email.Provider) {
	case "resend":
		if c.Email.ResendAPIKey == "" {
			errs = append(errs, "RESEND_API_KEY is required when EMAIL_PROVIDER=resend")
		}
	case "smtp", "none":
	default:
		errs = append(errs, fmt.Sprintf("EMAIL_PROVIDER (%q) must be one of: resend, smtp, none", c.Email.Provider))
	}

	if c.Jobs.ExpirySchedule == "" || c.Jobs.ReminderSchedule == "" {
		errs = append(errs, "JOB_QUOTE_EXPIRY_CRON and JOB_REMINDER_CRON must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Default returns the configuration built from default tags only.
// Tests use it to avoid depending on the process environment.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(reflect.ValueOf(cfg).Elem())
	return cfg
}

func applyDefaults(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)
		if field.Type.Kind() == reflect.Struct {
			applyDefaults(fieldVal)
			continue
		}
		if def := field.Tag.Get("default"); def != "" {
			_ = setField(fieldVal, def)
		}
	}
}

// String returns a log-safe representation with secrets masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Company: {Name: %q}, ", c.Company.Name)
	fmt.Fprintf(&b, "Quote: {Prefix: %q, InlandPrefix: %q, ValidityDays: %d, DefaultMargin: %g, Renderer: %q}, ",
		c.Quote.NumberPrefix, c.Quote.InlandPrefix, c.Quote.ValidityDays, c.Quote.DefaultMargin, c.Quote.Renderer)
	fmt.Fprintf(&b, "Import: {MaxUploadBytes: %d, VisibleErrors: %d}, ", c.Import.MaxUploadBytes, c.Import.VisibleErrors)
	key := ""
	if c.Email.ResendAPIKey != "" {
		key = "[MASKED]"
	}
	fmt.Fprintf(&b, "Email: {Provider: %q, ResendAPIKey: %q, From: %q}", c.Email.Provider, key, c.Email.From)
	b.WriteString("}")
	return b.String()
}
