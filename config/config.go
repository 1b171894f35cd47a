// Package config loads application settings from environment variables.
// Values here are process-wide defaults; the company_settings collection
// overrides the branding and quoting defaults at runtime.
package config

// Config holds all application configuration.
type Config struct {
	Company CompanyConfig
	Quote   QuoteConfig
	Import  ImportConfig
	Email   EmailConfig
	Jobs    JobsConfig
}

// CompanyConfig is the fallback branding printed on quotes.
type CompanyConfig struct {
	Name    string `env:"COMPANY_NAME" default:"Dismantle & Haul Brokerage"`
	Address string `env:"COMPANY_ADDRESS" default:""`
	Phone   string `env:"COMPANY_PHONE" default:""`
	Email   string `env:"COMPANY_EMAIL" default:""`
	Website string `env:"COMPANY_WEBSITE" default:""`

	// PrimaryColor is a hex color used for table headers (default: #1E3A8A)
	PrimaryColor string `env:"COMPANY_PRIMARY_COLOR" default:"#1E3A8A"`
}

// QuoteConfig holds quote numbering and pricing defaults.
type QuoteConfig struct {
	// NumberPrefix prefixes dismantle quote numbers (default: QT)
	NumberPrefix string `env:"QUOTE_NUMBER_PREFIX" default:"QT"`

	// InlandPrefix prefixes inland transport quote numbers (default: IT)
	InlandPrefix string `env:"QUOTE_INLAND_PREFIX" default:"IT"`

	// ValidityDays is how long a quote stays valid after creation (default: 30)
	ValidityDays int `env:"QUOTE_VALIDITY_DAYS" default:"30"`

	// DefaultMargin is the margin percentage applied when none is given (default: 15)
	DefaultMargin float64 `env:"QUOTE_DEFAULT_MARGIN" default:"15"`

	// Renderer selects the first PDF renderer tried: raster or vector (default: raster)
	Renderer string `env:"QUOTE_PDF_RENDERER" default:"raster"`
}

// ImportConfig holds bulk import limits.
type ImportConfig struct {
	// MaxUploadBytes caps CSV/XLSX uploads (default: 10MB)
	MaxUploadBytes int64 `env:"IMPORT_MAX_UPLOAD_BYTES" default:"10485760"`

	// VisibleErrors is how many row errors are listed before summarising the rest (default: 20)
	VisibleErrors int `env:"IMPORT_VISIBLE_ERRORS" default:"20"`
}

// EmailConfig selects the outbound notification provider.
type EmailConfig struct {
	// Provider is one of: resend, smtp, none (default: none)
	Provider string `env:"EMAIL_PROVIDER" default:"none"`

	ResendAPIKey   string `env:"RESEND_API_KEY"`
	ResendEndpoint string `env:"RESEND_ENDPOINT" default:"https://api.resend.com/emails"`

	From string `env:"EMAIL_FROM" default:"quotes@localhost"`

	// SalesTo receives quote accepted/rejected notifications (comma-separated)
	SalesTo []string `env:"EMAIL_SALES_TO"`
}

// JobsConfig holds cron expressions for background jobs.
type JobsConfig struct {
	ExpirySchedule   string `env:"JOB_QUOTE_EXPIRY_CRON" default:"15 2 * * *"`
	ReminderSchedule string `env:"JOB_REMINDER_CRON" default:"0 * * * *"`
}
