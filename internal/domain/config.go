package domain

// Config mirrors ~/.sheetql/config.yaml.
type Config struct {
	ConfigFormatVersion string           `yaml:"config_format_version"`
	Provider            ProviderSettings `yaml:"provider"`
	Database            DatabaseSettings `yaml:"database"`
	Server              ServerSettings   `yaml:"server"`
	Safety              SafetySettings   `yaml:"safety"`
	Audit               AuditSettings    `yaml:"audit"`
}

// ProviderSettings describes the completion provider endpoint.
type ProviderSettings struct {
	Endpoint       string  `yaml:"endpoint"`
	ModelID        string  `yaml:"model_id"`
	AuthEnvVar     string  `yaml:"auth_env_var"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout"`
}

// DatabaseSettings selects the data store the generated SQL runs against.
type DatabaseSettings struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	// DSN is the database path (sqlite) or connection string (postgres).
	DSN string `yaml:"dsn"`
	// CatalogPath is the local SQLite file holding the spreadsheet catalog.
	// It equals DSN in sqlite mode.
	CatalogPath string `yaml:"catalog_path"`
	// MaxRows caps how many rows a single query may return.
	MaxRows int `yaml:"max_rows"`
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Listen string `yaml:"listen"`
}

// SafetySettings defines the SQL safety gate behavior.
type SafetySettings struct {
	RulesFile string `yaml:"rules_file"`
}

// AuditSettings configures the audit log store.
type AuditSettings struct {
	Path string `yaml:"path"`
}
