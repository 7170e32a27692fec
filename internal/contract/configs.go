package contract

import (
	"fmt"
	"slices"
	"strings"

	"github.com/huangsam/formpath/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit  = 3
	MaxResultLimit      = 100
	DefaultPrecision    = 2
	DefaultRootQuestion = "1"
	DefaultPrefix       = ""
)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// MetricsRawInput holds the metric direction lists from the YAML config file.
type MetricsRawInput struct {
	Higher []string `mapstructure:"higher"`
	Lower  []string `mapstructure:"lower"`
}

// Config holds the runtime configuration.
// This struct is the "final, validated" config.
type Config struct {
	GraphBackend   schema.GraphBackend
	GraphDBConnect string // Please use env var as this is plaintext
	Neo4jUser      string
	Neo4jPassword  string // Please use env var as this is plaintext
	RootQuestion   string

	TrackingBackend   schema.TrackingBackend
	TrackingURI       string
	TrackingDBConnect string // Please use env var as this is plaintext
	ExperimentPrefix  string

	ResultLimit int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)
	UseColors   bool
	Accessible  bool
	Verbose     bool

	// Affirmative is the proposition text that unlocks restricted propositions.
	Affirmative string
	// RestrictionQuestion narrows the unlocking question to one id when set.
	RestrictionQuestion string

	Directions schema.MetricDirections

	// --- Command inputs ---
	User              string
	FormName          string
	NewFormName       string // Target name of an edited form (empty keeps the name)
	AnswersFile       string // Scripted answers instead of the terminal
	QuestionnaireFile string // YAML questionnaire to import
	ExperimentID      string
	RunID             string
	Metrics           []string // Metrics compared across runs
	FeedbackText      string
	TargetVersion     int // Migration target (-1 = latest)
	Track             bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	GraphBackend        string `mapstructure:"graph-backend"`
	GraphDBConnect      string `mapstructure:"graph-db-connect"`
	Neo4jUser           string `mapstructure:"neo4j-user"`
	Neo4jPassword       string `mapstructure:"neo4j-password"`
	RootQuestion        string `mapstructure:"root-question"`
	TrackingBackend     string `mapstructure:"tracking-backend"`
	TrackingURI         string `mapstructure:"tracking-uri"`
	TrackingDBConnect   string `mapstructure:"tracking-db-connect"`
	ExperimentPrefix    string `mapstructure:"experiment-prefix"`
	Limit               int    `mapstructure:"limit"`
	Precision           int    `mapstructure:"precision"`
	Output              string `mapstructure:"output"`
	OutputFile          string `mapstructure:"output-file"`
	Width               int    `mapstructure:"width"`
	Color               string `mapstructure:"color"`
	Accessible          bool   `mapstructure:"accessible"`
	Verbose             bool   `mapstructure:"verbose"`
	Affirmative         string `mapstructure:"affirmative"`
	RestrictionQuestion string `mapstructure:"restriction-question"`

	// --- Fields from subcommand flags ---
	User           string `mapstructure:"user"`
	Form           string `mapstructure:"form"`
	NewName        string `mapstructure:"new-name"`
	Answers        string `mapstructure:"answers"`
	File           string `mapstructure:"file"`
	Experiment     string `mapstructure:"experiment"`
	Run            string `mapstructure:"run"`
	CompareMetrics string `mapstructure:"compare-metrics"`
	Text           string `mapstructure:"text"`
	TargetVersion  int    `mapstructure:"target-version"`
	Track          bool   `mapstructure:"track"`

	// --- Metric directions from config file ---
	Metrics MetricsRawInput `mapstructure:"metrics"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Directions != nil {
		clone.Directions = make(schema.MetricDirections, len(c.Directions))
		for k, v := range c.Directions {
			clone.Directions[k] = v
		}
	}
	clone.Metrics = slices.Clone(c.Metrics)
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct. Every failure wraps ErrConfiguration.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if err := processMetricDirections(cfg, input); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, flag, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("%s is required when using %s backend", flag, backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("%s is required when using %s backend", flag, backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates graph and tracking backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Graph Backend Validation ---
	cfg.GraphBackend = schema.GraphBackend(strings.ToLower(input.GraphBackend))
	if _, ok := schema.ValidGraphBackends[cfg.GraphBackend]; !ok {
		return fmt.Errorf("invalid graph backend '%s'. must be sqlite, mysql, postgresql, neo4j", input.GraphBackend)
	}
	cfg.GraphDBConnect = input.GraphDBConnect
	cfg.Neo4jUser = input.Neo4jUser
	cfg.Neo4jPassword = input.Neo4jPassword
	if cfg.GraphBackend == schema.GraphNeo4j {
		if cfg.GraphDBConnect == "" {
			return fmt.Errorf("graph-db-connect is required when using neo4j backend (e.g., neo4j://localhost:7687)")
		}
		if !strings.Contains(cfg.GraphDBConnect, "://") {
			return fmt.Errorf("neo4j connection string must be a URI such as neo4j://host:7687")
		}
	} else if err := ValidateDatabaseConnectionString(schema.DatabaseBackend(cfg.GraphBackend), "graph-db-connect", cfg.GraphDBConnect); err != nil {
		return err
	}

	cfg.RootQuestion = strings.TrimSpace(input.RootQuestion)
	if cfg.RootQuestion == "" {
		return fmt.Errorf("root-question cannot be empty")
	}

	// --- Tracking Backend Validation ---
	cfg.TrackingBackend = schema.TrackingBackend(strings.ToLower(input.TrackingBackend))
	if _, ok := schema.ValidTrackingBackends[cfg.TrackingBackend]; !ok {
		return fmt.Errorf("invalid tracking backend '%s'. must be mlflow, sqlite, mysql, postgresql, none", input.TrackingBackend)
	}
	cfg.TrackingURI = strings.TrimRight(input.TrackingURI, "/")
	cfg.TrackingDBConnect = input.TrackingDBConnect
	cfg.ExperimentPrefix = input.ExperimentPrefix
	if cfg.TrackingBackend == schema.TrackingMLflow {
		if cfg.TrackingURI == "" {
			return fmt.Errorf("tracking-uri is required when using mlflow backend")
		}
		if !strings.HasPrefix(cfg.TrackingURI, "http://") && !strings.HasPrefix(cfg.TrackingURI, "https://") {
			return fmt.Errorf("tracking-uri must start with http:// or https:// (received %q)", cfg.TrackingURI)
		}
		return nil
	}
	if err := ValidateDatabaseConnectionString(schema.DatabaseBackend(cfg.TrackingBackend), "tracking-db-connect", cfg.TrackingDBConnect); err != nil {
		return err
	}

	// Graph and tracking SQLite stores must not share a file
	if cfg.GraphBackend == schema.GraphSQLite && cfg.TrackingBackend == schema.TrackingSQLite {
		graphPath := cfg.GraphDBConnect
		if graphPath == "" {
			graphPath = GetGraphDBFilePath()
		}
		trackingPath := cfg.TrackingDBConnect
		if trackingPath == "" {
			trackingPath = GetTrackingDBFilePath()
		}
		if graphPath == trackingPath && graphPath != ":memory:" {
			return fmt.Errorf("graph and tracking storage must use different SQLite database files. Both resolve to %q", graphPath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates the output and traversal fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Accessible = input.Accessible
	cfg.Verbose = input.Verbose
	cfg.RestrictionQuestion = strings.TrimSpace(input.RestrictionQuestion)
	cfg.User = strings.TrimSpace(input.User)
	cfg.FormName = strings.TrimSpace(input.Form)
	cfg.NewFormName = strings.TrimSpace(input.NewName)
	cfg.AnswersFile = input.Answers
	cfg.QuestionnaireFile = input.File
	cfg.ExperimentID = strings.TrimSpace(input.Experiment)
	cfg.RunID = strings.TrimSpace(input.Run)
	cfg.Metrics = ParseMetricList(input.CompareMetrics)
	cfg.FeedbackText = input.Text
	cfg.TargetVersion = input.TargetVersion
	cfg.Track = input.Track

	cfg.Affirmative = strings.TrimSpace(input.Affirmative)
	if cfg.Affirmative == "" {
		cfg.Affirmative = schema.AffirmativeAnswer
	}

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 4 {
		return fmt.Errorf("precision must be between 1 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}

	return nil
}

// processMetricDirections builds the direction table from the defaults and the config file.
// Config file lists replace the defaults of their direction.
func processMetricDirections(cfg *Config, input *ConfigRawInput) error {
	higher := schema.DefaultHigherMetrics
	if len(input.Metrics.Higher) > 0 {
		higher = trimAll(input.Metrics.Higher)
	}
	lower := schema.DefaultLowerMetrics
	if len(input.Metrics.Lower) > 0 {
		lower = trimAll(input.Metrics.Lower)
	}

	seen := make(map[string]struct{}, len(higher))
	for _, m := range higher {
		seen[m] = struct{}{}
	}
	for _, m := range lower {
		if _, dup := seen[m]; dup {
			return fmt.Errorf("metric %q cannot be both higher and lower is better", m)
		}
		if m == schema.GlobalScore {
			return fmt.Errorf("%q is computed and cannot be listed as a metric", m)
		}
	}
	if _, ok := seen[schema.GlobalScore]; ok {
		return fmt.Errorf("%q is computed and cannot be listed as a metric", schema.GlobalScore)
	}

	cfg.Directions = schema.NewMetricDirections(higher, lower)
	return nil
}

// trimAll trims every entry and drops empty ones.
func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ProcessProfilingConfig enables profiling when a file prefix is given.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
}
