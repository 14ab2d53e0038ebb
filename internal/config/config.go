package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DelayModeCumulative reports the flow's delay sum as its delay.
	DelayModeCumulative = "cumulative"
	// DelayModePerPacket divides the delay sum by the number of received packets.
	DelayModePerPacket = "per_packet"

	// MissingPolicyAbort fails the whole run when one algorithm has no usable flow data.
	MissingPolicyAbort = "abort"
	// MissingPolicyExclude drops algorithms without usable flow data from the run.
	MissingPolicyExclude = "exclude"

	// SourceFlowmon reads an ns-3 FlowMonitor XML document.
	SourceFlowmon = "flowmon"
	// SourcePcap reads a sender-side and a receiver-side pcap capture.
	SourcePcap = "pcap"
)

// sqlIdentifier matches table names that are safe to splice into SQL unquoted.
var sqlIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DefaultPalette is the bar palette of the reference run.
var DefaultPalette = []string{"#00b4d8", "#ff6b6b", "#90be6d", "#ffd166"}

// AlgorithmDef binds an algorithm label to the simulation output describing it.
type AlgorithmDef struct {
	Label        string `yaml:"label" json:"label"`
	Source       string `yaml:"source" json:"source,omitempty"`
	Document     string `yaml:"document" json:"document,omitempty"`
	SenderPcap   string `yaml:"sender_pcap" json:"sender_pcap,omitempty"`
	ReceiverPcap string `yaml:"receiver_pcap" json:"receiver_pcap,omitempty"`
}

// ComparisonConfig holds the algorithms to compare and the reduction settings.
type ComparisonConfig struct {
	Window        string         `yaml:"window"`
	DelayMode     string         `yaml:"delay_mode"`
	MissingPolicy string         `yaml:"missing_policy"`
	Algorithms    []AlgorithmDef `yaml:"algorithms"`
}

// WindowSeconds returns the parsed observation window in seconds.
func (c ComparisonConfig) WindowSeconds() (float64, error) {
	d, err := time.ParseDuration(c.Window)
	if err != nil {
		return 0, fmt.Errorf("invalid comparison window: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("comparison window must be a positive duration, got %s", c.Window)
	}
	return d.Seconds(), nil
}

// RenderConfig holds the chart output settings.
type RenderConfig struct {
	Enabled    bool     `yaml:"enabled"`
	OutputDir  string   `yaml:"output_dir"`
	WidthInch  float64  `yaml:"width_inch"`
	HeightInch float64  `yaml:"height_inch"`
	Palette    []string `yaml:"palette"`
}

// ClickHouseConfig holds the connection details for ClickHouse.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// PostgresConfig holds the connection details for PostgreSQL.
type PostgresConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// WriterDef defines a single report writer.
type WriterDef struct {
	Type       string           `yaml:"type"`
	Enabled    bool             `yaml:"enabled"`
	Path       string           `yaml:"path"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Postgres   PostgresConfig   `yaml:"postgres"`
}

// PublisherConfig holds the NATS settings for report announcements.
type PublisherConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// APIConfig holds the HTTP API settings. Input paths named in requests must
// resolve inside DocumentsRoot.
type APIConfig struct {
	ListenAddr    string `yaml:"listen_addr"`
	DocumentsRoot string `yaml:"documents_root"`
}

// RPCConfig holds the gRPC server settings.
type RPCConfig struct {
	ListenAddr    string `yaml:"listen_addr"`
	DocumentsRoot string `yaml:"documents_root"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Comparison ComparisonConfig `yaml:"comparison"`
	Render     RenderConfig     `yaml:"render"`
	Writers    []WriterDef      `yaml:"writers"`
	Publisher  PublisherConfig  `yaml:"publisher"`
	API        APIConfig        `yaml:"api"`
	RPC        RPCConfig        `yaml:"rpc"`
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills every unset field with the reference-run value.
func (c *Config) ApplyDefaults() {
	if c.Comparison.Window == "" {
		c.Comparison.Window = "5s"
	}
	if c.Comparison.DelayMode == "" {
		c.Comparison.DelayMode = DelayModeCumulative
	}
	if c.Comparison.MissingPolicy == "" {
		c.Comparison.MissingPolicy = MissingPolicyAbort
	}
	for i := range c.Comparison.Algorithms {
		if c.Comparison.Algorithms[i].Source == "" {
			c.Comparison.Algorithms[i].Source = SourceFlowmon
		}
	}
	if c.Render.OutputDir == "" {
		c.Render.OutputDir = "."
	}
	if c.Render.WidthInch <= 0 {
		c.Render.WidthInch = 8
	}
	if c.Render.HeightInch <= 0 {
		c.Render.HeightInch = 6
	}
	if len(c.Render.Palette) == 0 {
		c.Render.Palette = append([]string(nil), DefaultPalette...)
	}
	if c.Publisher.Subject == "" {
		c.Publisher.Subject = "tcpspectra.reports"
	}
	if c.API.ListenAddr == "" {
		c.API.ListenAddr = ":8080"
	}
	if c.RPC.ListenAddr == "" {
		c.RPC.ListenAddr = ":9090"
	}
	if c.API.DocumentsRoot == "" {
		c.API.DocumentsRoot = "."
	}
	if c.RPC.DocumentsRoot == "" {
		c.RPC.DocumentsRoot = "."
	}
}

// Validate checks the configuration for values the comparison cannot run with.
func (c *Config) Validate() error {
	if _, err := c.Comparison.WindowSeconds(); err != nil {
		return err
	}
	switch c.Comparison.DelayMode {
	case DelayModeCumulative, DelayModePerPacket:
	default:
		return fmt.Errorf("unknown delay_mode: '%s'", c.Comparison.DelayMode)
	}
	switch c.Comparison.MissingPolicy {
	case MissingPolicyAbort, MissingPolicyExclude:
	default:
		return fmt.Errorf("unknown missing_policy: '%s'", c.Comparison.MissingPolicy)
	}
	if err := ValidateAlgorithms(c.Comparison.Algorithms); err != nil {
		return err
	}
	for _, hex := range c.Render.Palette {
		if _, err := ParseHexColor(hex); err != nil {
			return fmt.Errorf("invalid palette entry: %w", err)
		}
	}
	for _, w := range c.Writers {
		if !w.Enabled {
			continue
		}
		switch w.Type {
		case "json", "csv":
			if w.Path == "" {
				return fmt.Errorf("writer '%s' requires a path", w.Type)
			}
		case "clickhouse":
			if w.ClickHouse.Host == "" {
				return fmt.Errorf("clickhouse writer requires a host")
			}
		case "postgres":
			if w.Postgres.DSN == "" {
				return fmt.Errorf("postgres writer requires a dsn")
			}
			if w.Postgres.Table != "" && !sqlIdentifier.MatchString(w.Postgres.Table) {
				return fmt.Errorf("invalid postgres table name: '%s'", w.Postgres.Table)
			}
		default:
			return fmt.Errorf("unknown writer type: '%s'", w.Type)
		}
	}
	if c.Publisher.Enabled && c.Publisher.NATSURL == "" {
		return fmt.Errorf("publisher is enabled but nats_url is empty")
	}
	return nil
}

// ValidateAlgorithms checks an ordered algorithm list. Labels must be unique and
// every definition must name the inputs its source type needs.
func ValidateAlgorithms(defs []AlgorithmDef) error {
	if len(defs) == 0 {
		return fmt.Errorf("no algorithms configured")
	}
	seen := make(map[string]struct{}, len(defs))
	for i, def := range defs {
		label := strings.TrimSpace(def.Label)
		if label == "" {
			return fmt.Errorf("algorithm #%d has an empty label", i+1)
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("duplicate algorithm label: '%s'", label)
		}
		seen[label] = struct{}{}

		switch def.Source {
		case SourceFlowmon, "":
			if def.Document == "" {
				return fmt.Errorf("algorithm '%s': flowmon source requires a document", label)
			}
		case SourcePcap:
			if def.SenderPcap == "" || def.ReceiverPcap == "" {
				return fmt.Errorf("algorithm '%s': pcap source requires sender_pcap and receiver_pcap", label)
			}
		default:
			return fmt.Errorf("algorithm '%s': unknown source type '%s'", label, def.Source)
		}
	}
	return nil
}
