package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Backend struct {
		// Type routes finished passes: kafka, clickhouse, or both.
		Type string `yaml:"type"`
	} `yaml:"backend"`
	MarketData struct {
		// Source selects the funnel's bar supply: clickhouse or http.
		Source   string        `yaml:"source"`
		BaseURL  string        `yaml:"base_url"`
		APIKey   string        `yaml:"api_key"`
		Timeout  time.Duration `yaml:"timeout"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
		RPSCap   float64       `yaml:"rps_cap"`
		RPSRate  float64       `yaml:"rps_rate"`
	} `yaml:"marketdata"`
	Stream struct {
		Enabled        bool          `yaml:"enabled"`
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		MaxRPS         int           `yaml:"max_rps"`
		BufferSize     int           `yaml:"buffer_size"`
	} `yaml:"stream"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		ResultTopic  string   `yaml:"result_topic"`
		SummaryTopic string   `yaml:"summary_topic"`
		RequestTopic string   `yaml:"request_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Cache struct {
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		MemorySize int           `yaml:"memory_size"`
		MemoryTTL  time.Duration `yaml:"memory_ttl"`
	} `yaml:"cache"`
	Reference struct {
		Table string        `yaml:"table"`
		TTL   time.Duration `yaml:"ttl"`
	} `yaml:"reference"`
	Scan struct {
		Period                string         `yaml:"period"`
		BatchSize             int            `yaml:"batch_size"`
		Stage1PriceChangeMin  float64        `yaml:"stage1_price_change_min"`
		Stage1TurnoverMin     float64        `yaml:"stage1_turnover_min"`
		Stage1VolumeRatioMin  float64        `yaml:"stage1_volume_ratio_min"`
		Stage2VolumeRatioMin  float64        `yaml:"stage2_volume_ratio_min"`
		Stage2ActivityMin     float64        `yaml:"stage2_activity_min"`
		Stage2TurnoverMin     float64        `yaml:"stage2_turnover_min"`
		Stage2RequiredDims    int            `yaml:"stage2_required_abnormal_dims"`
		MultiprocessThreshold int            `yaml:"multiprocess_threshold"`
		MaxWorkers            int            `yaml:"max_workers"`
		TopN                  int            `yaml:"top_n"`
		WindowBars            map[string]int `yaml:"window_bars"`
		Schedule              string         `yaml:"schedule"`
	} `yaml:"scan"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("STREAM_API_KEY"); v != "" {
		c.Stream.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Stream.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("MARKETDATA_SOURCE"); v != "" {
		c.MarketData.Source = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_RESULT_TOPIC"); v != "" {
		c.Kafka.ResultTopic = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Backend.Type {
	case "kafka", "clickhouse", "both":
	case "":
		return fmt.Errorf("backend.type is required")
	default:
		return fmt.Errorf("backend.type must be 'kafka', 'clickhouse' or 'both', got '%s'", c.Backend.Type)
	}
	switch c.MarketData.Source {
	case "clickhouse", "http":
	case "":
		return fmt.Errorf("marketdata.source is required")
	default:
		return fmt.Errorf("marketdata.source must be 'clickhouse' or 'http', got '%s'", c.MarketData.Source)
	}
	if c.MarketData.Source == "http" && c.MarketData.BaseURL == "" {
		return fmt.Errorf("marketdata.base_url is required for http source")
	}
	if c.Stream.Enabled && c.Stream.WebSocketURL == "" {
		return fmt.Errorf("stream.websocket_url is required when stream is enabled")
	}
	if c.Scan.Stage2RequiredDims < 0 || c.Scan.Stage2RequiredDims > 3 {
		return fmt.Errorf("scan.stage2_required_abnormal_dims must be 0..3")
	}
	return nil
}
