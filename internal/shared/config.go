package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var DefaultAllowedOrigins = []string{
	"https://baby-monitoring-app.onrender.com",
	"https://baby-monitoring-client.onrender.com",
}

type ServerConfig struct {
	Port           string
	Production     bool
	APIKey         string
	DeviceID       string
	AllowedOrigins []string

	// Store selects the reading backend: "memory" or "sqlite".
	Store     string
	SQLiteDSN string

	// MQTTAddr enables the embedded broker when set, e.g. ":1883".
	MQTTAddr string
	LogLevel slog.Level
}

// LoadServerConfig reads the server settings from the environment.
// Variables in envFile are loaded first but never override ones already set.
func LoadServerConfig(envFile string) (*ServerConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	c := &ServerConfig{
		Port:       getenv("PORT", "5000"),
		Production: os.Getenv("NODE_ENV") == "production",
		APIKey:     getenv("API_KEY", "your-secret-api-key"),
		DeviceID:   getenv("DEVICE_ID", "baby-monitor-01"),
		Store:      getenv("BM_STORE", "memory"),
		SQLiteDSN:  getenv("BM_SQLITE_DSN", ":memory:"),
		MQTTAddr:   os.Getenv("BM_MQTT_ADDR"),
	}

	c.AllowedOrigins = DefaultAllowedOrigins
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}

	if err := c.LogLevel.UnmarshalText([]byte(getenv("BM_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("BM_LOG_LEVEL: %w", err)
	}

	switch c.Store {
	case "memory", "sqlite":
	default:
		return nil, fmt.Errorf("BM_STORE: unknown store %q", c.Store)
	}
	return c, nil
}

func (c *ServerConfig) Environment() string {
	if c.Production {
		return "Production"
	}
	return "Development"
}

type DeviceConfig struct {
	ServerURL       string `yaml:"server_url"`
	APIKey          string `yaml:"api_key"`
	DeviceID        string `yaml:"device_id"`
	IntervalSeconds int    `yaml:"interval_seconds"`

	// Transport is "http" or "mqtt".
	Transport  string `yaml:"transport"`
	MQTTBroker string `yaml:"mqtt_broker"`
	MQTTTopic  string `yaml:"mqtt_topic"`

	// FieldStyle "arduino" sends tempDHT/humid/soundValue instead of the
	// canonical field names.
	FieldStyle string `yaml:"field_style"`
}

func LoadDeviceConfig(path string) (*DeviceConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c DeviceConfig
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if c.ServerURL == "" {
		c.ServerURL = "http://localhost:5000"
	}
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = 10
	}
	if c.Transport == "" {
		c.Transport = "http"
	}
	if c.MQTTBroker == "" {
		c.MQTTBroker = "tcp://localhost:1883"
	}
	if c.MQTTTopic == "" {
		c.MQTTTopic = TopicUpdate
	}
	if c.FieldStyle == "" {
		c.FieldStyle = "canonical"
	}
	return &c, nil
}

func SaveDeviceConfig(path string, c *DeviceConfig) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}

// MQTT topics shared by the broker and devices.
const (
	TopicUpdate = "babymonitor/readings/update"
	TopicLatest = "babymonitor/readings/latest"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
