package shared

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearServerEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "NODE_ENV", "API_KEY", "DEVICE_ID", "ALLOWED_ORIGINS",
		"BM_STORE", "BM_SQLITE_DSN", "BM_MQTT_ADDR", "BM_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadServerConfigDefaults(t *testing.T) {
	clearServerEnv(t)

	c, err := LoadServerConfig("")
	require.NoError(t, err)
	require.Equal(t, "5000", c.Port)
	require.False(t, c.Production)
	require.Equal(t, "Development", c.Environment())
	require.Equal(t, "your-secret-api-key", c.APIKey)
	require.Equal(t, "baby-monitor-01", c.DeviceID)
	require.Equal(t, DefaultAllowedOrigins, c.AllowedOrigins)
	require.Equal(t, "memory", c.Store)
	require.Equal(t, ":memory:", c.SQLiteDSN)
	require.Empty(t, c.MQTTAddr)
	require.Equal(t, slog.LevelInfo, c.LogLevel)
}

func TestLoadServerConfigEnv(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("API_KEY", "K")
	t.Setenv("ALLOWED_ORIGINS", "https://a.test, https://b.test,")
	t.Setenv("BM_STORE", "sqlite")
	t.Setenv("BM_LOG_LEVEL", "debug")

	c, err := LoadServerConfig("")
	require.NoError(t, err)
	require.Equal(t, "8080", c.Port)
	require.True(t, c.Production)
	require.Equal(t, "K", c.APIKey)
	require.Equal(t, []string{"https://a.test", "https://b.test"}, c.AllowedOrigins)
	require.Equal(t, "sqlite", c.Store)
	require.Equal(t, slog.LevelDebug, c.LogLevel)
}

func TestLoadServerConfigDotenv(t *testing.T) {
	clearServerEnv(t)
	os.Unsetenv("DEVICE_ID")
	t.Setenv("API_KEY", "from-env")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("API_KEY=from-file\nDEVICE_ID=crib-2\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("DEVICE_ID") })

	c, err := LoadServerConfig(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", c.APIKey)
	require.Equal(t, "crib-2", c.DeviceID)

	_, err = LoadServerConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}

func TestLoadServerConfigErrors(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("BM_STORE", "redis")
	_, err := LoadServerConfig("")
	require.Error(t, err)

	clearServerEnv(t)
	t.Setenv("BM_LOG_LEVEL", "loud")
	_, err = LoadServerConfig("")
	require.Error(t, err)
}

func TestDeviceConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_key: K\ndevice_id: crib-1\nfield_style: arduino\n"), 0600))

	c, err := LoadDeviceConfig(path)
	require.NoError(t, err)
	require.Equal(t, &DeviceConfig{
		ServerURL:       "http://localhost:5000",
		APIKey:          "K",
		DeviceID:        "crib-1",
		IntervalSeconds: 10,
		Transport:       "http",
		MQTTBroker:      "tcp://localhost:1883",
		MQTTTopic:       TopicUpdate,
		FieldStyle:      "arduino",
	}, c)

	c.IntervalSeconds = 3
	require.NoError(t, SaveDeviceConfig(path, c))
	again, err := LoadDeviceConfig(path)
	require.NoError(t, err)
	require.Equal(t, c, again)
}
