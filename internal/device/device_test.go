package device

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"babymonitor/internal/server"
	"babymonitor/internal/shared"

	"github.com/stretchr/testify/require"
)

func newRelay(t *testing.T) *httptest.Server {
	t.Helper()
	api := &server.API{
		Store:    server.NewMemoryStore(time.Now()),
		APIKey:   "abc123xyz",
		DeviceID: "crib-1",
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	ts := httptest.NewServer(server.NewRouter(api, server.RouterOptions{}))
	t.Cleanup(ts.Close)
	return ts
}

func newDevice(url, style string) *Device {
	return New(&shared.DeviceConfig{
		ServerURL:  url + "/",
		APIKey:     "abc123xyz",
		DeviceID:   "crib-1",
		Transport:  "http",
		FieldStyle: style,
	})
}

func TestProbe(t *testing.T) {
	ts := newRelay(t)
	d := newDevice(ts.URL, "canonical")

	pr, err := d.Probe(context.Background())
	require.NoError(t, err)
	require.Equal(t, "online", pr.Status)
	require.Equal(t, "abc...xyz", pr.ServerInfo.APIKey)
	require.Equal(t, "crib-1", pr.ServerInfo.DeviceID)
}

func TestPushRoundTrip(t *testing.T) {
	ts := newRelay(t)
	ctx := context.Background()
	sample := Sample{Temperature: 23.45, Humidity: 60.12, Sound: 12.345}

	for _, style := range []string{"canonical", "arduino"} {
		d := newDevice(ts.URL, style)

		stored, err := d.Push(ctx, sample)
		require.NoError(t, err, style)
		require.Equal(t, 23.5, stored.Temperature, style)
		require.Equal(t, 60.1, stored.Humidity, style)
		require.Equal(t, 12.3, stored.Sound, style)

		got, err := d.FetchReading(ctx)
		require.NoError(t, err, style)
		require.Equal(t, stored, got, style)
	}
}

func TestPushRejected(t *testing.T) {
	ts := newRelay(t)
	ctx := context.Background()

	d := newDevice(ts.URL, "canonical")
	d.Cfg.APIKey = "wrong"
	_, err := d.Push(ctx, Sample{Temperature: 30})
	require.ErrorContains(t, err, "Invalid API key")

	d = newDevice(ts.URL, "canonical")
	d.Cfg.DeviceID = "crib-9"
	require.ErrorContains(t, d.Send(ctx, Sample{}), "Invalid device ID")
	_, err = d.FetchReading(ctx)
	require.ErrorContains(t, err, "401")
}

func TestBuildRequestFieldStyle(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := Sample{Temperature: 1, Humidity: 2, Sound: 3}

	req := newDevice("http://x", "arduino").BuildRequest(s, now)
	require.Nil(t, req.Temperature)
	require.Equal(t, 1.0, *req.TempDHT)
	require.Equal(t, 2.0, *req.Humid)
	require.Equal(t, 3.0, *req.SoundValue)
	require.Equal(t, "2026-01-02T03:04:05.000Z", req.LastSync)

	req = newDevice("http://x", "canonical").BuildRequest(s, now)
	require.Nil(t, req.TempDHT)
	require.Equal(t, 1.0, *req.Temperature)
	require.Equal(t, "crib-1", req.DeviceID)
}

func TestSensorStaysInRange(t *testing.T) {
	s := NewSensor(7)
	for i := 0; i < 1000; i++ {
		v := s.Next()
		require.GreaterOrEqual(t, v.Temperature, 16.0)
		require.LessOrEqual(t, v.Temperature, 30.0)
		require.GreaterOrEqual(t, v.Humidity, 20.0)
		require.LessOrEqual(t, v.Humidity, 80.0)
		require.GreaterOrEqual(t, v.Sound, 20.0)
		require.LessOrEqual(t, v.Sound, 90.0)
	}
}
