package device

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"babymonitor/internal/shared"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var ErrMQTTOffline = errors.New("mqtt connection down, reconnecting")

// Device is the field sensor's side of the relay: it probes the server
// and pushes samples over HTTP or MQTT.
type Device struct {
	Cfg    *shared.DeviceConfig
	Client *http.Client

	mqtt mqtt.Client
}

func New(cfg *shared.DeviceConfig) *Device {
	return &Device{
		Cfg:    cfg,
		Client: &http.Client{Timeout: 20 * time.Second},
	}
}

func (d *Device) url(path string) string {
	return strings.TrimRight(d.Cfg.ServerURL, "/") + path
}

// BuildRequest renders s in the configured field style.
func (d *Device) BuildRequest(s Sample, now time.Time) shared.UpdateRequest {
	req := shared.UpdateRequest{
		APIKey:           d.Cfg.APIKey,
		DeviceID:         d.Cfg.DeviceID,
		LastSync:         shared.FormatTime(now),
		ConnectionStatus: shared.StatusConnected,
	}
	t, h, snd := s.Temperature, s.Humidity, s.Sound
	if d.Cfg.FieldStyle == "arduino" {
		req.TempDHT, req.Humid, req.SoundValue = &t, &h, &snd
	} else {
		req.Temperature, req.Humidity, req.Sound = &t, &h, &snd
	}
	return req
}

func (d *Device) Probe(ctx context.Context) (*shared.ProbeResponse, error) {
	var pr shared.ProbeResponse
	if err := d.getJSON(ctx, "/test", &pr); err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	return &pr, nil
}

func (d *Device) FetchReading(ctx context.Context) (shared.Reading, error) {
	var r shared.Reading
	path := "/readings?deviceId=" + url.QueryEscape(d.Cfg.DeviceID)
	if err := d.getJSON(ctx, path, &r); err != nil {
		return shared.Reading{}, fmt.Errorf("fetch reading: %w", err)
	}
	return r, nil
}

func (d *Device) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url(path), nil)
	if err != nil {
		return err
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// Send delivers s over the configured transport.
func (d *Device) Send(ctx context.Context, s Sample) error {
	if d.Cfg.Transport == "mqtt" {
		return d.Publish(ctx, s)
	}
	_, err := d.Push(ctx, s)
	return err
}

// Push posts s to /update-readings and returns the reading the server stored.
func (d *Device) Push(ctx context.Context, s Sample) (shared.Reading, error) {
	body, err := json.Marshal(d.BuildRequest(s, time.Now()))
	if err != nil {
		return shared.Reading{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url("/update-readings"), bytes.NewReader(body))
	if err != nil {
		return shared.Reading{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return shared.Reading{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return shared.Reading{}, fmt.Errorf("push: %w", statusError(resp))
	}

	var ur shared.UpdateResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return shared.Reading{}, err
	}
	return ur.Data, nil
}

// Publish sends s to the server's MQTT ingress. The broker connection is
// opened on first use.
func (d *Device) Publish(ctx context.Context, s Sample) error {
	if err := d.connectMQTT(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(d.BuildRequest(s, time.Now()))
	if err != nil {
		return err
	}
	token := d.mqtt.Publish(d.Cfg.MQTTTopic, 0, false, payload)
	return waitToken(ctx, token)
}

// connectMQTT creates the client once. After that paho owns reconnection;
// while the link is down Publish fails with ErrMQTTOffline.
func (d *Device) connectMQTT(ctx context.Context) error {
	if d.mqtt != nil {
		if !d.mqtt.IsConnectionOpen() {
			return ErrMQTTOffline
		}
		return nil
	}
	opts := mqtt.NewClientOptions().
		AddBroker(d.Cfg.MQTTBroker).
		SetClientID(d.Cfg.DeviceID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(5 * time.Second)
	c := mqtt.NewClient(opts)
	if err := waitToken(ctx, c.Connect()); err != nil {
		c.Disconnect(0)
		return fmt.Errorf("mqtt connect %s: %w", d.Cfg.MQTTBroker, err)
	}
	d.mqtt = c
	return nil
}

func waitToken(ctx context.Context, t mqtt.Token) error {
	select {
	case <-t.Done():
		return t.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Device) Close() {
	if d.mqtt != nil {
		d.mqtt.Disconnect(250)
	}
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var er shared.ErrorResponse
	if json.Unmarshal(b, &er) == nil && er.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status, er.Error)
	}
	return errors.New(resp.Status + ": " + strings.TrimSpace(string(b)))
}
