package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"babymonitor/internal/shared"
)

const (
	reasonAPIKey   = "Invalid API key"
	reasonDeviceID = "Invalid device ID"
)

// UnauthorizedError is the only failure a client can cause.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string { return e.Reason }

// ReadingSink is told about every accepted reading.
type ReadingSink interface {
	ReadingUpdated(r shared.Reading)
}

type API struct {
	Store    Store
	APIKey   string
	DeviceID string
	Log      *slog.Logger

	// Sink is optional.
	Sink ReadingSink
	// Now defaults to time.Now.
	Now  func() time.Time
}

func (a *API) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *API) logger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	if a.Log != nil {
		return a.Log
	}
	return slog.Default()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, shared.ErrorResponse{Error: msg})
}

const maxBody = 1 << 20

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
}

// decodeAttrs parses a JSON object. Anything else yields an empty bag,
// which then fails the API key check.
func decodeAttrs(body []byte) map[string]any {
	attrs := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&attrs); err != nil || attrs == nil {
		return map[string]any{}
	}
	return attrs
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, shared.HealthResponse{
		Status:    "ok",
		Service:   shared.ServiceName,
		Version:   shared.ServiceVersion,
		Timestamp: shared.FormatTime(a.now()),
	})
}

func (a *API) Readings(w http.ResponseWriter, r *http.Request) {
	log := a.logger(r.Context())

	if id := r.URL.Query().Get("deviceId"); id != "" && id != a.DeviceID {
		log.Warn("invalid device id", "device_id", id, "expected", a.DeviceID)
		writeError(w, http.StatusUnauthorized, reasonDeviceID)
		return
	}

	reading, err := a.Store.Get(r.Context())
	if err != nil {
		log.Error("store get failed", "err", err)
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}

	log.Info("serving readings", "device_id", a.DeviceID, "reading", reading)
	writeJSON(w, http.StatusOK, reading)
}

func (a *API) UpdateReadings(w http.ResponseWriter, r *http.Request) {
	log := a.logger(r.Context())

	// a failed read still goes through Submit and is refused on the key
	body, err := readBody(w, r)
	if err != nil {
		log.Warn("read body failed", "err", err, "bytes", len(body))
		body = nil
	}
	attrs := decodeAttrs(body)

	reading, err := a.Submit(r.Context(), attrs)
	if err != nil {
		var ue *UnauthorizedError
		if errors.As(err, &ue) {
			writeError(w, http.StatusUnauthorized, ue.Reason)
			return
		}
		log.Error("store set failed", "err", err)
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, shared.UpdateResponse{
		Success: true,
		Data:    reading,
		Message: shared.UpdateMessage,
	})
}

// Submit checks credentials in attrs, then normalizes and stores them.
// A rejected submission leaves the store untouched.
func (a *API) Submit(ctx context.Context, attrs map[string]any) (shared.Reading, error) {
	log := a.logger(ctx)

	key, _ := attrs["apiKey"].(string)
	if !shared.SecretEqual(key, a.APIKey) {
		log.Warn("invalid api key", "api_key", shared.MaskSecret(key))
		return shared.Reading{}, &UnauthorizedError{Reason: reasonAPIKey}
	}

	if deviceMismatch(attrs, a.DeviceID) {
		log.Warn("invalid device id", "device_id", attrs["deviceId"])
		return shared.Reading{}, &UnauthorizedError{Reason: reasonDeviceID}
	}

	reading := Normalize(attrs, a.now())
	if err := a.Store.Set(ctx, reading); err != nil {
		return shared.Reading{}, err
	}
	log.Info("reading stored", "reading", reading)

	if a.Sink != nil {
		a.Sink.ReadingUpdated(reading)
	}
	return reading, nil
}

// deviceMismatch reports whether attrs names a device other than want.
// A non-string deviceId never matches.
func deviceMismatch(attrs map[string]any, want string) bool {
	switch id := attrs["deviceId"].(type) {
	case nil:
		return false
	case string:
		return id != "" && id != want
	default:
		return true
	}
}

func (a *API) Probe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, shared.ProbeResponse{
		Status:    "online",
		Message:   shared.ProbeMessage,
		Timestamp: shared.FormatTime(a.now()),
		ServerInfo: shared.ServerInfo{
			APIKey:   shared.MaskSecret(a.APIKey),
			DeviceID: a.DeviceID,
		},
	})
}
