package server

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"babymonitor/internal/shared"
)

// Candidate keys per field, in priority order. Devices in the field
// report with whatever names their sketch used.
var (
	temperatureKeys = []string{"temperature", "tempDHT", "temp"}
	humidityKeys    = []string{"humidity", "humid"}
	soundKeys       = []string{"sound", "soundValue"}
)

// Normalize turns a raw attribute bag into a Reading. It never fails:
// a missing or non-numeric value becomes 0, so a misspelled key on the
// device side reads as 0 here.
func Normalize(attrs map[string]any, now time.Time) shared.Reading {
	r := shared.Reading{
		Temperature:      roundTenth(toFloat(firstPresent(attrs, temperatureKeys))),
		Humidity:         roundTenth(toFloat(firstPresent(attrs, humidityKeys))),
		Sound:            roundTenth(toFloat(firstPresent(attrs, soundKeys))),
		LastSync:         shared.FormatTime(now),
		ConnectionStatus: shared.StatusConnected,
	}
	if s, ok := attrs["lastSync"].(string); ok && s != "" {
		r.LastSync = s
	}
	if s, ok := attrs["connectionStatus"].(string); ok && s != "" {
		r.ConnectionStatus = s
	}
	return r
}

// firstPresent returns the value of the first key that is set to
// something other than null or "". Only those two are skipped: 0 and
// false are present values, so {"sound": 0, "soundValue": 8} yields 0.
// This departs from a plain falsy chain, which would fall through to 8.
func firstPresent(attrs map[string]any, keys []string) any {
	for _, k := range keys {
		v, ok := attrs[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v
	}
	return nil
}

func toFloat(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0
		}
		f = x
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = x
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// roundTenth rounds half away from zero to one decimal place.
func roundTenth(f float64) float64 {
	if math.Abs(f) >= 1e15 {
		return f // no fractional digits left at this magnitude
	}
	r := math.Round(f*10) / 10
	if r == 0 {
		return 0 // drop the sign of -0
	}
	return r
}
