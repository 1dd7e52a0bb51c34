package shared

import "time"

// TimeLayout is the ISO 8601 layout used for every timestamp on the wire.
const TimeLayout = "2006-01-02T15:04:05.000Z"

const (
	StatusConnected = "connected"

	ServiceName    = "Baby Monitoring IoT Server"
	ServiceVersion = "1.0.0"
	ProbeMessage   = "Baby Monitor IoT server is running"
	UpdateMessage  = "Data received and processed successfully"
)

// Reading is the single sensor snapshot held by the server.
type Reading struct {
	Temperature      float64 `json:"temperature"`
	Humidity         float64 `json:"humidity"`
	Sound            float64 `json:"sound"`
	LastSync         string  `json:"lastSync"`
	ConnectionStatus string  `json:"connectionStatus"`
}

// DefaultReading is what the server serves before the device reports.
func DefaultReading(now time.Time) Reading {
	return Reading{
		Temperature:      20.5,
		Humidity:         50.0,
		Sound:            35.0,
		LastSync:         FormatTime(now),
		ConnectionStatus: StatusConnected,
	}
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// UpdateRequest is what a device sends to /update-readings. The server
// decodes into a generic map instead so alias keys survive; devices use
// this struct to build the body.
type UpdateRequest struct {
	APIKey           string   `json:"apiKey"`
	DeviceID         string   `json:"deviceId,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	TempDHT          *float64 `json:"tempDHT,omitempty"`
	Humidity         *float64 `json:"humidity,omitempty"`
	Humid            *float64 `json:"humid,omitempty"`
	Sound            *float64 `json:"sound,omitempty"`
	SoundValue       *float64 `json:"soundValue,omitempty"`
	LastSync         string   `json:"lastSync,omitempty"`
	ConnectionStatus string   `json:"connectionStatus,omitempty"`
}

type UpdateResponse struct {
	Success bool    `json:"success"`
	Data    Reading `json:"data"`
	Message string  `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

type ServerInfo struct {
	APIKey   string `json:"apiKey"`
	DeviceID string `json:"deviceId"`
}

type ProbeResponse struct {
	Status     string     `json:"status"`
	Message    string     `json:"message"`
	Timestamp  string     `json:"timestamp"`
	ServerInfo ServerInfo `json:"serverInfo"`
}
