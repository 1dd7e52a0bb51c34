package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"babymonitor/internal/shared"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
)

// Broker is an embedded MQTT broker that accepts readings on
// shared.TopicUpdate and republishes the current one on shared.TopicLatest.
type Broker struct {
	srv *mqtt.Server
	log *slog.Logger
}

func NewBroker(addr string, api *API, log *slog.Logger) (*Broker, error) {
	srv := mqtt.New(&mqtt.Options{
		InlineClient: true,
		Logger:       log,
	})

	// Devices authenticate with the apiKey inside each payload.
	if err := srv.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, err
	}
	if err := srv.AddHook(&ingestHook{api: api}, nil); err != nil {
		return nil, err
	}

	tcp := listeners.NewTCP(listeners.Config{
		ID:      "bm-tcp",
		Address: addr,
	})
	if err := srv.AddListener(tcp); err != nil {
		return nil, err
	}

	return &Broker{srv: srv, log: log}, nil
}

// Serve starts the listeners and returns.
func (b *Broker) Serve() error {
	return b.srv.Serve()
}

func (b *Broker) Close() error {
	return b.srv.Close()
}

func (b *Broker) ReadingUpdated(r shared.Reading) {
	payload, err := json.Marshal(r)
	if err != nil {
		b.log.Error("marshal reading", "err", err)
		return
	}
	if err := b.srv.Publish(shared.TopicLatest, payload, true, 0); err != nil {
		b.log.Warn("publish latest reading", "err", err)
	}
}

type ingestHook struct {
	mqtt.HookBase
	api *API
}

func (h *ingestHook) ID() string {
	return "bm-ingest"
}

func (h *ingestHook) Provides(b byte) bool {
	return b == mqtt.OnPublish
}

// OnPublish feeds update payloads through API.Submit. The update packet
// itself is never fanned out since it carries the API key.
func (h *ingestHook) OnPublish(cl *mqtt.Client, pk packets.Packet) (packets.Packet, error) {
	if pk.TopicName != shared.TopicUpdate {
		return pk, nil
	}

	log := h.api.logger(context.Background()).With("mqtt_client", cl.ID)
	ctx := context.WithValue(context.Background(), loggerKey{}, log)
	if _, err := h.api.Submit(ctx, decodeAttrs(pk.Payload)); err != nil {
		log.Warn("mqtt reading rejected", "err", err)
	}
	return pk, packets.ErrRejectPacket
}
