// Package mqtt bridges broker-published telemetry into the ingestion
// pipeline. Devices on flaky uplinks publish the same JSON payload they
// would POST to /sensor.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	service "github.com/grbuguj/Sinker-IOT/internal/app"
	"github.com/grbuguj/Sinker-IOT/internal/domain/model"
	"github.com/grbuguj/Sinker-IOT/pkg/logger"
	"github.com/grbuguj/Sinker-IOT/pkg/metrics"
)

const (
	defaultQoS     = 1
	connectTimeout = 10 * time.Second
	disconnectMS   = 250
)

// Pipeline is the slice of the ingestion service the bridge needs.
type Pipeline interface {
	Accept(ctx context.Context, r model.Reading) (service.Ack, error)
}

// Ingest subscribes to one telemetry topic and feeds decoded readings into
// the pipeline.
type Ingest struct {
	client   paho.Client
	pipeline Pipeline
	topic    string
	logger   logger.Logger
}

// Option applies a configuration option to the Ingest bridge.
type Option func(*Ingest)

// WithLogger sets a custom logger for the bridge.
func WithLogger(l logger.Logger) Option {
	return func(i *Ingest) {
		if l != nil {
			i.logger = l
		}
	}
}

// NewIngest connects to the broker and subscribes. A broker that cannot be
// reached at startup is a fatal condition for the caller.
func NewIngest(ctx context.Context, broker, clientID, topic string, pipeline Pipeline, opts ...Option) (*Ingest, error) {
	in := &Ingest{
		pipeline: pipeline,
		topic:    topic,
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.logger == nil {
		in.logger = logger.Get().Named("mqtt")
	}

	clientOpts := paho.NewClientOptions()
	clientOpts.AddBroker(broker)
	clientOpts.SetClientID(clientID)
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetConnectTimeout(connectTimeout)
	clientOpts.SetKeepAlive(60 * time.Second)
	clientOpts.SetOnConnectHandler(func(c paho.Client) {
		// Resubscribe on every (re)connect so a broker restart does not
		// silently drop the bridge.
		if token := c.Subscribe(in.topic, defaultQoS, in.handleMessage); token.Wait() && token.Error() != nil {
			in.logger.Error(ctx, "mqtt subscribe failed",
				logger.String("topic", in.topic),
				logger.Error(token.Error()),
			)
		}
	})
	clientOpts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		in.logger.Warn(ctx, "mqtt connection lost", logger.Error(err))
	})

	in.client = paho.NewClient(clientOpts)
	if token := in.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("%w: %s", ErrConnect, token.Error())
	}

	in.logger.Info(ctx, "mqtt ingest bridge connected",
		logger.String("broker", broker),
		logger.String("topic", topic),
	)
	return in, nil
}

// handleMessage decodes one payload and runs it through the pipeline.
// Malformed payloads are counted and dropped; the bridge never stops on a
// bad message.
func (in *Ingest) handleMessage(_ paho.Client, msg paho.Message) {
	ctx := context.Background()
	metrics.RecordMQTTMessage()

	var payload sensorPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		metrics.RecordMQTTInvalidPayload()
		in.logger.Warn(ctx, "dropping malformed mqtt payload",
			logger.String("topic", msg.Topic()),
			logger.Error(err),
		)
		return
	}
	if err := payload.validate(); err != nil {
		metrics.RecordMQTTInvalidPayload()
		in.logger.Warn(ctx, "dropping incomplete mqtt payload",
			logger.String("topic", msg.Topic()),
			logger.Error(err),
		)
		return
	}

	ack, err := in.pipeline.Accept(ctx, payload.reading())
	if err != nil {
		metrics.RecordMQTTInvalidPayload()
		in.logger.Warn(ctx, "mqtt reading rejected", logger.Error(err))
		return
	}
	in.logger.Debug(ctx, "mqtt reading accepted",
		logger.Int64("id", ack.ID),
		logger.String("riskLevel", ack.RiskLevel.String()),
	)
}

// Close disconnects from the broker.
func (in *Ingest) Close() {
	if in.client != nil && in.client.IsConnected() {
		in.client.Disconnect(disconnectMS)
	}
}

// sensorPayload mirrors the device telemetry schema used by POST /sensor.
// Only timestamp is optional; every sensor channel must be present.
type sensorPayload struct {
	Moisture     *float64       `json:"moisture"`
	Accel        *model.Vector3 `json:"accel"`
	Gyro         *model.Vector3 `json:"gyro"`
	VibrationRaw *float64       `json:"vibration_raw"`
	Timestamp    string         `json:"timestamp"`
}

func (p sensorPayload) validate() error {
	switch {
	case p.Moisture == nil:
		return errors.New("missing moisture")
	case p.Accel == nil:
		return errors.New("missing accel")
	case p.Gyro == nil:
		return errors.New("missing gyro")
	case p.VibrationRaw == nil:
		return errors.New("missing vibration_raw")
	}
	return nil
}

func (p sensorPayload) reading() model.Reading {
	return model.Reading{
		Moisture:     *p.Moisture,
		Accel:        *p.Accel,
		Gyro:         *p.Gyro,
		VibrationRaw: *p.VibrationRaw,
		Timestamp:    p.Timestamp,
	}
}
