package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/r1nov8/ing301gruppeA2/internal/infrastructure/config"
)

// testConfig returns an MQTT configuration pointing at a local broker.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled:     true,
		TopicPrefix: "smarthouse-test",
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "smarthouse-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestTopics(t *testing.T) {
	topics := NewTopics("smarthouse")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"sensor measurement", topics.SensorMeasurement("abc"), "smarthouse/sensor/abc/measurement"},
		{"all measurements", topics.AllSensorMeasurements(), "smarthouse/sensor/+/measurement"},
		{"actuator command", topics.ActuatorCommand("oven"), "smarthouse/actuator/oven/command"},
		{"all commands", topics.AllActuatorCommands(), "smarthouse/actuator/+/command"},
		{"actuator state", topics.ActuatorState("oven"), "smarthouse/actuator/oven/state"},
		{"system status", topics.SystemStatus(), "smarthouse/system/status"},
		{"default prefix", NewTopics("").SystemStatus(), "smarthouse/system/status"},
		{"zero value", Topics{}.SystemStatus(), "smarthouse/system/status"},
		{"trimmed prefix", NewTopics("/home/").ActuatorState("x"), "home/actuator/x/state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestParseDeviceTopic(t *testing.T) {
	topics := NewTopics("smarthouse")

	tests := []struct {
		topic   string
		want    DeviceTopic
		wantErr bool
	}{
		{topic: "smarthouse/sensor/abc/measurement", want: DeviceTopic{Kind: KindSensor, DeviceID: "abc", Leaf: LeafMeasurement}},
		{topic: "smarthouse/actuator/oven/command", want: DeviceTopic{Kind: KindActuator, DeviceID: "oven", Leaf: LeafCommand}},
		{topic: "smarthouse/actuator/oven/state", want: DeviceTopic{Kind: KindActuator, DeviceID: "oven", Leaf: LeafState}},
		{topic: "smarthouse/sensor/abc/command", wantErr: true},
		{topic: "smarthouse/sensor//measurement", wantErr: true},
		{topic: "smarthouse/system/status", wantErr: true},
		{topic: "other/sensor/abc/measurement", wantErr: true},
		{topic: "smarthouse/sensor/a/b/measurement", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			got, err := topics.ParseDeviceTopic(tt.topic)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownTopic) {
					t.Errorf("ParseDeviceTopic() error = %v, want ErrUnknownTopic", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDeviceTopic() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseDeviceTopic() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "house"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)
	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want tcp://127.0.0.1:1883", opts.Servers)
	}
	if opts.ClientID != "smarthouse-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "house" || opts.Password != "secret" {
		t.Error("credentials not applied")
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Error("auto-reconnect and clean session must be enabled")
	}

	cfg.Broker.TLS = true
	opts = buildClientOptions(cfg)
	if opts.Servers[0].Scheme != "ssl" {
		t.Errorf("TLS scheme = %q, want ssl", opts.Servers[0].Scheme)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config not applied")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, NewTopics("smarthouse"), "core-1")

	if !opts.WillEnabled || !opts.WillRetained {
		t.Fatal("LWT must be enabled and retained")
	}
	if opts.WillTopic != "smarthouse/system/status" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}

	var status SystemStatus
	if err := json.Unmarshal(opts.WillPayload, &status); err != nil {
		t.Fatalf("LWT payload is not JSON: %v", err)
	}
	if status.Status != "offline" || status.ClientID != "core-1" || status.Reason != "unexpected_disconnect" {
		t.Errorf("LWT payload = %+v", status)
	}
}

func TestDisconnectedClient(t *testing.T) {
	c := newClient(testConfig())
	noop := func(string, []byte) error { return nil }

	if c.IsConnected() {
		t.Fatal("IsConnected() = true for unconnected client")
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	if err := c.Publish("smarthouse/x", []byte("{}"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	if err := c.Subscribe("smarthouse/#", 1, noop); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
	if c.SubscriptionCount() != 0 {
		t.Error("failed subscribe must not be tracked")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on unconnected client error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestPublishValidation(t *testing.T) {
	c := newClient(testConfig())

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"bad qos", "t", []byte("x"), 3, ErrInvalidQoS},
		{"oversized", "t", make([]byte, maxPayloadSize+1), 0, ErrPublishFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Publish(tt.topic, tt.payload, tt.qos, false); !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := c.PublishJSON("t", func() {}, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("PublishJSON(unencodable) error = %v, want ErrPublishFailed", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	c := newClient(testConfig())

	if err := c.Subscribe("", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty) error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe("t", 5, func(string, []byte) error { return nil }); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe(qos 5) error = %v, want ErrInvalidQoS", err)
	}
	if err := c.Subscribe("t", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v, want ErrSubscribeFailed", err)
	}
	if err := c.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe(empty) error = %v, want ErrInvalidTopic", err)
	}
}

type recordingLogger struct {
	errors []string
	warns  []string
}

func (l *recordingLogger) Error(msg string, _ ...any) { l.errors = append(l.errors, msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.warns = append(l.warns, msg) }

func TestDispatch_RecoversAndLogs(t *testing.T) {
	c := newClient(testConfig())
	logger := &recordingLogger{}
	c.SetLogger(logger)

	c.dispatch(func(string, []byte) error { panic("boom") }, "t", nil)
	c.dispatch(func(string, []byte) error { return errors.New("bad payload") }, "t", nil)

	var got string
	c.dispatch(func(topic string, payload []byte) error {
		got = topic + "=" + string(payload)
		return nil
	}, "smarthouse/sensor/a/measurement", []byte("21.5"))

	if len(logger.errors) != 1 || !strings.Contains(logger.errors[0], "panic") {
		t.Errorf("panic not logged: %v", logger.errors)
	}
	if len(logger.warns) != 1 {
		t.Errorf("handler error not logged: %v", logger.warns)
	}
	if got != "smarthouse/sensor/a/measurement=21.5" {
		t.Errorf("handler received %q", got)
	}
}

func TestStatusPayload(t *testing.T) {
	var s SystemStatus
	if err := json.Unmarshal(statusPayload("online", "core", ""), &s); err != nil {
		t.Fatalf("statusPayload() not JSON: %v", err)
	}
	if s.Status != "online" || s.ClientID != "core" || s.Reason != "" || s.Timestamp == "" {
		t.Errorf("statusPayload() = %+v", s)
	}
}
