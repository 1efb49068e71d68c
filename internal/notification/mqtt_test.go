package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	done bool
	err  error
}

func (t *fakeToken) Wait() bool                     { return t.done }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.done }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.done {
		close(ch)
	}
	return ch
}

type fakePublisher struct {
	topic   string
	payload []byte
	token   *fakeToken
}

func (p *fakePublisher) Publish(topic string, _ byte, _ bool, payload interface{}) pahomqtt.Token {
	p.topic = topic
	p.payload, _ = payload.([]byte)
	return p.token
}

func TestMQTTNotifierPublishesJSON(t *testing.T) {
	pub := &fakePublisher{token: &fakeToken{done: true}}
	n := NewMQTTNotifier(pub, "portal/registrations")

	err := n.Send(context.Background(), Message{Kind: KindUserProvisioned, DeviceID: "dev-42", Username: "alee"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if pub.topic != "portal/registrations/user_provisioned" {
		t.Fatalf("unexpected topic %s", pub.topic)
	}
	var decoded Message
	if err := json.Unmarshal(pub.payload, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded.DeviceID != "dev-42" || decoded.Username != "alee" {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestMQTTNotifierTimeout(t *testing.T) {
	pub := &fakePublisher{token: &fakeToken{done: false}}
	n := NewMQTTNotifier(pub, "t")
	if err := n.Send(context.Background(), Message{Kind: KindRegistrationRejected}); !errors.Is(err, ErrPublishTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestMQTTNotifierBrokerError(t *testing.T) {
	pub := &fakePublisher{token: &fakeToken{done: true, err: errors.New("not authorized")}}
	n := NewMQTTNotifier(pub, "t")
	if err := n.Send(context.Background(), Message{Kind: KindRegistrationRejected}); err == nil {
		t.Fatal("expected broker error")
	}
}

func TestLoggerNotifierNilSafe(t *testing.T) {
	var n *LoggerNotifier
	if err := n.Send(context.Background(), Message{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
