package session

import (
	"encoding/json"
	"testing"
)

func TestRouterDispatchTyped(t *testing.T) {
	r := NewRouter(testLogger(t))

	type payload struct {
		Value string `json:"value"`
	}
	var got []string
	Subscribe(r, "demo.topic", func(p payload) {
		got = append(got, p.Value)
	})

	r.Dispatch("demo.topic", json.RawMessage(`{"value":"a"}`))
	r.Dispatch("demo.topic", json.RawMessage(`{"value":"b"}`))

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected [a b], got %v", got)
	}
}

func TestRouterUnknownTopicDropped(t *testing.T) {
	r := NewRouter(testLogger(t))

	called := false
	Subscribe(r, "known", func(struct{}) { called = true })

	r.Dispatch("unknown", json.RawMessage(`{}`))
	if called {
		t.Error("handler for another topic must not fire")
	}
}

func TestRouterMalformedPayloadDropped(t *testing.T) {
	r := NewRouter(testLogger(t))

	called := false
	type payload struct {
		Value int `json:"value"`
	}
	Subscribe(r, "demo", func(payload) { called = true })

	r.Dispatch("demo", json.RawMessage(`{"value":"not-a-number"}`))
	if called {
		t.Error("undecodable payload must not reach the handler")
	}
}

func TestRouterUnsubscribe(t *testing.T) {
	r := NewRouter(testLogger(t))

	count := 0
	sub := Subscribe(r, "demo", func(struct{}) { count++ })

	r.Dispatch("demo", json.RawMessage(`{}`))
	sub.Unsubscribe()
	sub.Unsubscribe() // second call is harmless
	r.Dispatch("demo", json.RawMessage(`{}`))

	if count != 1 {
		t.Errorf("expected exactly 1 delivery, got %d", count)
	}
}

func TestRouterRegistrationBeforeTraffic(t *testing.T) {
	r := NewRouter(testLogger(t))

	// Registering with no traffic flowing is legal and silent.
	sub := Subscribe(r, "quiet", func(struct{}) {
		t.Error("handler fired without a dispatch")
	})
	defer sub.Unsubscribe()
}
