package eventbus

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/trackforge/assetflow/pkg/logging"
)

type testEvent struct {
	data interface{}
}

func TestPublisher_Publish_NoMatchingSubscribers(t *testing.T) {
	type otherEvent struct {
		data interface{}
	}
	logBuffer := bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(&logBuffer)
	log.SetLevel(logrus.WarnLevel)
	publisher := NewEventPublisher(log)
	publisher.Subscribe(func(e *testEvent) {
		t.Error("should not be called")
	})
	publisher.Publish(&otherEvent{
		data: "test",
	})

	if output := logBuffer.String(); output == "" {
		t.Error("should have logged")
	} else if !strings.Contains(output, "eventbus.Publish: no matching subscribers") {
		t.Errorf("should have contained no matching subscribers but got: %q", output)
	}
}

func TestPublisher_Subscribe(t *testing.T) {
	publisher := NewEventPublisher(logging.ConsoleLogger(logrus.WarnLevel))
	called := false
	var data interface{}
	publisher.Subscribe(func(e *testEvent) {
		called = true
		data = e.data
	})
	publisher.Publish(&testEvent{
		data: "test",
	})
	if !called {
		t.Error("should be called")
	}
	if data != "test" {
		t.Errorf("expected: %v, got: %v", "test", data)
	}
}

func TestPublisher_PanickingHandlerDoesNotBlockOthers(t *testing.T) {
	logBuffer := bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(&logBuffer)
	publisher := NewEventPublisher(log)

	secondCalled := false
	publisher.Subscribe(func(e *testEvent) {
		panic("boom")
	})
	publisher.Subscribe(func(e *testEvent) {
		secondCalled = true
	})
	publisher.Publish(&testEvent{data: "x"})

	if !secondCalled {
		t.Error("second subscriber should still be called")
	}
	if !strings.Contains(logBuffer.String(), "panicked") {
		t.Errorf("panic should be logged, got: %q", logBuffer.String())
	}
}

func TestPublisher_Unsubscribe(t *testing.T) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	publisher := NewEventPublisher(log)

	removed := func(e *testEvent) {
		t.Error("should not be called after unsubscribe")
	}
	keptCalled := 0
	kept := func(e *testEvent) { keptCalled++ }

	publisher.Subscribe(removed)
	publisher.Subscribe(kept)
	if got := publisher.SubscribersCount(); got != 2 {
		t.Fatalf("expected 2 subscribers, got %d", got)
	}

	publisher.Unsubscribe(removed)
	if got := publisher.SubscribersCount(); got != 1 {
		t.Fatalf("expected 1 subscriber, got %d", got)
	}

	// The remaining subscriber still receives events.
	publisher.Publish(&testEvent{data: "x"})
	if keptCalled != 1 {
		t.Fatalf("expected kept subscriber called once, got %d", keptCalled)
	}

	// Unsubscribing a handler that was never registered is a no-op.
	publisher.Unsubscribe(func(e *testEvent) {})
	if got := publisher.SubscribersCount(); got != 1 {
		t.Fatalf("expected 1 subscriber, got %d", got)
	}
}
