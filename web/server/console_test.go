package server

import (
	"encoding/json"
	"testing"
	"time"
)

func TestWebLogger_PassMessages(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewWebLogger("render-pass", messageChan)

	lines := []string{
		"Starting progressive rendering with 3 passes...\n",
		"Pass 1 completed in 12ms (actual: 1 samples/pixel, 240 steps/ray)\n",
		"Pass 2 completed in 40ms (actual: 4 samples/pixel, 238 steps/ray)\n",
	}
	for _, line := range lines {
		logger.Printf("%s", line)
	}

	for i, expected := range lines {
		select {
		case msg := <-messageChan:
			if msg.Message != expected {
				t.Errorf("Message %d: expected %q, got %q", i, expected, msg.Message)
			}
			if msg.Level != "info" {
				t.Errorf("Message %d: expected level 'info', got '%s'", i, msg.Level)
			}
			if time.Since(msg.Timestamp) > time.Second {
				t.Errorf("Timestamp seems too old: %v", msg.Timestamp)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for message %d", i+1)
		}
	}
}

func TestWebLogger_DropsWhenChannelFull(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 1)
	logger := NewWebLogger("render-full", messageChan)

	// Nobody reads, so only the first message fits and the rest must not block
	logger.Printf("Pass 1 completed\n")
	logger.Printf("Pass 2 completed\n")
	logger.Printf("Pass 3 completed\n")

	if len(messageChan) != 1 {
		t.Fatalf("Expected one buffered message, got %d", len(messageChan))
	}
	if msg := <-messageChan; msg.Message != "Pass 1 completed\n" {
		t.Errorf("Expected the first message to be kept, got %q", msg.Message)
	}
}

func TestWebLogger_NilChannel(t *testing.T) {
	logger := NewWebLogger("render-nil", nil)
	logger.Printf("Scene %q: %d bodies\n", "sagittarius", 1)
}

func TestWebLogger_FormattedMessages(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewWebLogger("test-render-format", messageChan)

	// Test formatted logging
	logger.Printf("Tracing %s with %d workers...\n", "binary-star", 8)

	select {
	case msg := <-messageChan:
		expected := "Tracing binary-star with 8 workers...\n"
		if msg.Message != expected {
			t.Errorf("Expected formatted message '%s', got '%s'", expected, msg.Message)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Timeout waiting for formatted message")
	}
}

func TestWebLogger_RenderIDAndLevel(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewWebLogger("render-42", messageChan)

	logger.Printf("Warning: failed to parse metadata\n")
	logger.Printf("Rendering cancelled before pass 2\n")
	logger.Printf("Error encoding tile\n")

	expected := []string{"warning", "warning", "error"}
	for i, level := range expected {
		select {
		case msg := <-messageChan:
			if msg.RenderID != "render-42" {
				t.Errorf("Message %d: expected render ID 'render-42', got '%s'", i, msg.RenderID)
			}
			if msg.Level != level {
				t.Errorf("Message %d: expected level '%s', got '%s'", i, level, msg.Level)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for message %d", i+1)
		}
	}
}

func TestConsoleMessage_JSONSerialization(t *testing.T) {
	msg := ConsoleMessage{
		RenderID:  "render-1",
		Message:   "Test message",
		Timestamp: time.Now(),
		Level:     "info",
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, key := range []string{"renderId", "message", "timestamp", "level"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("Expected key %q in %s", key, data)
		}
	}
}
