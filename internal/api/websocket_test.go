package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/okvee/bookpress/internal/pipeline"
)

func recvOrTimeout(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
		return nil
	}
}

func TestHub_BroadcastsAndDropsSlowClients(t *testing.T) {
	h := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go h.Run()

	good := &client{hub: h, send: make(chan []byte, 4)}
	slow := &client{hub: h, send: make(chan []byte, 1)}
	slow.send <- []byte("stale") // buffer full: the hub cannot enqueue
	h.register <- good
	h.register <- slow

	h.Publish(pipeline.Progress{BookID: "b1", Percentage: 10, Stage: "processing_chunks"})
	h.Publish(pipeline.Progress{BookID: "b1", Percentage: 50, Stage: "processing_chunks"})

	var p pipeline.Progress
	if err := json.Unmarshal(recvOrTimeout(t, good.send), &p); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if p.BookID != "b1" || p.Percentage != 10 {
		t.Errorf("unexpected first event: %+v", p)
	}
	// The second event proves the hub finished the first broadcast, so
	// the slow client has been dropped by now.
	recvOrTimeout(t, good.send)

	if got := string(recvOrTimeout(t, slow.send)); got != "stale" {
		t.Fatalf("expected the pre-filled buffer entry, got %q", got)
	}
	if _, ok := <-slow.send; ok {
		t.Error("expected slow client's channel closed after the drop")
	}
}
