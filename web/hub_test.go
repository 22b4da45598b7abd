package web

import (
	"testing"
	"time"
)

func TestHubRunStopsOnClose(t *testing.T) {
	h := NewHub()
	stopped := make(chan struct{})
	go func() {
		h.Run()
		close(stopped)
	}()

	client := &Client{Send: make(chan WSMessage, 1)}
	h.Register <- client

	h.Close()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub loop did not exit after Close")
	}

	if _, open := <-client.Send; open {
		t.Error("expected client send channel to be closed on shutdown")
	}
}
