// Package main runs a demo WebSocket client for delivery and network events.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func post(base, path, body string) {
	resp, err := http.Post(base+path, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		log.Fatal(err)
	}
	_ = resp.Body.Close()
	log.Printf("POST %s -> %d", path, resp.StatusCode)
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Connect WS, deliveries on the default subscription
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/events/ws", RawQuery: "topic=deliveries"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	if err := c.WriteJSON(wsMessage{Type: "connection_init"}); err != nil {
		log.Fatal(err)
	}
	if err := c.WriteJSON(wsMessage{Type: "subscribe", ID: "net", Payload: json.RawMessage(`{"topic":"network"}`)}); err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s %s: %s", m.Type, m.ID, string(m.Payload))
		}
	}()

	// Build a small network, register a vehicle and schedule one delivery
	time.Sleep(500 * time.Millisecond)
	post(base, "/v1/network/import", "NODE A\nNODE B\nNODE C\nEDGE A B 5 10 0.2\nEDGE B C 5 10 0.2\n")
	post(base, "/v1/vehicles", `{"id":"demo-truck","capacity":5,"location":"A"}`)
	post(base, "/v1/deliveries/schedule", `{"deliveries":[{"source":"A","destination":"C","packages":2,"urgency":3,"deadlineHours":1}]}`)
	post(base, "/v1/congestion/adapt", "")

	// Wait briefly to receive a few messages
	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}
