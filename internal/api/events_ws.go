package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ilds/internal/events"
)

// Event stream over WebSocket, graphql-transport-ws like:
// connection_init → connection_ack, subscribe {topic} → next… , complete.
// Topics given as ?topic=deliveries,network are subscribed on connect under
// the id "default".

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type subscribePayload struct {
	Topic string `json:"topic"`
}

var knownTopics = map[string]bool{events.TopicDeliveries: true, events.TopicNetwork: true}

// EventsWSHandler handles /v1/events/ws
func (s *Server) EventsWSHandler(w http.ResponseWriter, r *http.Request) {
	var initial []string
	if q := r.URL.Query().Get("topic"); q != "" {
		for _, t := range strings.Split(q, ",") {
			t = strings.TrimSpace(t)
			if !knownTopics[t] {
				writeProblem(w, http.StatusBadRequest, "Unknown topic", t, r.URL.Path)
				return
			}
			initial = append(initial, t)
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	var wmu sync.Mutex
	write := func(v any) error {
		wmu.Lock()
		defer wmu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(v)
	}

	type sub struct {
		topic string
		ch    chan events.Event
	}
	subs := map[string][]sub{}
	subscribe := func(id, topic string) {
		ch := s.Broker.Subscribe(topic)
		subs[id] = append(subs[id], sub{topic: topic, ch: ch})
		go func() {
			for evt := range ch {
				payload, _ := json.Marshal(map[string]any{"topic": topic, "event": evt})
				if err := write(wsMessage{Type: "next", ID: id, Payload: payload}); err != nil {
					return
				}
			}
		}()
	}
	unsubscribe := func(id string) bool {
		list, ok := subs[id]
		for _, s0 := range list {
			s.Broker.Unsubscribe(s0.topic, s0.ch)
		}
		delete(subs, id)
		return ok
	}
	defer func() {
		for id := range subs {
			unsubscribe(id)
		}
	}()
	for _, t := range initial {
		subscribe("default", t)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(20 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := write(wsMessage{Type: "ping"}); err != nil {
					return
				}
			}
		}
	}()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(60 * time.Second)) })

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		switch msg.Type {
		case "connection_init":
			_ = write(wsMessage{Type: "connection_ack"})
		case "ping":
			_ = write(wsMessage{Type: "pong"})
		case "subscribe":
			var pl subscribePayload
			_ = json.Unmarshal(msg.Payload, &pl)
			if msg.ID == "" || !knownTopics[pl.Topic] {
				_ = write(wsMessage{Type: "error", ID: msg.ID, Payload: []byte(`{"message":"id and a known topic are required"}`)})
				continue
			}
			subscribe(msg.ID, pl.Topic)
		case "complete":
			if unsubscribe(msg.ID) {
				_ = write(wsMessage{Type: "complete", ID: msg.ID})
			}
		}
	}
}
