// Package sse fans panel events out to connected browsers over
// Server-Sent Events, with redis pub/sub as the cross-instance bus.
package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/blastline/panel-server-go/internal/redis"
)

const HeartbeatInterval = 30 * time.Second

// Event types pushed to the panel UI.
const (
	TypeAccountLinked   = "account_linked"
	TypeAccountUnlinked = "account_unlinked"
	TypeBlastUpdated    = "blast_updated"
	TypeBotLinked       = "bot_linked"
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	UserID string
	Events chan Event
	Done   chan struct{}
}

type Broker struct {
	redis   *redisclient.Client
	clients map[string]map[*Client]bool // userID -> set of clients
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:   redisClient,
		clients: make(map[string]map[*Client]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *Broker) Subscribe(userID string) *Client {
	client := &Client{
		UserID: userID,
		Events: make(chan Event, 100),
		Done:   make(chan struct{}),
	}

	b.mu.Lock()
	if b.clients[userID] == nil {
		b.clients[userID] = make(map[*Client]bool)
		go b.subscribeToRedis(userID)
	}
	b.clients[userID][client] = true
	clientCount := len(b.clients[userID])
	b.mu.Unlock()

	log.Info().
		Str("userId", userID).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, ok := b.clients[client.UserID]; ok {
		delete(clients, client)
		close(client.Done)

		if len(clients) == 0 {
			delete(b.clients, client.UserID)
		}

		log.Info().
			Str("userId", client.UserID).
			Int("clientCount", len(clients)).
			Msg("sse client unsubscribed")
	}
}

// Publish pushes an event onto the user's redis channel; every panel
// instance with a subscriber for that user relays it to its clients.
func (b *Broker) Publish(ctx context.Context, userID string, eventType string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(Event{Type: eventType, Data: payload})
	if err != nil {
		return err
	}

	channel := redisclient.EventChannel(userID)
	return b.redis.Publish(ctx, channel, raw).Err()
}

func (b *Broker) subscribeToRedis(userID string) {
	channel := redisclient.EventChannel(userID)
	pubsub := b.redis.Subscribe(b.ctx, channel)
	defer pubsub.Close()

	log.Debug().
		Str("userId", userID).
		Str("channel", channel).
		Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-b.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			b.broadcast(userID, event)
		}
	}
}

func (b *Broker) broadcast(userID string, event Event) {
	b.mu.RLock()
	clients := b.clients[userID]
	b.mu.RUnlock()

	for client := range clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("userId", userID).
				Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, clients := range b.clients {
		for client := range clients {
			close(client.Done)
		}
	}
	b.clients = make(map[string]map[*Client]bool)
}

func (b *Broker) ClientCount(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[userID])
}

func (b *Broker) TotalClients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, clients := range b.clients {
		total += len(clients)
	}
	return total
}
