// Package hub fans game events out to websocket subscribers.
package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/redblue-backend/internal/engine"
)

type HubMsg interface{ isHubMsg() }

type Subscribe struct {
	GameID string
	Buffer int
	Reply  chan *Subscription
}

type Unsubscribe struct {
	Sub *Subscription
}

type Publish struct {
	GameID string
	Events []engine.Event
}

type CountSubscribers struct {
	GameID string
	Reply  chan int
}

type ShutdownHub struct{}

func (Subscribe) isHubMsg()        {}
func (Unsubscribe) isHubMsg()      {}
func (Publish) isHubMsg()          {}
func (CountSubscribers) isHubMsg() {}
func (ShutdownHub) isHubMsg()      {}

// Subscription receives a game's events on C until it is unsubscribed, the
// subscriber falls behind, or the hub shuts down; C is closed in each case.
type Subscription struct {
	GameID string
	C      <-chan engine.Event
	ch     chan engine.Event
}

type Hub struct {
	inbox chan HubMsg
	games map[string]map[*Subscription]struct{}
	log   *zap.Logger
	ctx   context.Context
	done  chan struct{}
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	h := &Hub{
		inbox: make(chan HubMsg, 256),
		games: make(map[string]map[*Subscription]struct{}),
		log:   log,
		ctx:   parent,
		done:  make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the hub has stopped.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Subscribe registers for a game's events. It returns nil once the hub stopped.
func (h *Hub) Subscribe(gameID string, buffer int) *Subscription {
	reply := make(chan *Subscription, 1)
	select {
	case h.inbox <- Subscribe{GameID: gameID, Buffer: buffer, Reply: reply}:
	case <-h.done:
		return nil
	}
	select {
	case sub := <-reply:
		return sub
	case <-h.done:
		return nil
	}
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	select {
	case h.inbox <- Unsubscribe{Sub: sub}:
	case <-h.done:
	}
}

// Publish queues events for a game without blocking the caller. Events are
// dropped when the hub is saturated.
func (h *Hub) Publish(gameID string, events ...engine.Event) {
	if len(events) == 0 {
		return
	}
	select {
	case h.inbox <- Publish{GameID: gameID, Events: events}:
	default:
		h.log.Warn("hub inbox full, dropping events", zap.String("game_id", gameID), zap.Int("events", len(events)))
	}
}

func (h *Hub) Count(gameID string) int {
	reply := make(chan int, 1)
	select {
	case h.inbox <- CountSubscribers{GameID: gameID, Reply: reply}:
	case <-h.done:
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-h.done:
		return 0
	}
}

func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.done:
	}
	<-h.done
}

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Subscribe:
				buf := msg.Buffer
				if buf <= 0 {
					buf = 16
				}
				ch := make(chan engine.Event, buf)
				sub := &Subscription{GameID: msg.GameID, C: ch, ch: ch}
				subs := h.games[msg.GameID]
				if subs == nil {
					subs = make(map[*Subscription]struct{})
					h.games[msg.GameID] = subs
				}
				subs[sub] = struct{}{}
				msg.Reply <- sub

			case Unsubscribe:
				h.remove(msg.Sub)

			case Publish:
				for _, ev := range msg.Events {
					h.broadcast(msg.GameID, ev)
				}

			case CountSubscribers:
				msg.Reply <- len(h.games[msg.GameID])

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) broadcast(gameID string, ev engine.Event) {
	for sub := range h.games[gameID] {
		select {
		case sub.ch <- ev:
			// ok
		default:
			// Subscriber is slow/full - drop them.
			h.log.Warn("dropping slow subscriber", zap.String("game_id", gameID))
			h.remove(sub)
		}
	}
}

// remove is idempotent; a subscription already dropped is ignored.
func (h *Hub) remove(sub *Subscription) {
	subs := h.games[sub.GameID]
	if _, ok := subs[sub]; !ok {
		return
	}
	close(sub.ch)
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.games, sub.GameID)
	}
}

func (h *Hub) shutdown() {
	for gameID, subs := range h.games {
		for sub := range subs {
			close(sub.ch)
		}
		delete(h.games, gameID)
	}
}
