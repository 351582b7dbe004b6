package nowplaying

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/strefethen/music-agent-go/internal/sonos"
)

// DefaultInterval is used when the poller is given a non-positive interval.
const DefaultInterval = 2 * time.Second

// StateSource reads a room's state. *sonos.Client satisfies it.
type StateSource interface {
	GetState(ctx context.Context, room string) (sonos.State, error)
}

// Poller reads state for watched rooms and broadcasts changes to the hub.
type Poller struct {
	source   StateSource
	hub      *Hub
	interval time.Duration

	mu      sync.RWMutex
	watched map[string]int
	last    map[string]Update
}

// NewPoller creates a Poller.
func NewPoller(source StateSource, hub *Hub, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		source:   source,
		hub:      hub,
		interval: interval,
		watched:  make(map[string]int),
		last:     make(map[string]Update),
	}
}

// Run polls until ctx is cancelled. It must be run in a separate goroutine.
func (p *Poller) Run(ctx context.Context) {
	p.hub.logger.Info("poller started", zap.Duration("interval", p.interval))
	defer p.hub.logger.Info("poller stopped")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Watch adds a subscriber for room. Rooms are polled while they have at least
// one subscriber.
func (p *Poller) Watch(room string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.watched[room]++
}

// Unwatch removes a subscriber for room and forgets its state once the last
// subscriber leaves.
func (p *Poller) Unwatch(room string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.watched[room]--
	if p.watched[room] <= 0 {
		delete(p.watched, room)
		delete(p.last, room)
	}
}

// Poll reads every watched room once and broadcasts rooms whose state changed.
func (p *Poller) Poll(ctx context.Context) {
	for _, room := range p.rooms() {
		p.UpdateRoom(ctx, room)
	}
}

// UpdateRoom fetches one room, compares it with the cached state and
// broadcasts when it differs.
func (p *Poller) UpdateRoom(ctx context.Context, room string) {
	state, err := p.source.GetState(ctx, room)
	if err != nil {
		p.hub.logger.Warn("failed to read room state", zap.String("room", room), zap.Error(err))
		return
	}
	update := newUpdate(room, state)

	p.mu.Lock()
	if _, ok := p.watched[room]; !ok {
		p.mu.Unlock()
		return
	}
	var prev *Update
	if cached, ok := p.last[room]; ok {
		prev = &cached
	}
	hasChanged := changed(prev, update)
	if hasChanged {
		p.last[room] = update
	}
	p.mu.Unlock()

	if hasChanged {
		p.hub.logger.Debug("room state changed",
			zap.String("room", room),
			zap.String("playback_state", update.PlaybackState),
			zap.String("track", update.Track.Title),
		)
		p.hub.Broadcast(update)
	}
}

// LastState returns the cached update for room.
func (p *Poller) LastState(room string) (Update, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	update, ok := p.last[room]
	return update, ok
}

// SendLastState queues the cached state for a newly registered client.
func (p *Poller) SendLastState(client *Client) {
	update, ok := p.LastState(client.room)
	if !ok {
		return
	}
	payload, err := json.Marshal(update)
	if err != nil {
		return
	}
	p.hub.unicast(client, payload)
}

func (p *Poller) rooms() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rooms := make([]string, 0, len(p.watched))
	for room := range p.watched {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	return rooms
}
