package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"rps-kmc/internal/sims/rps"
)

// Stats is the JSON state pushed to clients and served by /api/state.
type Stats struct {
	Type         string  `json:"type"`
	Time         float64 `json:"t"`
	Rate         float64 `json:"w"`
	Side         int     `json:"side"`
	Counts       [4]int  `json:"counts"`
	Steps        int64   `json:"steps"`
	Paused       bool    `json:"paused"`
	Stalled      bool    `json:"stalled"`
	StepsPerTick int     `json:"stepsPerTick"`
	Mobility     float64 `json:"mobility"`
	Sigma        float64 `json:"sigma"`
	Mu           float64 `json:"mu"`
}

type message struct {
	data []byte
	text bool
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan message
}

// Broadcaster owns the engine on behalf of the web server. Steps run on the
// broadcaster's goroutine; HTTP handlers only touch the engine through the
// locked helpers, so snapshots always fall between steps.
type Broadcaster struct {
	mu           sync.Mutex
	engine       *rps.Engine
	steps        int64
	stepsPerTick int
	paused       bool
	stalled      bool

	interval time.Duration

	clientsMu sync.Mutex
	clients   map[*client]struct{}
}

// NewBroadcaster wraps e. stepsPerTick events are applied every interval.
func NewBroadcaster(e *rps.Engine, stepsPerTick int, interval time.Duration) *Broadcaster {
	if stepsPerTick <= 0 {
		stepsPerTick = 1
	}
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	return &Broadcaster{
		engine:       e,
		stepsPerTick: stepsPerTick,
		interval:     interval,
		clients:      make(map[*client]struct{}),
	}
}

// Run steps and broadcasts until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return
		case <-ticker.C:
			b.Tick()
		}
	}
}

// Tick applies one batch of steps and pushes the new state to every client.
func (b *Broadcaster) Tick() {
	b.mu.Lock()
	if !b.paused && !b.stalled {
		for i := 0; i < b.stepsPerTick; i++ {
			if err := b.engine.Step(); err != nil {
				b.stalled = true
				log.Printf("simulation stalled at t=%g: %v", b.engine.Time(), err)
				break
			}
			b.steps++
		}
	}
	frame := b.frameLocked()
	stats := b.statsLocked()
	b.mu.Unlock()

	b.broadcast(frame, false)
	if msg, err := json.Marshal(stats); err == nil {
		b.broadcast(msg, true)
	}
}

func (b *Broadcaster) frameLocked() []byte {
	e := b.engine
	return encodeFrame(e.Side(), e.Time(), e.Rate(), e.Cells())
}

func (b *Broadcaster) statsLocked() Stats {
	e := b.engine
	return Stats{
		Type:         "stats",
		Time:         e.Time(),
		Rate:         e.Rate(),
		Side:         e.Side(),
		Counts:       e.Counts(),
		Steps:        b.steps,
		Paused:       b.paused,
		Stalled:      b.stalled,
		StepsPerTick: b.stepsPerTick,
		Mobility:     e.Mobility(),
		Sigma:        e.Sigma(),
		Mu:           e.Mu(),
	}
}

// Stats returns the current state.
func (b *Broadcaster) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statsLocked()
}

// Snapshot returns a private copy of the engine taken between steps.
func (b *Broadcaster) Snapshot() *rps.Engine {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.engine.Clone()
}

// SetPaused stops or resumes stepping.
func (b *Broadcaster) SetPaused(paused bool) {
	b.mu.Lock()
	b.paused = paused
	b.mu.Unlock()
}

// SetStepsPerTick changes the batch size.
func (b *Broadcaster) SetStepsPerTick(n int) error {
	if n <= 0 {
		return fmt.Errorf("server: steps per tick must be positive, got %d", n)
	}
	b.mu.Lock()
	b.stepsPerTick = n
	b.mu.Unlock()
	return nil
}

// SetParameter forwards a rate change to the engine.
func (b *Broadcaster) SetParameter(key string, value float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.engine.SetFloatParameter(key, value) {
		return fmt.Errorf("server: cannot set %q to %g", key, value)
	}
	b.stalled = false
	return nil
}

// Reset reseeds and refills the lattice.
func (b *Broadcaster) Reset(seed int64) {
	b.mu.Lock()
	b.engine.Reset(seed)
	b.steps = 0
	b.stalled = false
	b.mu.Unlock()
}

// Load replaces the lattice with vals.
func (b *Broadcaster) Load(vals []rps.Species) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.engine.Load(vals); err != nil {
		return err
	}
	b.stalled = false
	return nil
}

// Side returns the lattice side length.
func (b *Broadcaster) Side() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.engine.Side()
}

// register adds a websocket client and sends it the current frame.
func (b *Broadcaster) register(conn *websocket.Conn) *client {
	c := &client{id: uuid.New().String(), conn: conn, send: make(chan message, 8)}

	b.mu.Lock()
	frame := b.frameLocked()
	b.mu.Unlock()
	c.send <- message{data: frame}

	b.clientsMu.Lock()
	b.clients[c] = struct{}{}
	n := len(b.clients)
	b.clientsMu.Unlock()
	log.Printf("client %s connected (%d total)", c.id, n)

	go c.writePump()
	return c
}

// unregister removes a client and closes its send queue.
func (b *Broadcaster) unregister(c *client) {
	b.clientsMu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
		log.Printf("client %s disconnected", c.id)
	}
	b.clientsMu.Unlock()
}

// Clients reports how many websocket clients are connected.
func (b *Broadcaster) Clients() int {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()
	return len(b.clients)
}

func (b *Broadcaster) broadcast(msg []byte, text bool) {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()
	for c := range b.clients {
		// Slow clients miss frames rather than stall the simulation.
		select {
		case c.send <- message{data: msg, text: text}:
		default:
		}
	}
}

func (b *Broadcaster) closeAll() {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()
	for c := range b.clients {
		delete(b.clients, c)
		close(c.send)
	}
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		kind := websocket.BinaryMessage
		if msg.text {
			kind = websocket.TextMessage
		}
		c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.conn.WriteMessage(kind, msg.data); err != nil {
			log.Printf("client %s write error: %v", c.id, err)
			// Closing unblocks the read loop, which then unregisters us.
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}
