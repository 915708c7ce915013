package main

import (
	"sync"

	"go.uber.org/zap"

	"github.com/aryipc/trenchsurvivors-sub000/sim"
)

// Hub tracks connected clients and owns the run registry.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	runs       *RunManager

	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
	maxConns   int
	maxPerIP   int

	db        *DB
	auth      *Auth
	analytics *Analytics
	tuning    *sim.Config
	view      sim.Viewport // used when a client sends no viewport
	publicURL string
	log       *zap.Logger
}

// HubDeps are the collaborators a Hub is built from. DB may be nil.
type HubDeps struct {
	Config    *Config
	Tuning    *sim.Config
	DB        *DB
	Auth      *Auth
	Analytics *Analytics
	Log       *zap.Logger
}

// NewHub creates a Hub. Call Run to start processing registrations.
func NewHub(d HubDeps) *Hub {
	gc := d.Config.Game
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		quit:       make(chan struct{}),
		runs: NewRunManager(RunOptions{
			Tuning:         d.Tuning,
			DB:             d.DB,
			Analytics:      d.Analytics,
			Log:            d.Log,
			TickRate:       gc.TickRate,
			BroadcastEvery: gc.BroadcastEvery,
			MaxRuns:        gc.MaxRuns,
		}),
		ipConns:   make(map[string]int),
		maxConns:  d.Config.Server.MaxConns,
		maxPerIP:  d.Config.Server.MaxPerIP,
		db:        d.DB,
		auth:      d.Auth,
		analytics: d.Analytics,
		tuning:    d.Tuning,
		view:      sim.Viewport{Width: gc.ViewportWidth, Height: gc.ViewportHeight, Zoom: gc.Zoom},
		publicURL: d.Config.Server.PublicURL,
		log:       d.Log,
	}
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= h.maxConns {
		return false
	}
	if h.ipConns[ip] >= h.maxPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events until Shutdown.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.detach(client)

		case <-h.quit:
			return
		}
	}
}

// detach releases whatever run the client was driving or controlling.
func (h *Hub) detach(c *Client) {
	if c.runID == "" {
		return
	}
	if c.isController {
		if r := h.runs.Get(c.runID); r != nil {
			r.SetController(nil)
		}
		return
	}
	h.runs.Remove(c.runID)
}

// Shutdown stops every run and the registration loop.
func (h *Hub) Shutdown() {
	close(h.quit)
	h.runs.StopAll()
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
