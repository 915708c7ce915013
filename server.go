package main

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const (
	qrSize          = 256
	maxLeaderboard  = 100
	defaultTopLimit = 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, clientDir string) *http.ServeMux {
	mux := http.NewServeMux()

	// Serve static files with no-cache so browsers always revalidate
	fs := http.FileServer(http.Dir(clientDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		if r.URL.Path == "/" {
			http.ServeFile(w, r, filepath.Join(clientDir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	}))

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.log.Debug("upgrade", zap.Error(err))
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	mux.HandleFunc("GET /api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		limit := defaultTopLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > maxLeaderboard {
				http.Error(w, "bad limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		entries := []LeaderboardEntry{}
		if hub.db != nil {
			top, err := hub.db.TopScores(r.Context(), limit)
			if err != nil {
				hub.log.Error("top scores", zap.Error(err))
				http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
				return
			}
			if top != nil {
				entries = top
			}
		}
		writeJSON(w, http.StatusOK, entries)
	})

	mux.HandleFunc("GET /api/runs/{id}/events", func(w http.ResponseWriter, r *http.Request) {
		if hub.analytics == nil {
			writeJSON(w, http.StatusOK, map[string]int{})
			return
		}
		counts, err := hub.analytics.EventCounts(r.Context(), r.PathValue("id"))
		if err != nil {
			hub.log.Error("event counts", zap.Error(err))
			http.Error(w, "events unavailable", http.StatusInternalServerError)
			return
		}
		if counts == nil {
			counts = map[string]int{}
		}
		writeJSON(w, http.StatusOK, counts)
	})

	// QR code linking a phone to a run as its touch joystick
	mux.HandleFunc("GET /qr", func(w http.ResponseWriter, r *http.Request) {
		runID := r.URL.Query().Get("run")
		if hub.runs.Get(runID) == nil {
			http.Error(w, "run not found", http.StatusNotFound)
			return
		}
		link := hub.publicURL + "/?control=" + url.QueryEscape(runID)
		png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
		if err != nil {
			hub.log.Error("qr encode", zap.Error(err))
			http.Error(w, "qr unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(png)
	})

	return mux
}
