// Package httpserv wires the rendezvous hub into an HTTP surface: the
// websocket upgrade endpoint and a health probe.
package httpserv

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/RachelH1213/lab25fall-fourth-project/internal/rendezvous"
	"github.com/RachelH1213/lab25fall-fourth-project/internal/signaling"
)

// NewRouter builds the server's router: health check, websocket endpoint,
// and CORS for browser participants.
func NewRouter(hub *rendezvous.Hub, log *zap.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("rendezvous server is healthy."))
	})

	r.Get("/ws", ServeWS(hub, log, allowedOrigins))

	return r
}

// ServeWS returns the handler that upgrades a participant connection and
// hands it to the hub.
func ServeWS(hub *rendezvous.Hub, log *zap.Logger, allowedOrigins []string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &rendezvous.Client{
			Hub:  hub,
			ID:   uuid.NewString(),
			Conn: conn,
			Send: make(chan *signaling.Message, 256),
		}

		client.Hub.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}

	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients (the CLI) send no Origin header.
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
