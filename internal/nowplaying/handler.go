package nowplaying

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/strefethen/music-agent-go/internal/api"
)

// Route is the websocket endpoint path.
const Route = "/v1/now-playing/ws"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // bearer auth runs before the upgrade
	},
}

// RoomResolver maps the ?room= value to a room name, applying any default.
type RoomResolver func(room string) (string, error)

// RegisterRoutes wires the now-playing websocket to the router.
func RegisterRoutes(router chi.Router, hub *Hub, poller *Poller, resolve RoomResolver) {
	router.HandleFunc(Route, Handler(hub, poller, resolve))
}

// Handler upgrades the request and streams updates for one room until the
// client disconnects.
func Handler(hub *Hub, poller *Poller, resolve RoomResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, err := resolve(r.URL.Query().Get("room"))
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the error response.
			return
		}

		client := newClient(uuid.NewString(), room, hub, conn)
		if !hub.add(client) {
			_ = conn.Close()
			return
		}
		poller.Watch(room)
		defer poller.Unwatch(room)
		poller.SendLastState(client)
		hub.logger.Info("now-playing client connected",
			zap.String("client_id", client.id),
			zap.String("room", room),
			zap.String("request_id", api.GetRequestID(r)),
		)

		go client.writePump()
		client.readPump()
	}
}
