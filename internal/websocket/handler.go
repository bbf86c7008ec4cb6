package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/mkendall/tandem/internal/auth"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to
// WebSocket and runs them as Hub clients bound to the caller's couple.
// RequireAuth must run before this handler.
func HandleWebSocket(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coupleID := auth.CoupleID(r.Context())
		if coupleID == 0 {
			http.Error(w, "pairing required", http.StatusForbidden)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Mobile clients connect from app webviews, not a fixed origin
		})
		if err != nil {
			hub.logger.Warn("websocket accept failed", "error", err)
			return
		}

		client := NewClient(hub, conn, coupleID)
		client.Run(r.Context())
	}
}
