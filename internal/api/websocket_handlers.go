package api

import (
	"ats-analyzer/internal/auth"
	"ats-analyzer/internal/lib/sl"
	"ats-analyzer/internal/websocket"
	"net/http"
)

// ServeWsHandler upgrades a connection authenticated by the token query
// parameter and subscribes it to the owner's analysis events.
func (s *Server) ServeWsHandler(w http.ResponseWriter, r *http.Request) {
	const op = "api.ServeWsHandler"
	log := s.requestLogger(r, op)

	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		s.respondError(w, r, http.StatusUnauthorized, "Token required")
		return
	}

	claims, err := auth.VerifyJWT(tokenString, s.config.JWT.Secret)
	if err != nil {
		log.Info("websocket connection with invalid token", sl.Err(err))
		s.respondError(w, r, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	conn, err := websocket.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", sl.Err(err))
		return
	}

	client := websocket.NewClient(s.wsHub, conn, claims.UserID)
	if !s.wsHub.Add(client) {
		log.Info("websocket hub is shut down, closing connection")
		conn.Close()
		return
	}

	go client.ReadPump()
	go client.WritePump()
}
