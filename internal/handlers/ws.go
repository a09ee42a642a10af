// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/lastletter/lastletter/internal/game"
)

// clientMessage is the shape of every inbound WebSocket message. Fields
// beyond Type are populated per action: name/password for room actions and
// renames, word for submissions.
type clientMessage struct {
	Type     string `json:"type"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password,omitempty"`
	Word     string `json:"word,omitempty"`
}

// GameWSHandler upgrades the HTTP connection to WebSocket, resolves the guest
// identity, registers the connection with the hub and the game layer, and
// runs the read loop until the client goes away.
func GameWSHandler(logger *logrus.Logger, hub *Hub, orch *game.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Resolve identity before Accept so a fresh cookie can ride on the
		// handshake response.
		guestID, err := EnsureGuestToken(w, r)
		if err != nil {
			logger.Warnf("guest authentication failed: %v", err)
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"lastletter"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "lastletter" {
			c.Close(BadSubprotocolError, "client must speak the lastletter subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		cl, ok := hub.Register(guestID, cancel)
		if !ok {
			logger.Warnf("duplicate session for guest %s", guestID)
			c.Close(DuplicateSessionError, "a session for this identity already exists")
			return
		}
		logger.Infof("guest %s (%s) connected", guestID, r.RemoteAddr)

		orch.Connect(ctx, guestID)

		go writePump(ctx, c, cl, logger)

		readPump(ctx, c, orch, guestID, logger)

		// Cleanup after the read loop exits. Disconnect cascades the leave
		// (elimination, leader handoff, room teardown) before the identity
		// is forgotten.
		orch.Disconnect(context.Background(), guestID)
		hub.Unregister(guestID)
		logger.Infof("guest %s cleanup complete", guestID)
	}
}

// readPump reads client messages until error or cancellation and routes them
// to the game layer. Room-level locking happens inside the orchestrator, so
// dispatch here is a straight switch.
func readPump(ctx context.Context, c *websocket.Conn, orch *game.Orchestrator, guestID string, logger *logrus.Logger) {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("websocket closed normally for guest %s", guestID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("websocket context canceled for guest %s", guestID)
			} else {
				logger.Warnf("read error for guest %s: %v (status: %d)", guestID, err, status)
			}
			return
		}

		if typ != websocket.MessageText {
			logger.Warnf("non-text message type %d from guest %s, ignoring", typ, guestID)
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("invalid json from guest %s: %v", guestID, err)
			sendWsError(c, "invalid JSON format")
			continue
		}

		logger.Debugf("action %q from guest %s", msg.Type, guestID)

		switch msg.Type {
		case "createRoom":
			orch.CreateRoom(ctx, guestID, msg.Name, msg.Password)
		case "joinRoom":
			orch.JoinRoom(ctx, guestID, msg.Name, msg.Password)
		case "leaveRoom":
			orch.LeaveRoom(ctx, guestID)
		case "changeName":
			orch.ChangeName(ctx, guestID, msg.Name)
		case "readyToggle":
			orch.ReadyToggle(ctx, guestID)
		case "submitWord":
			orch.SubmitWord(ctx, guestID, msg.Word)
		case "ping":
			sendWsMessage(c, map[string]string{"type": "pong"})
		default:
			logger.Warnf("unknown action type %q from guest %s", msg.Type, guestID)
			sendWsError(c, fmt.Sprintf("unknown action type: %s", msg.Type))
		}
	}
}

// writePump drains the hub queue onto the socket and keeps the connection
// alive with periodic pings. Exits on context cancellation, queue closure, or
// write failure; the read pump notices the broken connection and cleans up.
func writePump(ctx context.Context, c *websocket.Conn, cl *client, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-cl.outChan:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warnf("failed to marshal outgoing event for guest %s: %v", cl.id, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to websocket for guest %s: %v", cl.id, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("ping failed for guest %s, assuming disconnect: %v", cl.id, err)
				return
			}
		}
	}
}

// sendWsMessage marshals and writes a message with its own timeout, outside
// the hub queue. Used for protocol-level replies only.
func sendWsMessage(c *websocket.Conn, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = c.Write(writeCtx, websocket.MessageText, data)
}

// sendWsError sends a structured error message to the client.
func sendWsError(c *websocket.Conn, errorMsg string) {
	sendWsMessage(c, map[string]interface{}{
		"type":    "error",
		"message": errorMsg,
	})
}
