// internal/handler/websocket_handler.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"serial-monitor/internal/model"
	"serial-monitor/internal/service"
	"serial-monitor/internal/utils"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
)

// WebSocketHandler streams session events to clients and accepts
// commands and prompt answers from them
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	connections *ConnectionManager
	commands    *sessionCommands
	prompts     *PromptBroker
	logger      *utils.ServiceLogger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	connections *ConnectionManager,
	manager *service.SessionManager,
	prompts *PromptBroker,
	promptTimeout time.Duration,
	allowedOrigins []string,
	logger *zap.Logger,
) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		connections: connections,
		commands:    newSessionCommands(manager, promptTimeout),
		prompts:     prompts,
		logger:      utils.NewServiceLogger(logger, "websocket-handler"),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/events", h.HandleEventConnection)
}

// Run forwards bus events to every client until the channel closes or
// ctx is done
func (h *WebSocketHandler) Run(ctx context.Context, events <-chan model.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			h.connections.Broadcast(&WebSocketMessage{
				Type:      "event",
				Data:      event,
				Timestamp: event.Timestamp,
			})
		}
	}
}

// HandleEventConnection upgrades a client to the event stream
func (h *WebSocketHandler) HandleEventConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, 256),
		UserAgent:   c.Request.UserAgent(),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
	}

	h.connections.Register(client)
	h.logger.Info("Event WebSocket client connected",
		zap.String("client_id", client.ID),
		zap.String("remote_addr", client.RemoteAddr),
	)

	// Send is still owned here, so the snapshot is queued directly
	if status, err := json.Marshal(&WebSocketMessage{
		Type:      "status",
		Data:      h.commands.manager.Status(),
		Timestamp: time.Now(),
	}); err == nil {
		client.Send <- status
	}

	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

// handleClientRead handles reading messages from WebSocket client
func (h *WebSocketHandler) handleClientRead(client *Client) {
	defer func() {
		h.connections.Unregister(client)
		client.Connection.Close()
		h.logger.Info("Event WebSocket client disconnected", zap.String("client_id", client.ID))
	}()

	client.Connection.SetReadDeadline(time.Now().Add(pongWait))
	client.Connection.SetPongHandler(func(string) error {
		client.Connection.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			break
		}

		var message ClientMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.sendError(client, "", "invalid message")
			continue
		}

		h.handleClientMessage(client, &message)
	}
}

// handleClientWrite handles writing messages to WebSocket client
func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Error("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleClientMessage handles incoming client messages
func (h *WebSocketHandler) handleClientMessage(client *Client, message *ClientMessage) {
	switch message.Type {
	case "command":
		h.handleCommand(client, message)
	case "prompt_response":
		h.handlePromptResponse(client, message)
	case "ping":
		h.sendMessage(client, &WebSocketMessage{
			Type:      "pong",
			Timestamp: time.Now(),
			RequestID: message.RequestID,
		})
	default:
		h.logger.Warn("Unknown message type",
			zap.String("type", message.Type),
			zap.String("client_id", client.ID),
		)
		h.sendError(client, message.RequestID, "unknown message type: "+message.Type)
	}
}

type commandPayload struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

// handleCommand runs a session command off the read loop so prompts
// issued by the command can still be answered on this connection
func (h *WebSocketHandler) handleCommand(client *Client, message *ClientMessage) {
	var payload commandPayload
	if err := json.Unmarshal(message.Data, &payload); err != nil || payload.Action == "" {
		h.sendError(client, message.RequestID, "action is required")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		result, err := h.commands.execute(ctx, payload.Action, payload.Params)

		data := map[string]interface{}{
			"action":  payload.Action,
			"success": err == nil,
			"result":  result,
		}
		if err != nil {
			_, code := errorStatus(err)
			data["error"] = err.Error()
			data["code"] = code
		}

		h.sendMessage(client, &WebSocketMessage{
			Type:      "command_response",
			Data:      data,
			Timestamp: time.Now(),
			RequestID: message.RequestID,
		})
	}()
}

func (h *WebSocketHandler) handlePromptResponse(client *Client, message *ClientMessage) {
	var answer PromptAnswer
	if len(message.Data) > 0 {
		if err := json.Unmarshal(message.Data, &answer); err != nil {
			h.sendError(client, message.RequestID, "invalid prompt response")
			return
		}
	}
	if answer.RequestID == "" {
		answer.RequestID = message.RequestID
	}

	if !h.prompts.Resolve(answer) {
		h.logger.Debug("Prompt already answered or expired",
			zap.String("request_id", answer.RequestID),
			zap.String("client_id", client.ID),
		)
	}
}

// sendMessage sends a message to a client
func (h *WebSocketHandler) sendMessage(client *Client, message *WebSocketMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	if !h.connections.SendTo(client.ID, messageBytes) {
		h.logger.Warn("Message not delivered",
			zap.String("client_id", client.ID),
			zap.String("type", message.Type),
		)
	}
}

// sendError sends an error message to a client
func (h *WebSocketHandler) sendError(client *Client, requestID, errorMsg string) {
	h.sendMessage(client, &WebSocketMessage{
		Type: "error",
		Data: map[string]interface{}{
			"error": errorMsg,
		},
		Timestamp: time.Now(),
		RequestID: requestID,
	})
}
