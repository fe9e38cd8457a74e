// internal/handler/websocket_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"label-service/internal/model"
	"label-service/internal/utils"
)

// WebSocketHandler streams bus events to WebSocket clients
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	connections *ConnectionManager
	bus         *EventBus
	logger      *utils.ServiceLogger
}

// NewWebSocketHandler creates a WebSocket handler fed by the event bus
func NewWebSocketHandler(bus *EventBus, allowedOrigins []string, logger *zap.Logger) *WebSocketHandler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	handler := &WebSocketHandler{
		upgrader:    upgrader,
		connections: NewConnectionManager(),
		bus:         bus,
		logger:      utils.NewServiceLogger(logger, "websocket-handler"),
	}

	go handler.pumpEvents()

	return handler
}

// originChecker accepts the configured origins. "*" accepts any.
func originChecker(allowed []string) func(r *http.Request) bool {
	allowAny := len(allowed) == 0
	set := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			allowAny = true
		}
		set[origin] = true
	}

	return func(r *http.Request) bool {
		if allowAny {
			return true
		}
		return set[r.Header.Get("Origin")]
	}
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Service-wide event stream
	router.GET("/events", h.HandleEventConnection)

	// Single-printer event stream
	router.GET("/printers/:printer_id", h.HandlePrinterConnection)
}

// HandleEventConnection handles service-wide event stream connections
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

	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

// HandlePrinterConnection handles single-printer event stream connections
func (h *WebSocketHandler) HandlePrinterConnection(c *gin.Context) {
	printerID := c.Param("printer_id")
	if _, err := uuid.Parse(printerID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid printer_id"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, 256),
		PrinterID:   &printerID,
		UserAgent:   c.Request.UserAgent(),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
	}

	h.connections.Register(client)
	h.logger.Info("Printer WebSocket client connected",
		zap.String("client_id", client.ID),
		zap.String("printer_id", printerID),
	)

	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

// pumpEvents relays every bus event to the matching clients
func (h *WebSocketHandler) pumpEvents() {
	events := h.bus.Subscribe(TopicAll)
	for event := range events {
		h.broadcastEvent(event)
	}
}

// broadcastEvent sends one event to every connected client whose filters
// match it
func (h *WebSocketHandler) broadcastEvent(event model.Event) {
	message := &WebSocketMessage{
		Type:      "event",
		Data:      event,
		Timestamp: time.Now(),
	}
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	topic := TopicFor(event.EventType)
	printerID := event.PrinterID.String()

	for _, client := range h.connections.All() {
		if client.PrinterID != nil && *client.PrinterID != printerID {
			continue
		}
		if !client.wantsTopic(topic) {
			continue
		}

		select {
		case client.Send <- messageBytes:
		default:
			h.logger.Warn("Client send channel full, dropping event",
				zap.String("client_id", client.ID),
			)
		}
	}
}

// handleClientRead handles reading messages from WebSocket client
func (h *WebSocketHandler) handleClientRead(client *Client) {
	defer func() {
		h.connections.Unregister(client)
		client.Connection.Close()
	}()

	client.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Connection.SetPongHandler(func(string) error {
		client.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
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

		var message WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.logger.Error("Failed to parse WebSocket message",
				zap.Error(err),
				zap.String("client_id", client.ID),
			)
			continue
		}

		h.handleClientMessage(client, &message)
	}
}

// handleClientWrite handles writing messages to WebSocket client
func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
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
			client.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleClientMessage handles incoming client messages
func (h *WebSocketHandler) handleClientMessage(client *Client, message *WebSocketMessage) {
	switch message.Type {
	case "subscribe":
		h.handleSubscription(client, message)
	case "unsubscribe":
		h.handleUnsubscription(client, message)
	case "ping":
		h.sendMessage(client, &WebSocketMessage{
			Type:      "pong",
			Timestamp: time.Now(),
		})
	default:
		h.logger.Warn("Unknown message type",
			zap.String("type", message.Type),
			zap.String("client_id", client.ID),
		)
	}
}

// handleSubscription narrows the client's stream to the requested topics
func (h *WebSocketHandler) handleSubscription(client *Client, message *WebSocketMessage) {
	topic, ok := messageTopic(message)
	if !ok {
		h.sendError(client, "topic is required")
		return
	}

	switch topic {
	case TopicPrinter, TopicJob, TopicTransfer, TopicDiscovery, TopicAll:
	default:
		h.sendError(client, "unknown topic: "+topic)
		return
	}

	if client.Subscriptions == nil {
		client.Subscriptions = make(map[string]bool)
	}
	client.Subscriptions[topic] = true
	h.logger.Info("Client subscribed to topic",
		zap.String("client_id", client.ID),
		zap.String("topic", topic),
	)

	h.sendMessage(client, &WebSocketMessage{
		Type: "subscription_confirmed",
		Data: map[string]interface{}{
			"topic": topic,
		},
		Timestamp: time.Now(),
	})
}

// handleUnsubscription removes a topic from the client's filter
func (h *WebSocketHandler) handleUnsubscription(client *Client, message *WebSocketMessage) {
	if client.Subscriptions == nil {
		return
	}

	if topic, ok := messageTopic(message); ok {
		delete(client.Subscriptions, topic)
		h.logger.Info("Client unsubscribed from topic",
			zap.String("client_id", client.ID),
			zap.String("topic", topic),
		)
	}
}

func messageTopic(message *WebSocketMessage) (string, bool) {
	data, ok := message.Data.(map[string]interface{})
	if !ok {
		return "", false
	}
	topic, ok := data["topic"].(string)
	return topic, ok
}

// sendMessage sends a message to a client
func (h *WebSocketHandler) sendMessage(client *Client, message *WebSocketMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	select {
	case client.Send <- messageBytes:
	default:
		h.logger.Warn("Client send channel full, dropping message",
			zap.String("client_id", client.ID),
		)
	}
}

// sendError sends an error message to a client
func (h *WebSocketHandler) sendError(client *Client, errorMsg string) {
	h.sendMessage(client, &WebSocketMessage{
		Type: "error",
		Data: map[string]interface{}{
			"error": errorMsg,
		},
		Timestamp: time.Now(),
	})
}

// GetConnectionStats returns connection statistics
func (h *WebSocketHandler) GetConnectionStats() *ConnectionStats {
	return h.connections.GetStats()
}
