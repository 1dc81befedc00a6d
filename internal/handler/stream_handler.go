package handler

import (
	"context"
	"encoding/json"
	"time"

	"ai-study-assistant-be/internal/dto"
	"ai-study-assistant-be/internal/pkg/logger"
	"ai-study-assistant-be/internal/pkg/serverutils"
	"ai-study-assistant-be/internal/service"
	internalWS "ai-study-assistant-be/internal/websocket"
	"ai-study-assistant-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	module          = "StreamHandler"
	firstFrameWait  = 30 * time.Second
	askReadLimit    = 64 * 1024
	sessionIDLocals = "session_id"
)

type StreamHandler struct {
	service service.IStudyService
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewStreamHandler(service service.IStudyService, hub *internalWS.Hub, log logger.ILogger) *StreamHandler {
	return &StreamHandler{service: service, hub: hub, logger: log}
}

func (h *StreamHandler) RegisterRoutes(r fiber.Router) {
	ws := r.Group("/study/v1/ws", upgradeOnly)
	ws.Get("/sessions/:id/ask", h.checkSession, websocket.New(h.ServeAsk))
	ws.Get("/sessions/:id/updates", h.checkSession, websocket.New(h.ServeUpdates))
}

func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// checkSession rejects unknown sessions before the upgrade so clients get a
// plain HTTP error.
func (h *StreamHandler) checkSession(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperror.Validation("invalid session id")
	}
	if _, err := h.service.Show(c.UserContext(), id); err != nil {
		return err
	}
	c.Locals(sessionIDLocals, id)
	return c.Next()
}

func errorFrame(err error) dto.StreamMessage {
	body := serverutils.Body(err)
	return dto.StreamMessage{Type: dto.StreamError, Kind: body.Kind, Message: body.Message}
}

// ServeAsk reads one ask request and streams the answer back. Closing the
// socket cancels generation.
func (h *StreamHandler) ServeAsk(conn *websocket.Conn) {
	id := conn.Locals(sessionIDLocals).(uuid.UUID)
	client := internalWS.NewClient(nil, conn, id)
	defer conn.Close()

	conn.SetReadLimit(askReadLimit)
	conn.SetReadDeadline(time.Now().Add(firstFrameWait))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return
	}
	conn.SetReadDeadline(time.Time{})

	var req dto.AskRequest
	if err := json.Unmarshal(data, &req); err != nil {
		_ = client.WriteJSON(errorFrame(apperror.Validation("invalid ask request")))
		return
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		_ = client.WriteJSON(errorFrame(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	h.logger.Info(module, "Streaming answer", map[string]interface{}{"session_id": id})
	res, err := h.service.StreamAsk(ctx, id, &req, func(fragment string) error {
		return client.WriteJSON(dto.StreamMessage{Type: dto.StreamFragment, Text: fragment})
	})
	if err != nil {
		if ctx.Err() != nil {
			h.logger.Info(module, "Client went away during streaming", map[string]interface{}{"session_id": id})
			return
		}
		h.logger.Warn(module, "Streaming answer failed", map[string]interface{}{"session_id": id, "error": err})
		_ = client.WriteJSON(errorFrame(err))
		return
	}

	_ = client.WriteJSON(dto.StreamMessage{Type: dto.StreamDone, Text: res.Answer, Provider: res.Provider, Sources: res.Sources})
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// ServeUpdates pushes the session state on every change until the peer leaves.
func (h *StreamHandler) ServeUpdates(conn *websocket.Conn) {
	id := conn.Locals(sessionIDLocals).(uuid.UUID)

	var snapshot []byte
	if session, err := h.service.Show(context.Background(), id); err == nil {
		snapshot, _ = json.Marshal(dto.SessionUpdateMessage{Type: dto.UpdateSession, Session: session})
	}

	h.logger.Info(module, "Starting updates session", map[string]interface{}{"session_id": id})
	internalWS.Serve(h.hub, conn, id, snapshot)
	h.logger.Info(module, "Updates session ended", map[string]interface{}{"session_id": id})
}
