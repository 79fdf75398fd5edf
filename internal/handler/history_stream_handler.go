package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/jadwal-api/internal/service"
)

const historyPingInterval = 30 * time.Second

// HistoryStreamHandler pushes newly appended log entries of a class over a websocket.
type HistoryStreamHandler struct {
	feed         service.HistoryFeed
	logger       zerolog.Logger
	pingInterval time.Duration
}

// NewHistoryStreamHandler constructs the handler.
func NewHistoryStreamHandler(feed service.HistoryFeed, logger zerolog.Logger) *HistoryStreamHandler {
	return &HistoryStreamHandler{
		feed:         feed,
		logger:       logger.With().Str("component", "history_stream_handler").Logger(),
		pingInterval: historyPingInterval,
	}
}

// Register binds the stream route. It must be registered before routes matching /history/:logId.
func (h *HistoryStreamHandler) Register(router fiber.Router) {
	router.Use("/stream", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("class_id", classIDFromParams(c))
			c.Locals("request_ctx", requestContext(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/stream", websocket.New(h.handleConnection))
}

func (h *HistoryStreamHandler) handleConnection(conn *websocket.Conn) {
	classID, _ := conn.Locals("class_id").(string)
	if classID == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "class id missing"))
		_ = conn.Close()
		return
	}
	baseCtx, _ := conn.Locals("request_ctx").(context.Context)
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	stream, cleanup := h.feed.Subscribe(classID)
	defer cleanup()

	logger := h.logger.With().Str("class_id", classID).Logger()
	logger.Info().Msg("history stream connected")
	defer logger.Info().Msg("history stream disconnected")

	// The read loop only exists to notice the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case entry, ok := <-stream:
			if !ok {
				return
			}
			if err := conn.WriteJSON(entry); err != nil {
				logger.Debug().Err(err).Msg("failed to write history entry")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
