package server

import (
	"context"
	"log/slog"
	"time"

	"hearth/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
)

// requireStreamUpgrade runs before authentication so plain HTTP callers get
// a clear 426 and deployments without Redis a 503.
func (s *Server) requireStreamUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if s.redis == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "live notifications are not configured")
	}
	return c.Next()
}

// NotificationStream handles GET /api/notifications/stream. Every event
// published on the user's channel is written to the socket as a text frame.
func (s *Server) NotificationStream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		observability.NotificationStreams.Inc()
		defer observability.NotificationStreams.Dec()

		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"login_needed"}`))
			_ = conn.Close()
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		events, err := s.notifier.Subscribe(ctx, uid)
		if err != nil {
			slog.Error("notification stream subscribe failed", "user_id", uid, "err", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"internal"}`))
			_ = conn.Close()
			return
		}
		slog.Info("notification stream opened", "user_id", uid)
		defer slog.Info("notification stream closed", "user_id", uid)

		// The client never sends data; reading only keeps pongs flowing and
		// notices the close.
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(streamPingPeriod)
		defer ticker.Stop()
		defer func() { _ = conn.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case payload, ok := <-events:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
				if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	})
}

// ListNotifications handles GET /api/notifications
func (s *Server) ListNotifications(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPageLimit)
	list, err := s.notificationService.List(c.UserContext(), userID, page.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// MarkNotificationsSeen handles POST /api/notifications/seen. An empty id
// list marks everything seen.
func (s *Server) MarkNotificationsSeen(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	var req struct {
		IDs []uint `json:"ids"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}

	n, err := s.notificationService.MarkSeen(c.UserContext(), userID, req.IDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"updated": n})
}
