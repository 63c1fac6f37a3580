// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/taibuivan/huddle/internal/platform/apperr"
	"github.com/taibuivan/huddle/internal/platform/ctxutil"
	"github.com/taibuivan/huddle/internal/platform/respond"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 25 * time.Second
	pingTimeout  = 5 * time.Second
)

// Handler upgrades authenticated requests to websocket sessions on a [Hub].
type Handler struct {
	hub     *Hub
	options *websocket.AcceptOptions
}

/*
NewHandler builds the upgrade handler.

Parameters:
  - hub: *Hub
  - allowedOrigins: []string (full origins, e.g. http://127.0.0.1:5173)
  - development: bool (an empty origin list then accepts any origin)
*/
func NewHandler(hub *Hub, allowedOrigins []string, development bool) *Handler {
	options := &websocket.AcceptOptions{}
	for _, origin := range allowedOrigins {
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			options.OriginPatterns = append(options.OriginPatterns, parsed.Host)
		}
	}
	if development && len(options.OriginPatterns) == 0 {
		options.InsecureSkipVerify = true
	}
	return &Handler{hub: hub, options: options}
}

/*
ServeHTTP handles GET /ws.

Response:
  - 101: Upgraded
  - 401: No credential
*/
func (handler *Handler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	claims := ctxutil.GetAuthUser(request.Context())
	if claims == nil {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	// Upgraded connections are not bound by the server read and write deadlines.
	controller := http.NewResponseController(writer)
	_ = controller.SetReadDeadline(time.Time{})
	_ = controller.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(writer, request, handler.options)
	if err != nil {
		return
	}

	logger := ctxutil.GetLogger(request.Context())
	session := handler.hub.Connect(claims)
	logger.Info("realtime_connected", slog.String("session_id", session.ID))

	ctx, cancel := context.WithCancel(request.Context())
	defer cancel()

	go func() {
		select {
		case <-handler.hub.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	go writeLoop(ctx, cancel, conn, session)
	go keepAliveLoop(ctx, conn)

	status := handler.readLoop(ctx, conn, session)

	handler.hub.Disconnect(session)
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	logger.Info("realtime_disconnected",
		slog.String("session_id", session.ID),
		slog.Int("close_status", int(status)),
	)
}

// readLoop applies client frames until the connection ends and returns the
// close status, or -1 when the connection dropped without a close frame.
func (handler *Handler) readLoop(ctx context.Context, conn *websocket.Conn, session *Session) websocket.StatusCode {
	for {
		var frame Inbound
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return websocket.CloseStatus(err)
		}

		if err := handler.hub.Handle(ctx, session, frame); err != nil {
			handler.hub.SendError(session, err)
		}
	}
}

// writeLoop drains the session queue until it is closed or the connection fails.
func writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, session *Session) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-session.Events():
			if !open {
				return
			}
			writeCtx, stop := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, event)
			stop()
			if err != nil {
				cancel()
				return
			}
		}
	}
}

func keepAliveLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			_ = conn.Ping(pingCtx)
			cancel()
		}
	}
}
