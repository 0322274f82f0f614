package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	sqerrors "github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/internal/logging"
	"github.com/FocuswithJustin/sqlitescan/internal/render"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Response is sent for every command message.
type Response struct {
	RequestID string           `json:"request_id"`
	SessionID string           `json:"session_id"`
	Command   string           `json:"command"`
	Result    *render.Document `json:"result,omitempty"`
	Truncated bool             `json:"truncated,omitempty"`
	Error     *ErrorBody       `json:"error,omitempty"`
	ElapsedMS int64            `json:"elapsed_ms"`
}

// ErrorBody describes a failed command.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// errorKind classifies err by the sentinel it wraps.
func errorKind(err error) string {
	switch {
	case errors.Is(err, sqerrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, sqerrors.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, sqerrors.ErrTruncated):
		return "truncated"
	case errors.Is(err, sqerrors.ErrUnsupportedPageKind):
		return "unsupported_page_kind"
	case errors.Is(err, sqerrors.ErrUnsupported):
		return "unsupported"
	case errors.Is(err, sqerrors.ErrCorrupt):
		return "corrupt"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

// session is one WebSocket connection.
type session struct {
	id     string
	server *Server
	conn   *websocket.Conn
	bucket *tokenBucket
}

// handleWebSocket upgrades the connection and serves commands until the
// client disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.WarnContext(r.Context(), "websocket_upgrade_failed", "error", err, "client_ip", getClientIP(r))
		return
	}
	conn.SetReadLimit(s.cfg.MaxMessageSize)

	sess := &session{
		id:     uuid.NewString(),
		server: s,
		conn:   conn,
		bucket: newTokenBucket(s.cfg.MaxMessageRate),
	}
	s.track(sess, true)
	logging.WebSocketEvent("session_opened", sess.id, "client_ip", getClientIP(r), "origin", r.Header.Get("Origin"))

	sess.serve(r.Context())

	s.track(sess, false)
	logging.WebSocketEvent("session_closed", sess.id)
}

func (c *session) serve(ctx context.Context) {
	defer c.conn.Close()

	done := make(chan struct{})
	defer close(done)
	go c.ping(done)

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.WebSocketEvent("unexpected_close", c.id, "error", err.Error())
			}
			return
		}

		if !c.bucket.allow() {
			logging.WebSocketEvent("rate_limited", c.id)
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "rate limit exceeded"),
				time.Now().Add(writeWait))
			return
		}

		data := c.encode(c.handle(ctx, msgType, message))
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// ping keeps the connection alive until done is closed.
func (c *session) ping(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// handle runs one command message and builds its response.
func (c *session) handle(ctx context.Context, msgType int, message []byte) *Response {
	requestID := logging.NewRequestID()
	ctx = logging.WithRequestID(ctx, requestID)
	command := strings.TrimSpace(string(message))
	start := time.Now()

	resp := &Response{
		RequestID: requestID,
		SessionID: c.id,
		Command:   command,
	}

	if msgType != websocket.TextMessage {
		resp.Error = &ErrorBody{Kind: "invalid_input", Message: "commands must be sent as text messages"}
		return resp
	}

	res, err := c.server.db.Exec(ctx, command)
	resp.ElapsedMS = time.Since(start).Milliseconds()
	if err != nil {
		resp.Error = &ErrorBody{Kind: errorKind(err), Message: err.Error()}
		return resp
	}

	if limit := c.server.cfg.MaxRows; limit > 0 && len(res.Rows) > limit {
		res.Rows = res.Rows[:limit]
		resp.Truncated = true
	}
	resp.Result = render.NewDocument(res)
	return resp
}

// encode marshals resp. A response that cannot be marshaled is replaced by
// an internal error reply carrying the same request ID, so the session
// stays open.
func (c *session) encode(resp *Response) []byte {
	data, err := json.Marshal(resp)
	if err == nil {
		return data
	}
	logging.Error("failed to marshal response", "error", err, "session_id", c.id, "request_id", resp.RequestID)
	data, _ = json.Marshal(&Response{
		RequestID: resp.RequestID,
		SessionID: resp.SessionID,
		Command:   resp.Command,
		Error:     &ErrorBody{Kind: "internal", Message: "response could not be encoded: " + err.Error()},
		ElapsedMS: resp.ElapsedMS,
	})
	return data
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients), origins in the allowed list, and otherwise only the serving
// host itself.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(s.cfg.AllowedOrigins) == 0 {
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
	if isOriginAllowed(origin, s.cfg.AllowedOrigins) {
		return true
	}
	logging.WarnContext(r.Context(), "websocket_origin_rejected", "origin", origin)
	return false
}

// isOriginAllowed checks origin against exact entries, "*", and
// "*.example.com" subdomain patterns. Patterns match the origin's host name,
// so any scheme and port are accepted.
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	host := ""
	if u, err := url.Parse(origin); err == nil {
		host = strings.ToLower(u.Hostname())
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
		if strings.HasPrefix(allowed, "*.") && host != "" &&
			strings.HasSuffix(host, strings.ToLower(allowed[1:])) {
			return true
		}
	}
	return false
}
