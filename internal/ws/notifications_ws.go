package ws

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/oggyb/irlobby/internal/logger"
	"github.com/oggyb/irlobby/internal/observability"
)

// Authenticator resolves a bearer token to a user id.
type Authenticator func(token string) (uint64, error)

// NotificationHandler upgrades authenticated requests to notification sockets.
type NotificationHandler struct {
	hub      *Hub
	auth     Authenticator
	upgrader websocket.Upgrader
}

// NewNotificationHandler constructs a NotificationHandler. Browser handshakes
// are accepted from the server's own host and from allowedOrigins; "*" allows
// any origin. Requests without an Origin header are not browser initiated and
// pass.
func NewNotificationHandler(hub *Hub, auth Authenticator, allowedOrigins []string) *NotificationHandler {
	return &NotificationHandler{
		hub:      hub,
		auth:     auth,
		upgrader: websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)},
	}
}

func normalizeOrigin(o string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(o), "/"))
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = normalizeOrigin(o)
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[o] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		_, ok := set[normalizeOrigin(origin)]
		return ok
	}
}

// Handle upgrades the connection and registers the client.
// The token comes from the Authorization header or the token query parameter.
func (h *NotificationHandler) Handle(c *gin.Context) {
	ctx, span := observability.StartSpan(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.Query("token")
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			token = parts[1]
		}
	}

	userID, err := h.auth(token)
	if token == "" || err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		observability.IncWSEvent("ws_rejected")
		logger.Debug("notification socket upgrade failed", "user_id", userID, "origin", c.GetHeader("Origin"), "err", err)
		return
	}

	cl := &client{
		conn: conn,
		info: ConnInfo{
			ConnID:      newConnID(),
			UserID:      userID,
			IP:          observability.IPFromRequest(c.Request),
			RequestID:   observability.RequestIDFromRequest(c.Request),
			ConnectedAt: time.Now(),
		},
	}
	h.hub.add(cl)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	log := logger.With("user_id", userID, "conn_id", cl.info.ConnID)
	log.Debug("notification socket connected")

	// Keep connection alive and clean on close
	go func() {
		defer func() {
			if h.hub.remove(cl) {
				observability.DecWSActive()
			}
			observability.IncWSEvent("ws_disconnect")
			_ = conn.Close()
			log.Debug("notification socket closed", "duration_ms", time.Since(cl.info.ConnectedAt).Milliseconds())
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("ws_error")
				}
				return
			}
		}
	}()
}
