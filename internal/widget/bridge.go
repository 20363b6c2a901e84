package widget

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/websocket"

	"github.com/growthlab/growthlab-web/internal/auth"
	"github.com/growthlab/growthlab-web/internal/metrics"
)

const writeWait = 10 * time.Second

// Bridge is the WebSocket endpoint the widget page uses to relay its
// postMessage traffic. Each connection gets its own Provider whose state
// changes are pushed back as STATE messages.
type Bridge struct {
	sessions *scs.SessionManager
	profiles ProfileSource
	timeout  time.Duration
	logger   *slog.Logger
	upgrader websocket.Upgrader

	done      chan struct{}
	closeOnce sync.Once
}

// NewBridge creates a Bridge. Tokens are persisted in sm.
func NewBridge(sm *scs.SessionManager, profiles ProfileSource, tokenTimeout time.Duration, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		sessions: sm,
		profiles: profiles,
		timeout:  tokenTimeout,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		done: make(chan struct{}),
	}
}

// Shutdown closes every open bridge connection with a going-away frame and
// refuses new ones. http.Server.Shutdown does not reach hijacked connections,
// so register it with RegisterOnShutdown.
func (b *Bridge) Shutdown() {
	b.closeOnce.Do(func() { close(b.done) })
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case <-b.done:
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	var cookieToken string
	if c, err := r.Cookie(b.sessions.Cookie.Name); err == nil {
		cookieToken = c.Value
	}
	sessCtx, err := b.sessions.Load(r.Context(), cookieToken)
	if err != nil {
		b.logger.Error("load widget session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// The handshake is the only chance to set a cookie, so the session is
	// saved up front.
	token, expiry, err := b.sessions.Commit(sessCtx)
	if err != nil {
		b.logger.Error("commit widget session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	hdr := http.Header{}
	if token != cookieToken {
		hdr.Add("Set-Cookie", b.sessionCookie(token, expiry).String())
	}

	conn, err := b.upgrader.Upgrade(w, r, hdr)
	if err != nil {
		// Upgrade has already written an error response.
		return
	}
	defer conn.Close()

	metrics.BridgeConnections.Inc()
	defer metrics.BridgeConnections.Dec()

	ctx, cancel := context.WithCancel(sessCtx)
	defer cancel()
	go func() {
		select {
		case <-b.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			cancel()
		case <-ctx.Done():
		}
	}()

	frame := newSocketFrame(conn, auth.IsEmbedded(r))
	go frame.readLoop(ctx)

	p := NewProvider(NewSessionStorage(ctx, b.sessions), frame, b.profiles,
		WithTokenTimeout(b.timeout), WithLogger(b.logger))

	states, unsubscribe := p.Subscribe()
	defer unsubscribe()
	go func() {
		for s := range states {
			if err := frame.Post(ctx, Message{Type: TypeState, State: &s}); err != nil {
				cancel()
				return
			}
		}
	}()

	if err := p.Run(ctx); err != nil && ctx.Err() == nil {
		b.logger.Warn("widget bridge stopped", "error", err)
	}
}

func (b *Bridge) sessionCookie(token string, expiry time.Time) *http.Cookie {
	c := b.sessions.Cookie
	cookie := &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     c.Path,
		Domain:   c.Domain,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
		SameSite: c.SameSite,
	}
	if c.Persist {
		cookie.Expires = time.Unix(expiry.Unix()+1, 0)
		cookie.MaxAge = int(time.Until(expiry).Seconds() + 1)
	}
	return cookie
}

// socketFrame is a Frame backed by a WebSocket connection.
type socketFrame struct {
	conn     *websocket.Conn
	embedded bool
	msgs     chan Message

	writeMu sync.Mutex
}

func newSocketFrame(conn *websocket.Conn, embedded bool) *socketFrame {
	return &socketFrame{conn: conn, embedded: embedded, msgs: make(chan Message)}
}

func (f *socketFrame) Embedded() bool { return f.embedded }

func (f *socketFrame) Messages() <-chan Message { return f.msgs }

func (f *socketFrame) Post(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	f.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return f.conn.WriteJSON(m)
}

// readLoop decodes inbound envelopes until the connection fails, then
// closes the message stream. Malformed frames are skipped.
func (f *socketFrame) readLoop(ctx context.Context) {
	defer close(f.msgs)
	for {
		_, data, err := f.conn.ReadMessage()
		if err != nil {
			return
		}
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		select {
		case f.msgs <- m:
		case <-ctx.Done():
			return
		}
	}
}
