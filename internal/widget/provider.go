// Package widget resolves the current GrowthLab user for an embedded widget
// frame and relays the host page's cross-frame messages over a WebSocket.
package widget

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/growthlab/growthlab-web/internal/platform"
)

// DefaultTokenTimeout bounds the wait for a TOKEN_RESPONSE.
const DefaultTokenTimeout = time.Second

// State is the provider's resolution state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
	StateError         State = "error"
)

// Snapshot is the provider state as seen by the widget UI.
type Snapshot struct {
	State    State          `json:"state"`
	User     *platform.User `json:"user"`
	Loading  bool           `json:"loading"`
	Embedded bool           `json:"embedded"`
	Error    string         `json:"error,omitempty"`
}

// Frame is the widget's window: whether it is framed, a way to post to the
// parent and the stream of messages the parent sends.
type Frame interface {
	Embedded() bool
	Post(ctx context.Context, m Message) error
	Messages() <-chan Message
}

// ProfileSource looks up the platform user for a token.
type ProfileSource interface {
	ProfileForToken(ctx context.Context, token string) (*platform.User, error)
}

// Option customizes a Provider.
type Option func(*Provider)

// WithTokenTimeout sets how long Refresh waits for the parent to answer a
// REQUEST_TOKEN. Non-positive values keep the default.
func WithTokenTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the provider's logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// Provider tracks who is using one widget instance. Overlapping Refresh
// calls are not coalesced; whichever finishes last sets the state.
type Provider struct {
	storage  Storage
	frame    Frame
	profiles ProfileSource
	timeout  time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	snap    Snapshot
	pending map[string]chan string
	subs    map[chan Snapshot]struct{}
}

// NewProvider creates a Provider. frame may be nil for a standalone page.
func NewProvider(storage Storage, frame Frame, profiles ProfileSource, opts ...Option) *Provider {
	p := &Provider{
		storage:  storage,
		frame:    frame,
		profiles: profiles,
		timeout:  DefaultTokenTimeout,
		logger:   slog.Default(),
		snap:     Snapshot{State: StateUninitialized},
		pending:  make(map[string]chan string),
		subs:     make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.snap.Embedded = frame != nil && frame.Embedded()
	return p
}

// Snapshot returns the current state.
func (p *Provider) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Subscribe returns a channel that always holds the most recent snapshot not
// yet received, and a func that stops delivery and closes the channel.
func (p *Provider) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	p.mu.Lock()
	p.subs[ch] = struct{}{}
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, ch)
			close(ch)
			p.mu.Unlock()
		})
	}
}

func (p *Provider) update(fn func(s *Snapshot)) Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.snap)
	for ch := range p.subs {
		select {
		case <-ch:
		default:
		}
		ch <- p.snap
	}
	return p.snap
}

func (p *Provider) setAnonymous() Snapshot {
	return p.update(func(s *Snapshot) {
		s.State = StateAnonymous
		s.User = nil
		s.Loading = false
		s.Error = ""
	})
}

// Refresh resolves the user: the stored token first, then, inside a frame,
// the parent's answer to REQUEST_TOKEN. A rejected token is cleared from
// storage. Other lookup failures keep the previous user.
func (p *Provider) Refresh(ctx context.Context) Snapshot {
	p.update(func(s *Snapshot) {
		s.State = StateLoading
		s.Loading = true
	})

	token, err := p.storage.Load()
	if err != nil {
		p.logger.Warn("read widget token", "error", err)
		token = ""
	}
	if token == "" && p.frame != nil && p.frame.Embedded() {
		token = p.requestToken(ctx)
	}
	if token == "" {
		return p.setAnonymous()
	}

	user, err := p.profiles.ProfileForToken(ctx, token)
	switch {
	case err == nil:
		return p.update(func(s *Snapshot) {
			s.State = StateAuthenticated
			s.User = user
			s.Loading = false
			s.Error = ""
		})
	case errors.Is(err, platform.ErrUnauthorized):
		if err := p.storage.Clear(); err != nil {
			p.logger.Warn("clear widget token", "error", err)
		}
		return p.setAnonymous()
	default:
		p.logger.Error("fetch widget profile", "error", err)
		return p.update(func(s *Snapshot) {
			s.State = StateError
			s.Loading = false
			s.Error = "profile unavailable"
		})
	}
}

// requestToken posts REQUEST_TOKEN and waits for the matching TOKEN_RESPONSE.
// A timeout or cancellation yields no token.
func (p *Provider) requestToken(ctx context.Context) string {
	id := uuid.NewString()
	ch := make(chan string, 1)
	p.mu.Lock()
	p.pending[id] = ch
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
	}()

	if err := p.frame.Post(ctx, Message{Type: TypeRequestToken, ID: id}); err != nil {
		p.logger.Warn("post REQUEST_TOKEN", "error", err)
		return ""
	}

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case token := <-ch:
		return token
	case <-timer.C:
		p.logger.Debug("REQUEST_TOKEN timed out", "id", id, "timeout", p.timeout)
		return ""
	case <-ctx.Done():
		return ""
	}
}

// deliverToken routes a TOKEN_RESPONSE by ID, or to every waiting request
// when the parent did not echo one.
func (p *Provider) deliverToken(m Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, ch := range p.pending {
		if m.ID != "" && m.ID != id {
			continue
		}
		select {
		case ch <- m.token():
		default:
		}
	}
}

// Run resolves the user once and then handles parent messages until ctx is
// done or the frame's message stream ends.
func (p *Provider) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	refresh := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Refresh(ctx)
		}()
	}

	refresh()
	if p.frame == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	msgs := p.frame.Messages()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-msgs:
			if !ok {
				return nil
			}
			p.handle(m, refresh)
		}
	}
}

func (p *Provider) handle(m Message, refresh func()) {
	switch m.Type {
	case TypeTokenResponse:
		p.deliverToken(m)
	case TypeAuthUpdate:
		if token := m.token(); token != "" {
			if err := p.storage.Store(token); err != nil {
				p.logger.Warn("store widget token", "error", err)
			}
			refresh()
			return
		}
		if err := p.storage.Clear(); err != nil {
			p.logger.Warn("clear widget token", "error", err)
		}
		p.setAnonymous()
	default:
		p.logger.Debug("ignoring widget message", "type", m.Type)
	}
}
