package folio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/devemco/folio/blog"
	"github.com/devemco/folio/engagement"
	"github.com/devemco/folio/metrics"
	"github.com/devemco/folio/posts"
	"github.com/devemco/folio/storage"
)

// Session is the in-memory state of one profile: the merged post list, the
// engagement store, the featured rotation and the post being edited in the
// manage console. Handlers hold mu for the whole request.
type Session struct {
	mu sync.Mutex

	ID         string
	Posts      *posts.Store
	Engagement *engagement.Store
	Featured   *Rotator
	// Editing is the slug open in the post editor, "" when creating.
	Editing string

	lastUsed atomic.Int64
}

func (s *Session) touch(now time.Time) { s.lastUsed.Store(now.UnixNano()) }

// SessionConfig configures a SessionCache.
type SessionConfig struct {
	TTL              time.Duration
	Namespace        string
	FeaturedInterval time.Duration
	Now              func() time.Time
	Logger           *slog.Logger
}

// SessionCache keeps one Session per profile id. Idle sessions are dropped
// after TTL and rebuilt from storage on the next request.
type SessionCache struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	backend  storage.Backend
	cfg      SessionConfig
}

// NewSessionCache creates a SessionCache over backend.
func NewSessionCache(backend storage.Backend, cfg SessionConfig) *SessionCache {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = engagement.DefaultNamespace
	}
	return &SessionCache{
		sessions: make(map[string]*Session),
		backend:  backend,
		cfg:      cfg,
	}
}

// Get returns the session of profile id, loading it on first use.
// It tries a read lock first; only takes a write lock if a load is needed.
func (c *SessionCache) Get(ctx context.Context, id string) (*Session, error) {
	now := c.cfg.Now()
	c.mu.RLock()
	s, ok := c.sessions[id]
	c.mu.RUnlock()
	if ok {
		s.touch(now)
		return s, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[id]; ok {
		s.touch(now)
		return s, nil
	}
	s, err := c.open(ctx, id)
	if err != nil {
		return nil, err
	}
	s.touch(now)
	c.sessions[id] = s
	metrics.ActiveProfiles.Set(float64(len(c.sessions)))
	return s, nil
}

// open builds the stores of a profile over its storage namespace.
func (c *SessionCache) open(ctx context.Context, id string) (*Session, error) {
	kv := c.backend.Profile(id)
	log := c.cfg.Logger.With("profile", id)
	eng := engagement.New(kv,
		engagement.WithNamespace(c.cfg.Namespace),
		engagement.WithClock(c.cfg.Now),
	)
	ps := posts.New(kv, blog.Seed(), eng,
		posts.WithNamespace(c.cfg.Namespace),
		posts.WithClock(c.cfg.Now),
		posts.WithLogger(log),
	)
	if _, err := ps.Load(ctx); err != nil {
		return nil, fmt.Errorf("load profile %s: %w", id, err)
	}
	return &Session{
		ID:         id,
		Posts:      ps,
		Engagement: eng,
		Featured:   NewRotator(c.cfg.FeaturedInterval),
	}, nil
}

// Len reports how many sessions are held.
func (c *SessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// Sweep drops sessions idle for longer than the TTL. Sessions busy with a
// request are kept.
func (c *SessionCache) Sweep() int {
	cutoff := c.cfg.Now().Add(-c.cfg.TTL).UnixNano()
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for id, s := range c.sessions {
		if s.lastUsed.Load() >= cutoff || !s.mu.TryLock() {
			continue
		}
		delete(c.sessions, id)
		s.mu.Unlock()
		dropped++
	}
	metrics.ActiveProfiles.Set(float64(len(c.sessions)))
	return dropped
}

// Run sweeps idle sessions until ctx is done.
func (c *SessionCache) Run(ctx context.Context) {
	every := c.cfg.TTL / 2
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				c.cfg.Logger.Debug("idle profiles dropped", "count", n)
			}
		}
	}
}
