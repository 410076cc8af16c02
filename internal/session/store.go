package session

import (
	"context"
	"fmt"
	"maps"
	"math/rand/v2"
	"sync"
	"time"

	"prompt-enhancer/internal/seed"
)

// Prefs is what a bot user has configured between requests.
type Prefs struct {
	Platform   string
	Preset     string
	Controls   map[string]string
	Directives [2]string
	Seed       int64
	SeedMode   seed.Mode
	Keywords   []string
	Negatives  []string
}

type Session struct {
	Scope        string
	Username     string
	Prefs        Prefs
	Seed         seed.State
	LastActivity time.Time
}

type Options struct {
	DefaultPlatform string
	DefaultPreset   string
	// Rand drives seed randomisation. Nil uses a time-seeded generator.
	Rand *rand.Rand
}

// Store is the in-process session state. It also tracks seed continuity, so
// it can stand in as a seed.Tracker when no shared store is configured.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	defaults Prefs
	rng      *rand.Rand
}

func NewStore(opts Options) *Store {
	rng := opts.Rand
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>1))
	}
	return &Store{
		sessions: make(map[string]*Session),
		defaults: Prefs{
			Platform: opts.DefaultPlatform,
			Preset:   opts.DefaultPreset,
		},
		rng: rng,
	}
}

func Scope(chatID, userID int64) string {
	return fmt.Sprintf("tg:%d:%d", chatID, userID)
}

func (s *Store) Clear(scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[scope]; ok {
		sess.Prefs = clonePrefs(s.defaults)
		sess.Seed = seed.State{}
		sess.LastActivity = time.Now()
	}
}

func (s *Store) Snapshot(scope, username string) Prefs {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(scope, username)
	sess.LastActivity = time.Now()
	return clonePrefs(sess.Prefs)
}

func (s *Store) Update(scope, username string, fn func(*Prefs)) Prefs {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(scope, username)
	sess.LastActivity = time.Now()
	if sess.Prefs.Controls == nil {
		sess.Prefs.Controls = make(map[string]string)
	}
	fn(&sess.Prefs)
	return clonePrefs(sess.Prefs)
}

func (s *Store) Advance(_ context.Context, scope string, requested int64, mode seed.Mode) (seed.Resolved, error) {
	if scope == "" {
		return seed.Resolved{}, seed.ErrNoScope
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(scope, "")
	sess.LastActivity = time.Now()

	res := seed.Next(sess.Seed, requested, mode, s.rng)
	sess.Seed = seed.State{Last: res.Seed, Mode: res.Mode, Set: true}
	return res, nil
}

// Prune drops sessions idle for longer than maxIdle and reports how many.
func (s *Store) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for scope, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			delete(s.sessions, scope)
			n++
		}
	}
	return n
}

func (s *Store) getOrCreateLocked(scope, username string) *Session {
	if sess, ok := s.sessions[scope]; ok {
		if sess.Username == "" && username != "" {
			sess.Username = username
		}
		return sess
	}

	sess := &Session{
		Scope:        scope,
		Username:     username,
		Prefs:        clonePrefs(s.defaults),
		LastActivity: time.Now(),
	}
	s.sessions[scope] = sess
	return sess
}

func clonePrefs(p Prefs) Prefs {
	out := p
	out.Controls = maps.Clone(p.Controls)
	if out.Controls == nil {
		out.Controls = make(map[string]string)
	}
	out.Keywords = append([]string(nil), p.Keywords...)
	out.Negatives = append([]string(nil), p.Negatives...)
	return out
}
