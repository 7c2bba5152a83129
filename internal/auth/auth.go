// Package auth tracks the signed-in user and hands out bearer tokens.
package auth

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrNotSignedIn        = errors.New("auth: not signed in")
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrSessionExpired     = errors.New("auth: session expired, sign in again")
	ErrNotConfigured      = errors.New("auth: sign-in is not configured")
)

// User is an authenticated identity.
type User interface {
	ID() string
	Email() string
	// Token returns a bearer token valid for at least a few minutes,
	// refreshing it if needed.
	Token(ctx context.Context) (string, error)
}

// Provider notifies listeners of identity changes. The current user (nil
// when signed out) is delivered right after subscribing.
type Provider interface {
	Subscribe(fn func(User)) (unsubscribe func())
}

// Authenticator is a Provider that can also sign users in and out.
type Authenticator interface {
	Provider
	SignIn(ctx context.Context, email, password string) error
	SignOut() error
}

type subscriber struct {
	ch   chan User
	done chan struct{}
}

// Broadcaster fans identity changes out to subscribers. Each subscriber gets
// its own goroutine, so callbacks may block without stalling publishers.
type Broadcaster struct {
	mu      sync.Mutex
	pubMu   sync.Mutex
	current User
	next    int
	subs    map[int]*subscriber
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]*subscriber)}
}

func (b *Broadcaster) Subscribe(fn func(User)) func() {
	s := &subscriber{ch: make(chan User, 1), done: make(chan struct{})}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = s
	s.ch <- b.current
	b.mu.Unlock()

	go func() {
		for {
			select {
			case u := <-s.ch:
				fn(u)
			case <-s.done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(s.done)
		})
	}
}

// Current returns the last published user.
func (b *Broadcaster) Current() User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Publish records u as the current user and notifies every subscriber in
// publish order.
func (b *Broadcaster) Publish(u User) {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	b.mu.Lock()
	b.current = u
	subs := make([]*subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- u:
		case <-s.done:
		}
	}
}
