package common

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"infinite-experiment/poolroster/internal/logging"
	"infinite-experiment/poolroster/internal/roster"
)

// ConsoleFactory builds an inactive console for a device id.
type ConsoleFactory func(id string) *roster.Console

// ConsoleRegistry keeps one active Console per staff device. Consoles idle
// for longer than the TTL are evicted, and eviction closes them: the
// subscription is dropped and pending alert timers are cancelled.
type ConsoleRegistry struct {
	mu      sync.Mutex
	cache   *cache.Cache
	factory ConsoleFactory
	idleTTL time.Duration
}

func NewConsoleRegistry(idleTTL time.Duration, factory ConsoleFactory) *ConsoleRegistry {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	c := cache.New(idleTTL, idleTTL/2)
	c.OnEvicted(func(id string, v interface{}) {
		if console, ok := v.(*roster.Console); ok {
			console.Close()
			logging.Debug("Console evicted", "console_id", id)
		}
	})
	return &ConsoleRegistry{cache: c, factory: factory, idleTTL: idleTTL}
}

func (r *ConsoleRegistry) IdleTTL() time.Duration {
	return r.idleTTL
}

// GetOrCreate returns the console for id, activating a new one when none
// is registered. Every call refreshes the idle timer.
func (r *ConsoleRegistry) GetOrCreate(id string) *roster.Console {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, found := r.cache.Get(id); found {
		console := v.(*roster.Console)
		r.cache.Set(id, console, cache.DefaultExpiration)
		return console
	}

	// An expired console may still sit in the cache until the janitor runs.
	// Evict it now so it is closed before its replacement subscribes.
	r.cache.DeleteExpired()

	console := r.factory(id)
	console.Activate()
	r.cache.Set(id, console, cache.DefaultExpiration)
	return console
}

// Get returns a registered console and refreshes its idle timer.
func (r *ConsoleRegistry) Get(id string) (*roster.Console, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, found := r.cache.Get(id)
	if !found {
		return nil, false
	}
	console := v.(*roster.Console)
	r.cache.Set(id, console, cache.DefaultExpiration)
	return console, true
}

// Remove closes and forgets the console for id.
func (r *ConsoleRegistry) Remove(id string) {
	r.cache.Delete(id)
}

func (r *ConsoleRegistry) Len() int {
	return r.cache.ItemCount()
}

// CloseAll closes every console. Used on shutdown.
func (r *ConsoleRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.cache.Items() {
		r.cache.Delete(id)
	}
	r.cache.DeleteExpired()
}
