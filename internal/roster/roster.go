// Package roster holds the in-memory copy of the user collection.
//
// The roster and the remote store are two independently mutated copies:
// writes land on both in a single forward pass and are never read back, so
// the roster reflects what this process did, not necessarily what the store
// holds. Replace is the only operation that resets it from store contents.
package roster

import (
	"sync"

	"usersapi/internal/model"
)

// Listener receives a snapshot of the roster after every mutation.
type Listener func(users []model.User)

// Roster is a mutable list of users guarded by a mutex. Listeners registered
// with Subscribe are invoked after each Add/Update/Remove/Replace, outside
// the lock, with their own copy of the list.
type Roster struct {
	mu        sync.RWMutex
	users     []model.User
	listeners []Listener
}

// New returns an empty roster.
func New() *Roster {
	return &Roster{users: make([]model.User, 0)}
}

// Subscribe registers a change listener. Listeners cannot be removed; the
// roster lives as long as the process does.
func (r *Roster) Subscribe(l Listener) {
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
}

// Users returns a copy of the current list.
func (r *Roster) Users() []model.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.users)
}

// Len returns the number of users currently held.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// Get returns the user with the given id, or false if absent.
func (r *Roster) Get(id string) (model.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}

// Add appends a user to the list and notifies listeners.
func (r *Roster) Add(u model.User) {
	r.mu.Lock()
	r.users = append(r.users, u)
	users, listeners := snapshot(r.users), r.listeners
	r.mu.Unlock()

	notify(listeners, users)
}

// Update replaces the entry with the same id in place. It reports whether
// the id was present; listeners fire only on an actual change.
func (r *Roster) Update(u model.User) bool {
	r.mu.Lock()
	found := false
	for i := range r.users {
		if r.users[i].ID == u.ID {
			r.users[i] = u
			found = true
			break
		}
	}
	users, listeners := snapshot(r.users), r.listeners
	r.mu.Unlock()

	if found {
		notify(listeners, users)
	}
	return found
}

// Remove deletes the entry with the given id, preserving order. It reports
// whether the id was present.
func (r *Roster) Remove(id string) bool {
	r.mu.Lock()
	found := false
	for i := range r.users {
		if r.users[i].ID == id {
			r.users = append(r.users[:i], r.users[i+1:]...)
			found = true
			break
		}
	}
	users, listeners := snapshot(r.users), r.listeners
	r.mu.Unlock()

	if found {
		notify(listeners, users)
	}
	return found
}

// Replace swaps the whole list for the given one and notifies listeners.
// Used after a fetch-all against the remote store.
func (r *Roster) Replace(users []model.User) {
	r.mu.Lock()
	r.users = snapshot(users)
	current, listeners := snapshot(r.users), r.listeners
	r.mu.Unlock()

	notify(listeners, current)
}

func snapshot(users []model.User) []model.User {
	out := make([]model.User, len(users))
	copy(out, users)
	return out
}

func notify(listeners []Listener, users []model.User) {
	for _, l := range listeners {
		l(users)
	}
}
