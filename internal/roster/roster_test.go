package roster

import (
	"sync"
	"testing"

	"usersapi/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestRoster_AddAndGet(t *testing.T) {
	r := New()

	r.Add(model.User{ID: "u-1", Name: "Alice", Age: 30})

	assert.Equal(t, 1, r.Len())

	u, ok := r.Get("u-1")
	assert.True(t, ok)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, 30, u.Age)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRoster_LenTracksAddAndRemove(t *testing.T) {
	r := New()

	r.Add(model.User{ID: "u-1", Name: "Alice", Age: 30})
	assert.Equal(t, 1, r.Len())

	r.Add(model.User{ID: "u-2", Name: "Bob", Age: 24})
	assert.Equal(t, 2, r.Len())

	assert.True(t, r.Remove("u-1"))
	assert.Equal(t, 1, r.Len())

	assert.False(t, r.Remove("u-1"))
	assert.Equal(t, 1, r.Len())
}

func TestRoster_Update(t *testing.T) {
	r := New()
	r.Add(model.User{ID: "u-1", Name: "Alice", Age: 30})

	ok := r.Update(model.User{ID: "u-1", Name: "Alice Cooper", Age: 31})
	assert.True(t, ok)

	u, _ := r.Get("u-1")
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "Alice Cooper", u.Name)
	assert.Equal(t, 31, u.Age)

	assert.False(t, r.Update(model.User{ID: "ghost"}))
}

func TestRoster_Replace(t *testing.T) {
	r := New()
	r.Add(model.User{ID: "old", Name: "Old", Age: 99})

	r.Replace([]model.User{
		{ID: "u-1", Name: "Alice", Age: 30},
		{ID: "u-2", Name: "Bob", Age: 24},
	})

	assert.Equal(t, 2, r.Len())
	_, ok := r.Get("old")
	assert.False(t, ok)
}

func TestRoster_NotifiesListeners(t *testing.T) {
	r := New()

	var mu sync.Mutex
	var calls [][]model.User
	r.Subscribe(func(users []model.User) {
		mu.Lock()
		calls = append(calls, users)
		mu.Unlock()
	})

	r.Add(model.User{ID: "u-1", Name: "Alice", Age: 30})
	r.Update(model.User{ID: "u-1", Name: "Alicia", Age: 30})
	r.Remove("u-1")

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, calls, 3)
	assert.Len(t, calls[0], 1)
	assert.Equal(t, "Alicia", calls[1][0].Name)
	assert.Empty(t, calls[2])
}

func TestRoster_NoNotifyOnMiss(t *testing.T) {
	r := New()

	notified := 0
	r.Subscribe(func([]model.User) { notified++ })

	r.Update(model.User{ID: "ghost"})
	r.Remove("ghost")

	assert.Zero(t, notified)
}

func TestRoster_SnapshotIsolation(t *testing.T) {
	r := New()
	r.Add(model.User{ID: "u-1", Name: "Alice", Age: 30})

	users := r.Users()
	users[0].Name = "mutated"

	u, _ := r.Get("u-1")
	assert.Equal(t, "Alice", u.Name)
}

func TestRoster_ConcurrentWrites(t *testing.T) {
	r := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r.Add(model.User{ID: string(rune('a' + n)), Name: "x", Age: n})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, r.Len())
}
