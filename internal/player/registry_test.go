package player

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return NewRegistry(func(guildID string) *Player {
		return New(guildID, &fakeJoiner{session: &fakeSession{}}, &fakeNotifier{}, &fakeResolver{})
	})
}

func TestRegistryLazyCreate(t *testing.T) {
	r := newTestRegistry()

	p1 := r.GetOrCreate("guild-1")
	require.NotNil(t, p1)
	assert.Same(t, p1, r.GetOrCreate("guild-1"))
	assert.NotSame(t, p1, r.GetOrCreate("guild-2"))
}

func TestRegistryDefaultState(t *testing.T) {
	r := newTestRegistry()
	p := r.GetOrCreate("guild-1")

	repeat := p.repeat
	volume := p.volume
	assert.False(t, repeat)
	assert.Equal(t, 1.0, volume)
	assert.Empty(t, p.queue)
	assert.Nil(t, p.session)
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := newTestRegistry()

	const goroutines = 32
	players := make([]*Player, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Half the goroutines share a guild, the rest get their own.
			if i%2 == 0 {
				players[i] = r.GetOrCreate("shared")
			} else {
				players[i] = r.GetOrCreate(fmt.Sprintf("guild-%d", i))
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < goroutines; i += 2 {
		assert.Same(t, players[0], players[i], "same guild must map to one player")
	}
}
