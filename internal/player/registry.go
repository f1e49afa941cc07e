package player

import "sync"

// Registry maps guild id to its player, creating default state on first
// access. The registry lock only guards the map; each player carries its
// own lock, so guilds never block each other.
type Registry struct {
	mu      sync.RWMutex
	players map[string]*Player
	factory func(guildID string) *Player
}

// NewRegistry creates a registry that builds missing players with factory.
func NewRegistry(factory func(guildID string) *Player) *Registry {
	return &Registry{
		players: make(map[string]*Player),
		factory: factory,
	}
}

// GetOrCreate returns the guild's player, creating it if absent.
func (r *Registry) GetOrCreate(guildID string) *Player {
	r.mu.RLock()
	p, ok := r.players[guildID]
	r.mu.RUnlock()
	if ok {
		return p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[guildID]; ok {
		return p
	}
	p = r.factory(guildID)
	r.players[guildID] = p
	return p
}
