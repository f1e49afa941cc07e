package player

// Track is an immutable playable reference with display metadata. Tracks
// are created when a search resolves or a raw URL is played, and discarded
// when dequeued.
type Track struct {
	Link    string
	Title   string
	Channel string
}
