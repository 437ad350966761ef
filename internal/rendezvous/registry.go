package rendezvous

// Registry is the room lookup owned by the hub. All access happens on the
// hub goroutine, so no locking is needed here.
type Registry struct {
	rooms map[string]*Room
}

// NewRegistry creates an empty room registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Get looks up a room by code.
func (r *Registry) Get(code string) (*Room, bool) {
	room, ok := r.rooms[code]
	return room, ok
}

// GetOrCreate returns the room for code, creating it on first join.
func (r *Registry) GetOrCreate(code string) *Room {
	if room, ok := r.rooms[code]; ok {
		return room
	}
	room := &Room{Code: code}
	r.rooms[code] = room
	return room
}

// Delete removes a room once it has emptied.
func (r *Registry) Delete(code string) {
	delete(r.rooms, code)
}

// Len reports the number of live rooms.
func (r *Registry) Len() int {
	return len(r.rooms)
}
