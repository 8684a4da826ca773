package relay

import "strings"

// room is one live room instance, keyed by the full path clients joined
// with. groupID is the trailing path segment, derived once here; it is the
// identity the store knows the room by. Two paths with different prefixes
// but the same trailing segment are distinct live rooms that share one
// persisted group.
type room struct {
	path    string
	groupID string
	members []string // connection ids, join order
}

// registry tracks which connections are in which room. A connection belongs
// to at most one room at a time.
type registry struct {
	rooms  map[string]*room  // by full room path
	byConn map[string]string // connection id -> room path
}

func newRegistry() *registry {
	return &registry{
		rooms:  make(map[string]*room),
		byConn: make(map[string]string),
	}
}

// join appends connID to the room at path, creating the room on first join.
// Joining a room the connection is already in changes nothing. The caller
// must have removed the connection from any other room first.
func (g *registry) join(connID, path string) *room {
	rm := g.rooms[path]
	if rm == nil {
		rm = &room{path: path, groupID: groupIDFromPath(path)}
		g.rooms[path] = rm
	}
	for _, id := range rm.members {
		if id == connID {
			return rm
		}
	}
	rm.members = append(rm.members, connID)
	g.byConn[connID] = path
	return rm
}

// leave removes connID from whichever room holds it and deletes the room
// once empty. Returns the room (members already excluding connID) and
// whether the connection was a member anywhere.
func (g *registry) leave(connID string) (*room, bool) {
	path, ok := g.byConn[connID]
	if !ok {
		return nil, false
	}
	delete(g.byConn, connID)
	rm := g.rooms[path]
	for i, id := range rm.members {
		if id == connID {
			rm.members = append(rm.members[:i], rm.members[i+1:]...)
			break
		}
	}
	if len(rm.members) == 0 {
		delete(g.rooms, path)
	}
	return rm, true
}

// membersOf returns a snapshot of the room's member ids in join order.
func (g *registry) membersOf(path string) []string {
	rm := g.rooms[path]
	if rm == nil {
		return nil
	}
	return append([]string(nil), rm.members...)
}

// roomOf is the reverse lookup from connection to its room.
func (g *registry) roomOf(connID string) (*room, bool) {
	path, ok := g.byConn[connID]
	if !ok {
		return nil, false
	}
	return g.rooms[path], true
}

// groupIDFromPath takes the segment after the last slash, so "/call/ABCDE"
// yields "ABCDE" and a bare "ABCDE" yields itself.
func groupIDFromPath(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
