package room

import (
	"sort"

	"auction-room/internal/domain"
)

// client is one live connection as the room sees it. Outbox is the client's
// buffered delivery channel; the room closes it when the client is dropped.
type client struct {
	id     string
	role   domain.Role
	outbox chan []byte
}

// registry tracks live connections and their claimed roles. It is owned by
// the room loop and therefore needs no locking.
type registry struct {
	clients map[string]*client
}

func newRegistry() *registry {
	return &registry{clients: make(map[string]*client)}
}

func (r *registry) add(id string, outbox chan []byte) *client {
	c := &client{id: id, outbox: outbox}
	r.clients[id] = c
	return c
}

func (r *registry) remove(id string) {
	delete(r.clients, id)
}

func (r *registry) roleOf(id string) domain.Role {
	if c := r.clients[id]; c != nil {
		return c.role
	}
	return domain.RoleNone
}

// claim binds role to the connection. An acting role already held by another
// live connection cannot be claimed again; one writer per role.
func (r *registry) claim(id string, role domain.Role) bool {
	c := r.clients[id]
	if c == nil || !role.Acting() {
		return false
	}
	for _, other := range r.clients {
		if other.id != id && other.role == role {
			return false
		}
	}
	c.role = role
	return true
}

// roles returns the currently claimed roles, sorted for stable broadcasts.
func (r *registry) roles() []string {
	out := make([]string, 0, len(r.clients))
	for _, c := range r.clients {
		if c.role.Acting() {
			out = append(out, string(c.role))
		}
	}
	sort.Strings(out)
	return out
}

func (r *registry) size() int {
	return len(r.clients)
}
