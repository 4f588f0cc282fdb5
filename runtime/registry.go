package runtime

import (
	"slices"

	"github.com/samber/lo"

	"whisperwall/contract"
	"whisperwall/domain"
	"whisperwall/domain/event"
)

type Set map[domain.ConversationKey]struct{}

// Registry maps a room to the endpoints currently subscribed to it.
//
// It holds no lock: the Relay loop owns it and is the only goroutine
// touching it. Nothing survives a restart, clients re-join after reconnecting.
type Registry struct {
	rooms       map[domain.ConversationKey]map[string]contract.Endpoint // room -> endpoint id -> endpoint
	memberships map[string]Set                                         // endpoint id -> rooms
}

// BroadcastResult counts live deliveries of one fan-out.
type BroadcastResult struct {
	Delivered int
	Dropped   []string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:       make(map[domain.ConversationKey]map[string]contract.Endpoint),
		memberships: make(map[string]Set),
	}
}

// Join adds the endpoint to the room, creating the room on the fly.
// It returns false when the endpoint was already a member.
// Other memberships of the endpoint are left untouched.
func (r *Registry) Join(endpoint contract.Endpoint, room domain.ConversationKey) bool {
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]contract.Endpoint)
		r.rooms[room] = members
	}
	if _, ok := members[endpoint.ID()]; ok {
		return false
	}
	members[endpoint.ID()] = endpoint

	rooms, ok := r.memberships[endpoint.ID()]
	if !ok {
		rooms = make(Set)
		r.memberships[endpoint.ID()] = rooms
	}
	rooms[room] = struct{}{}
	return true
}

// Leave removes the endpoint from the room. Removing a non-member is a no-op.
// Empty rooms are dropped so the map does not grow with abandoned conversations.
func (r *Registry) Leave(endpointID string, room domain.ConversationKey) bool {
	members, ok := r.rooms[room]
	if !ok {
		return false
	}
	if _, ok := members[endpointID]; !ok {
		return false
	}
	delete(members, endpointID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}

	if rooms, ok := r.memberships[endpointID]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(r.memberships, endpointID)
		}
	}
	return true
}

// Broadcast hands evt to every member of the room except excludeID.
// Delivery never blocks: an endpoint with a full buffer is reported as dropped.
func (r *Registry) Broadcast(room domain.ConversationKey, evt event.Outbound, excludeID string) BroadcastResult {
	var res BroadcastResult
	for id, endpoint := range r.rooms[room] {
		if id == excludeID {
			continue
		}
		if endpoint.Deliver(evt) {
			res.Delivered++
		} else {
			res.Dropped = append(res.Dropped, id)
		}
	}
	return res
}

// OnDisconnect removes the endpoint from every room it belongs to and
// returns those rooms. Calling it again for the same endpoint does nothing.
func (r *Registry) OnDisconnect(endpointID string) []domain.ConversationKey {
	rooms := r.RoomsOf(endpointID)
	for _, room := range rooms {
		r.Leave(endpointID, room)
	}
	return rooms
}

// RoomsOf returns the rooms of an endpoint, sorted.
func (r *Registry) RoomsOf(endpointID string) []domain.ConversationKey {
	rooms := lo.Keys(r.memberships[endpointID])
	slices.Sort(rooms)
	return rooms
}

// Members returns the endpoint ids of a room, sorted.
func (r *Registry) Members(room domain.ConversationKey) []string {
	ids := lo.Keys(r.rooms[room])
	slices.Sort(ids)
	return ids
}

// Rooms returns every non-empty room, sorted.
func (r *Registry) Rooms() []domain.ConversationKey {
	rooms := lo.Keys(r.rooms)
	slices.Sort(rooms)
	return rooms
}
