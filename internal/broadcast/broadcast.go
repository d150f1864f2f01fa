// Package broadcast fans encoded events out to the connections bound to a
// room. The dispatcher only knows member sinks, never the underlying
// transport; binding and unbinding follow room membership.
package broadcast

import "sync"

// Sink receives encoded frames for one member connection. Deliver must not
// block on the peer; implementations typically enqueue to a writer goroutine.
type Sink interface {
	Deliver(frame []byte)
}

// Dispatcher routes room events to bound member sinks. Delivery within a
// room is seat-ordered (seat 0 before seat 1) and publish calls for the same
// room are serialized, so members observe events in publish order.
type Dispatcher struct {
	mu    sync.RWMutex
	rooms map[string]*roomMembers
}

type roomMembers struct {
	mu    sync.Mutex
	seats [2]Sink
}

// New creates an empty dispatcher.
func New() *Dispatcher {
	return &Dispatcher{rooms: make(map[string]*roomMembers)}
}

// Bind associates a seat's connection with a room. The dispatcher lock is
// held for the whole call so a concurrent Unbind can never drop the room
// entry between lookup and seat write.
func (d *Dispatcher) Bind(roomID string, seat int, sink Sink) {
	if seat < 0 || seat > 1 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	members, ok := d.rooms[roomID]
	if !ok {
		members = &roomMembers{}
		d.rooms[roomID] = members
	}
	members.mu.Lock()
	members.seats[seat] = sink
	members.mu.Unlock()
}

// Unbind removes a seat's association with a room, dropping the room's
// entry once no seats remain bound.
func (d *Dispatcher) Unbind(roomID string, seat int) {
	if seat < 0 || seat > 1 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	members, ok := d.rooms[roomID]
	if !ok {
		return
	}
	members.mu.Lock()
	members.seats[seat] = nil
	empty := members.seats[0] == nil && members.seats[1] == nil
	members.mu.Unlock()
	if empty {
		delete(d.rooms, roomID)
	}
}

// Publish delivers a frame to every member of the room, seat 0 first. An
// event is never delivered outside the room.
func (d *Dispatcher) Publish(roomID string, frame []byte) {
	d.mu.RLock()
	members, ok := d.rooms[roomID]
	d.mu.RUnlock()
	if !ok {
		return
	}

	members.mu.Lock()
	defer members.mu.Unlock()
	for _, sink := range members.seats {
		if sink != nil {
			sink.Deliver(frame)
		}
	}
}

// PublishExcept delivers a frame to every member except the given seat.
// Used to notify the remaining player when an opponent disconnects.
func (d *Dispatcher) PublishExcept(roomID string, exceptSeat int, frame []byte) {
	d.mu.RLock()
	members, ok := d.rooms[roomID]
	d.mu.RUnlock()
	if !ok {
		return
	}

	members.mu.Lock()
	defer members.mu.Unlock()
	for seat, sink := range members.seats {
		if seat != exceptSeat && sink != nil {
			sink.Deliver(frame)
		}
	}
}
