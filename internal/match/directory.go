package match

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// roomDirectory maps clients to their room and rooms to their participants.
type roomDirectory struct {
	byClient map[ClientID]string
	rooms    map[string]*room
}

func newRoomDirectory() roomDirectory {
	return roomDirectory{
		byClient: make(map[ClientID]string),
		rooms:    make(map[string]*room),
	}
}

// create pairs a and b in a new room and records the mapping in both
// directions. Callers must have already evicted both clients from the
// waiting queue within the same locked step.
func (d *roomDirectory) create(a, b ClientID, now time.Time) (*room, error) {
	id, err := newRoomID()
	if err != nil {
		return nil, err
	}
	r := &room{id: id, a: a, b: b, createdAt: now}
	d.rooms[id] = r
	d.byClient[a] = id
	d.byClient[b] = id
	return r, nil
}

// roomOf returns the room the client belongs to, if any.
func (d *roomDirectory) roomOf(id ClientID) (*room, bool) {
	roomID, ok := d.byClient[id]
	if !ok {
		return nil, false
	}
	r, ok := d.rooms[roomID]
	return r, ok
}

// peerOf returns the other participant in the client's room.
func (d *roomDirectory) peerOf(id ClientID) (ClientID, bool) {
	r, ok := d.roomOf(id)
	if !ok {
		return "", false
	}
	return r.other(id)
}

// destroy removes the client's room and both participant mappings.
// Destroying an already-absent room is a no-op.
func (d *roomDirectory) destroy(id ClientID) (*room, bool) {
	r, ok := d.roomOf(id)
	if !ok {
		return nil, false
	}
	delete(d.byClient, r.a)
	delete(d.byClient, r.b)
	delete(d.rooms, r.id)
	return r, true
}

func (d *roomDirectory) len() int { return len(d.rooms) }

func newRoomID() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}
