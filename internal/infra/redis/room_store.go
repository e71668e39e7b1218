package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quizmon-client/internal/simulator"
)

// RoomStore backs simulator.RoomStore with Redis liveness keys. The rooms
// themselves live in this process, since match ticks and fan-out are local
// anyway; what Redis adds is a shared view of which match codes are taken,
// so two simulator hosts on one LAN don't hand out the same code. Keys carry
// a TTL as a backstop against hosts that die without cleaning up.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	rooms  map[string]*simulator.Room
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{
		client: client,
		ttl:    ttl,
		rooms:  make(map[string]*simulator.Room),
	}
}

func (s *RoomStore) GetOrCreate(matchID string) *simulator.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[matchID]; ok {
		return room
	}
	room := simulator.NewRoom(matchID)
	s.rooms[matchID] = room
	// Claiming the code is best-effort; a Redis hiccup should not stop a
	// local match from starting.
	_ = s.client.Set(context.Background(), s.key(matchID), "1", s.ttl).Err()
	return room
}

func (s *RoomStore) Get(matchID string) (*simulator.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[matchID]
	return room, ok
}

func (s *RoomStore) DeleteIfEmpty(matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[matchID]
	if !ok || !room.IsEmpty() {
		return
	}
	delete(s.rooms, matchID)
	_ = s.client.Del(context.Background(), s.key(matchID)).Err()
}

func (s *RoomStore) key(matchID string) string {
	return "quizmon:match:" + matchID
}
