package memory

import (
	"sync"

	"quizmon-client/internal/simulator"
)

// RoomStore keeps simulator rooms in a plain map. It is the default store
// when the simulator runs standalone, with no Redis to coordinate against.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*simulator.Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]*simulator.Room)}
}

func (s *RoomStore) GetOrCreate(matchID string) *simulator.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[matchID]
	if !ok {
		room = simulator.NewRoom(matchID)
		s.rooms[matchID] = room
	}
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
	if room, ok := s.rooms[matchID]; ok && room.IsEmpty() {
		delete(s.rooms, matchID)
	}
}
