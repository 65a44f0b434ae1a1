package roster

import (
	"context"
	"sync"
)

// MemoryStore keeps the roster in process memory. Used when no redis is
// configured and in tests.
type MemoryStore struct {
	mu   sync.RWMutex
	bots map[string]Bot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bots: make(map[string]Bot)}
}

func (s *MemoryStore) Save(_ context.Context, bot Bot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bots[bot.Name] = bot
	return nil
}

func (s *MemoryStore) Get(_ context.Context, name string) (Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bot, found := s.bots[name]
	if !found {
		return Bot{}, ErrBotNotFound
	}
	return bot, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bots := make([]Bot, 0, len(s.bots))
	for _, bot := range s.bots {
		bots = append(bots, bot)
	}
	return bots, nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bots, name)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
