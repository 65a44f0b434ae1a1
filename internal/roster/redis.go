package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rosterKey = "hive:roster"

// RedisStore persists the roster in a redis hash, one JSON-encoded entry
// per bot name.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Save(ctx context.Context, bot Bot) error {
	raw, err := json.Marshal(bot)
	if err != nil {
		return fmt.Errorf("encoding roster entry %s: %w", bot.Name, err)
	}
	if err := s.client.HSet(ctx, rosterKey, bot.Name, raw).Err(); err != nil {
		return fmt.Errorf("saving roster entry %s: %w", bot.Name, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, name string) (Bot, error) {
	raw, err := s.client.HGet(ctx, rosterKey, name).Result()
	if err == redis.Nil {
		return Bot{}, ErrBotNotFound
	}
	if err != nil {
		return Bot{}, fmt.Errorf("loading roster entry %s: %w", name, err)
	}
	var bot Bot
	if err := json.Unmarshal([]byte(raw), &bot); err != nil {
		return Bot{}, fmt.Errorf("decoding roster entry %s: %w", name, err)
	}
	return bot, nil
}

func (s *RedisStore) List(ctx context.Context) ([]Bot, error) {
	entries, err := s.client.HGetAll(ctx, rosterKey).Result()
	if err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}
	bots := make([]Bot, 0, len(entries))
	for name, raw := range entries {
		var bot Bot
		if err := json.Unmarshal([]byte(raw), &bot); err != nil {
			return nil, fmt.Errorf("decoding roster entry %s: %w", name, err)
		}
		bots = append(bots, bot)
	}
	return bots, nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if err := s.client.HDel(ctx, rosterKey, name).Err(); err != nil {
		return fmt.Errorf("deleting roster entry %s: %w", name, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
