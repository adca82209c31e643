package session

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Stored is the persisted form of a session, the user record is kept serialised
type Stored struct {
	AccessToken  string
	RefreshToken string
	User         string
}

func (s Stored) IsComplete() bool {
	return s.AccessToken != "" && s.RefreshToken != "" && s.User != ""
}

type Persister interface {
	Load(ctx context.Context) (Stored, error)
	Save(ctx context.Context, stored Stored) error
	Clear(ctx context.Context) error
}

type RedisStore struct {
	Client redis.Cmdable
	Prefix string
}

func (r *RedisStore) keys() []string {
	return []string{
		r.Prefix + ":accessToken",
		r.Prefix + ":refreshToken",
		r.Prefix + ":user",
	}
}

func (r *RedisStore) Load(ctx context.Context) (Stored, error) {
	values, err := r.Client.MGet(ctx, r.keys()...).Result()
	if err != nil {
		return Stored{}, err
	}

	fields := make([]string, len(values))
	for i, value := range values {
		if str, ok := value.(string); ok {
			fields[i] = str
		}
	}

	return Stored{
		AccessToken:  fields[0],
		RefreshToken: fields[1],
		User:         fields[2],
	}, nil
}

func (r *RedisStore) Save(ctx context.Context, stored Stored) error {
	keys := r.keys()

	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, keys[0], stored.AccessToken, 0)
		pipe.Set(ctx, keys[1], stored.RefreshToken, 0)
		pipe.Set(ctx, keys[2], stored.User, 0)
		return nil
	})

	return err
}

func (r *RedisStore) Clear(ctx context.Context) error {
	err := r.Client.Del(ctx, r.keys()...).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}

	return err
}

type MemoryStore struct {
	mutex  sync.Mutex
	stored Stored
}

func (m *MemoryStore) Load(ctx context.Context) (Stored, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.stored, nil
}

func (m *MemoryStore) Save(ctx context.Context, stored Stored) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.stored = stored
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.stored = Stored{}
	return nil
}
