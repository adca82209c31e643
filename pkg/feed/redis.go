package feed

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisSource reads the snapshot stored as JSON under the path key and re-reads it every time
// a message arrives on the "<path>:changed" channel
type RedisSource struct {
	Client *redis.Client
}

func ChangedChannel(path string) string {
	return path + ":changed"
}

func (r *RedisSource) Watch(ctx context.Context, path string, emit func(Snapshot)) error {
	pubsub := r.Client.Subscribe(ctx, ChangedChannel(path))
	defer pubsub.Close()

	// Wait for the subscription to be confirmed so no change between it and the first read is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	if err := r.emitCurrent(ctx, path, emit); err != nil {
		return err
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-messages:
			if !ok {
				return errors.New("redis feed channel closed")
			}

			if err := r.emitCurrent(ctx, path, emit); err != nil {
				return err
			}
		}
	}
}

func (r *RedisSource) emitCurrent(ctx context.Context, path string, emit func(Snapshot)) error {
	data, err := r.Client.Get(ctx, path).Bytes()
	if errors.Is(err, redis.Nil) {
		data, err = nil, nil
	}
	if err != nil {
		return err
	}

	return emitDecoded(path, data, emit)
}

// Publish stores a full snapshot under path and notifies watchers
func Publish(ctx context.Context, client redis.Cmdable, path string, data []byte) error {
	if _, err := DecodeSnapshot(path, data, timeNow()); err != nil {
		return err
	}

	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, path, data, 0)
		pipe.Publish(ctx, ChangedChannel(path), "1")
		return nil
	})

	return err
}
