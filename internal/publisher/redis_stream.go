package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// ResolutionStream carries every resolved fixture.
	ResolutionStream = "fixtures.resolved"
	// LogoStream carries every resolved crest.
	LogoStream = "logos.resolved"

	streamMaxLen = 10000
)

// RedisStreamPublisher publishes events to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		now:    time.Now,
	}
}

// PublishResolution appends a resolved fixture to the resolution stream.
func (p *RedisStreamPublisher) PublishResolution(ctx context.Context, event interface{}) error {
	return p.publish(ctx, ResolutionStream, event)
}

// PublishLogo appends a resolved crest to the logo stream.
func (p *RedisStreamPublisher) PublishLogo(ctx context.Context, event interface{}) error {
	return p.publish(ctx, LogoStream, event)
}

func (p *RedisStreamPublisher) publish(ctx context.Context, stream string, event interface{}) error {
	args, err := p.streamArgs(stream, event)
	if err != nil {
		return err
	}
	return p.client.XAdd(ctx, args).Err()
}

func (p *RedisStreamPublisher) streamArgs(stream string, event interface{}) (*redis.XAddArgs, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": p.now().Unix(),
		},
	}, nil
}
