package cache

import (
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestKey(t *testing.T) {
	rc := NewFromClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))
	defer rc.Close()

	if got := rc.Key("upcoming", "4351"); got != "matchday:upcoming:4351" {
		t.Errorf("got %q", got)
	}
	if got := rc.Key("single"); got != "matchday:single" {
		t.Errorf("got %q", got)
	}
}
