package api

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestDeduper(t *testing.T, ttl time.Duration) (*RedisDeduper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisDeduper(client, ttl), mr
}

func TestRedisDeduperAdd(t *testing.T) {
	deduper, _ := newTestDeduper(t, time.Hour)
	ctx := context.Background()

	added, err := deduper.Add(ctx, "alice", "k1")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !added {
		t.Fatal("first add must report the key as new")
	}

	added, err = deduper.Add(ctx, "alice", "k1")
	if err != nil {
		t.Fatalf("repeat add: %v", err)
	}
	if added {
		t.Fatal("repeat add must report the key as seen")
	}
}

func TestRedisDeduperScopesKeysPerUser(t *testing.T) {
	deduper, _ := newTestDeduper(t, time.Hour)
	ctx := context.Background()

	if added, _ := deduper.Add(ctx, "alice", "k1"); !added {
		t.Fatal("alice's key must be new")
	}
	if added, _ := deduper.Add(ctx, "bob", "k1"); !added {
		t.Fatal("the same key from another user must be independent")
	}
}

func TestRedisDeduperRemove(t *testing.T) {
	deduper, _ := newTestDeduper(t, time.Hour)
	ctx := context.Background()

	if added, _ := deduper.Add(ctx, "alice", "k1"); !added {
		t.Fatal("setup add failed")
	}
	if err := deduper.Remove(ctx, "alice", "k1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if added, _ := deduper.Add(ctx, "alice", "k1"); !added {
		t.Fatal("key must be addable again after remove")
	}
}

func TestRedisDeduperKeysExpire(t *testing.T) {
	deduper, mr := newTestDeduper(t, time.Minute)
	ctx := context.Background()

	if added, _ := deduper.Add(ctx, "alice", "k1"); !added {
		t.Fatal("setup add failed")
	}
	mr.FastForward(2 * time.Minute)
	if added, _ := deduper.Add(ctx, "alice", "k1"); !added {
		t.Fatal("key must expire after the TTL")
	}
}
