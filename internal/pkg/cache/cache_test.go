package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type payload struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func newTestService(t *testing.T, prefix string) (*Service, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, Options{Prefix: prefix, Timeout: time.Second}, zaptest.NewLogger(t)), mr
}

func TestSetGet_RoundTrip(t *testing.T) {
	svc, _ := newTestService(t, "test")
	ctx := context.Background()

	in := payload{Name: "monday", Items: []string{"oats", "salad"}}
	svc.Set(ctx, "plan:1", in, time.Minute)

	var out payload
	require.True(t, svc.Get(ctx, "plan:1", &out))
	assert.Equal(t, in, out)
}

func TestGet_ExpiredEntryIsMiss(t *testing.T) {
	svc, mr := newTestService(t, "test")
	ctx := context.Background()

	svc.Set(ctx, "k", "v", 10*time.Second)
	assert.True(t, svc.Exists(ctx, "k"))

	mr.FastForward(11 * time.Second)

	var out string
	assert.False(t, svc.Get(ctx, "k", &out))
	assert.False(t, svc.Exists(ctx, "k"))
}

func TestSet_OverwritesAndDefaultsTTL(t *testing.T) {
	svc, mr := newTestService(t, "test")
	ctx := context.Background()

	svc.Set(ctx, "k", "first", time.Minute)
	svc.Set(ctx, "k", "second", 0)

	var out string
	require.True(t, svc.Get(ctx, "k", &out))
	assert.Equal(t, "second", out)
	assert.Equal(t, TTLMedium, mr.TTL("test:k"))
}

func TestGet_CorruptEntryIsMissAndDropped(t *testing.T) {
	svc, mr := newTestService(t, "test")
	ctx := context.Background()

	require.NoError(t, mr.Set("test:bad", "{not json"))

	var out payload
	assert.False(t, svc.Get(ctx, "bad", &out))
	assert.False(t, mr.Exists("test:bad"))
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t, "test")
	ctx := context.Background()

	svc.Set(ctx, "k", 1, time.Minute)
	svc.Delete(ctx, "k")
	svc.Delete(ctx, "missing")

	assert.False(t, svc.Exists(ctx, "k"))
}

func TestClear_OnlyRemovesNamespace(t *testing.T) {
	svc, mr := newTestService(t, "test")
	ctx := context.Background()

	svc.Set(ctx, "a", 1, time.Minute)
	svc.Set(ctx, "b", 2, time.Minute)
	require.NoError(t, mr.Set("other:c", "3"))

	assert.Equal(t, int64(2), svc.Clear(ctx))
	assert.False(t, svc.Exists(ctx, "a"))
	assert.False(t, svc.Exists(ctx, "b"))
	assert.True(t, mr.Exists("other:c"))
}

func TestStats_CountsWholeBackend(t *testing.T) {
	svc, mr := newTestService(t, "test")
	ctx := context.Background()

	svc.Set(ctx, "a", 1, time.Minute)
	require.NoError(t, mr.Set("other:c", "3"))

	stats := svc.Stats(ctx)
	assert.Equal(t, int64(2), stats.Keys)
	assert.NotEmpty(t, stats.Memory)
}

func TestBackendDown_DegradesToMiss(t *testing.T) {
	svc, mr := newTestService(t, "test")
	ctx := context.Background()

	svc.Set(ctx, "k", "v", time.Minute)
	mr.Close()

	var out string
	assert.False(t, svc.Get(ctx, "k", &out))
	assert.False(t, svc.Exists(ctx, "k"))
	assert.Equal(t, int64(0), svc.Clear(ctx))
	assert.Equal(t, Stats{Memory: "0B"}, svc.Stats(ctx))
	assert.Error(t, svc.Ping(ctx))

	// Must not panic.
	svc.Set(ctx, "k", "v", time.Minute)
	svc.Delete(ctx, "k")
}

func TestDisabledService(t *testing.T) {
	svc := New(nil, Options{}, nil)
	ctx := context.Background()

	svc.Set(ctx, "k", "v", time.Minute)
	var out string
	assert.False(t, svc.Get(ctx, "k", &out))
	assert.False(t, svc.Exists(ctx, "k"))
	assert.Equal(t, int64(0), svc.Clear(ctx))
	assert.Error(t, svc.Ping(ctx))
}

func TestKey(t *testing.T) {
	tests := []struct {
		name  string
		left  string
		right string
		equal bool
	}{
		{
			name:  "identical inputs",
			left:  Key("mealplan", "vegan", 2000, "nuts", true, 3),
			right: Key("mealplan", "vegan", 2000, "nuts", true, 3),
			equal: true,
		},
		{
			name:  "order matters",
			left:  Key("mealplan", "a", "b"),
			right: Key("mealplan", "b", "a"),
		},
		{
			name:  "delimiter cannot be forged",
			left:  Key("mealplan", "a:b", "c"),
			right: Key("mealplan", "a", "b:c"),
		},
		{
			name:  "kind separates namespaces",
			left:  Key("mealplan", "x"),
			right: Key("entitlement", "x"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.equal {
				assert.Equal(t, tt.left, tt.right)
			} else {
				assert.NotEqual(t, tt.left, tt.right)
			}
		})
	}

	assert.Equal(t, "mealplan:vegan:2000:true", Key("mealplan", "vegan", 2000, true))
}
