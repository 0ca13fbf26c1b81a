package worker

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultQueue_RoundTrip_RedisIntegration(t *testing.T) {
	if os.Getenv("EXSTEM_INTEGRATION") != "1" {
		t.Skip("set EXSTEM_INTEGRATION=1 to run integration tests")
	}
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/15"
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	ctx := context.Background()
	q := NewResultQueue(rdb)
	q.key = "test:" + q.key
	t.Cleanup(func() { rdb.Del(ctx, q.key) })

	in := newResult()
	answer := 2
	in.Answers = []*int{&answer, nil}
	require.NoError(t, q.Save(ctx, in))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	out, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.ID, out.ID)
	require.Len(t, out.Answers, 2)
	assert.Equal(t, 2, *out.Answers[0])
	assert.Nil(t, out.Answers[1])

	out, err = q.TryPop(ctx)
	require.NoError(t, err)
	assert.Nil(t, out)

	require.NoError(t, rdb.RPush(ctx, q.key, "{not json").Err())
	_, err = q.TryPop(ctx)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}
