package preview

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/documents"
	"mintslip-workers/internal/render"
)

// ==========================
// Debouncer
// ==========================

func TestDebouncer_CoalescesBurst(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var calls int32

	for i := 0; i < 10; i++ {
		d.Trigger("fs-1", func() { atomic.AddInt32(&calls, 1) })
		time.Sleep(2 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncer_KeysAreIndependent(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	var mu sync.Mutex
	seen := map[string]int{}

	for _, key := range []string{"a", "b", "a", "b", "c"} {
		key := key
		d.Trigger(key, func() {
			mu.Lock()
			seen[key]++
			mu.Unlock()
		})
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, seen)
	mu.Unlock()
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls int32

	d.Trigger("fs-1", func() { atomic.AddInt32(&calls, 1) })
	d.Cancel("fs-1")
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncer_CancelPrefix(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls int32
	for _, key := range []string{"fs-1/a", "fs-1/b", "fs-2/a"} {
		d.Trigger(key, func() { atomic.AddInt32(&calls, 1) })
	}
	d.CancelPrefix("fs-1/")

	assert.Equal(t, 1, d.Pending())
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls int32
	d.Trigger("a", func() { atomic.AddInt32(&calls, 1) })
	d.Trigger("b", func() { atomic.AddInt32(&calls, 1) })
	require.Equal(t, 2, d.Pending())

	d.Stop()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

// ==========================
// Service
// ==========================

func createTestService(t *testing.T, debounce time.Duration) (*Service, *documents.FormSessionStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := documents.NewFormSessionStore(client, time.Hour)
	renderer, err := render.NewRenderer()
	require.NoError(t, err)

	svc := NewService(store, renderer, debounce, "", 0.5, logger.NewTestLogger(t))
	t.Cleanup(svc.Close)
	return svc, store
}

func TestService_Render(t *testing.T) {
	svc, store := createTestService(t, 10*time.Millisecond)
	ctx := context.Background()

	fs, err := store.Create(ctx, "user-1", "paystub", "")
	require.NoError(t, err)
	_, err = store.Update(ctx, fs.ID, "user-1", map[string]string{"companyName": "Acme Corp"})
	require.NoError(t, err)

	res, err := svc.Render(ctx, fs.ID, "user-1", 0)
	require.NoError(t, err)
	assert.Equal(t, fs.ID, res.SessionID)
	assert.Equal(t, documents.TemplateA, res.TemplateID)
	assert.Contains(t, res.HTML, "Acme Corp")
	assert.Contains(t, res.HTML, "<span>PREVIEW</span>")
	assert.Contains(t, res.HTML, "scale(0.5)")
}

func TestService_RenderOtherUsersSession(t *testing.T) {
	svc, store := createTestService(t, 10*time.Millisecond)
	fs, err := store.Create(context.Background(), "user-1", "w2", "")
	require.NoError(t, err)

	_, err = svc.Render(context.Background(), fs.ID, "user-2", 0)
	require.Error(t, err)
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeFormSessionNotFound, stdErr.Code)
}

func TestService_ScheduleRendersLatestStateOnce(t *testing.T) {
	svc, store := createTestService(t, 30*time.Millisecond)
	ctx := context.Background()
	fs, err := store.Create(ctx, "user-1", "resume", "")
	require.NoError(t, err)

	results := make(chan *Result, 10)
	for _, name := range []string{"S", "Sa", "Sam", "Sam L", "Sam Lee"} {
		_, err := store.Update(ctx, fs.ID, "user-1", map[string]string{"fullName": name})
		require.NoError(t, err)
		svc.Schedule(fs.ID, "conn-1", "user-1", 0, func(res *Result, err error) {
			assert.NoError(t, err)
			results <- res
		})
	}

	select {
	case res := <-results:
		assert.Contains(t, res.HTML, "Sam Lee")
	case <-time.After(time.Second):
		t.Fatal("preview was not delivered")
	}

	time.Sleep(80 * time.Millisecond)
	assert.Len(t, results, 0)
}

func TestService_ScheduleDebouncesPerConnection(t *testing.T) {
	svc, store := createTestService(t, 30*time.Millisecond)
	ctx := context.Background()
	fs, err := store.Create(ctx, "user-1", "resume", "")
	require.NoError(t, err)

	var tabA, tabB int32
	svc.Schedule(fs.ID, "tab-a", "user-1", 0, func(res *Result, err error) {
		assert.NoError(t, err)
		atomic.AddInt32(&tabA, 1)
	})
	svc.Schedule(fs.ID, "tab-b", "user-1", 0, func(res *Result, err error) {
		assert.NoError(t, err)
		atomic.AddInt32(&tabB, 1)
	})

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&tabA) == 1 && atomic.LoadInt32(&tabB) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestService_CancelOnlyDropsOneConnection(t *testing.T) {
	svc, store := createTestService(t, 30*time.Millisecond)
	ctx := context.Background()
	fs, err := store.Create(ctx, "user-1", "w2", "")
	require.NoError(t, err)

	var tabA, tabB int32
	svc.Schedule(fs.ID, "tab-a", "user-1", 0, func(*Result, error) { atomic.AddInt32(&tabA, 1) })
	svc.Schedule(fs.ID, "tab-b", "user-1", 0, func(*Result, error) { atomic.AddInt32(&tabB, 1) })
	svc.Cancel(fs.ID, "tab-a")

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&tabB) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&tabA))
}
