package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/dispatch"
	"notification-dispatcher/internal/models"
	"notification-dispatcher/internal/store"
	"notification-dispatcher/internal/transport"
)

type fakeTransport struct {
	mu       sync.Mutex
	sendFunc func(ctx context.Context, msg transport.Message) (transport.Result, error)
	sent     []transport.Message
}

func (f *fakeTransport) Name() string { return "fake" }

func (f *fakeTransport) Send(ctx context.Context, msg transport.Message) (transport.Result, error) {
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()
	return f.sendFunc(ctx, msg)
}

func testLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func seedBacklog(st *store.MemoryStore) {
	st.AddTemplate(models.NotificationTemplate{ID: 1, Subject: "Welcome", Body: "Hi {UserName}"})
	for i, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		userID := int64(i + 1)
		st.AddUser(models.User{ID: userID, Email: email, FirstName: "User", LastName: "Test"})
		st.AddUserNotification(models.UserNotification{UserID: userID, NotificationID: 1, Sent: false})
	}
}

func TestLoop_RunCycle_DispatchesBacklog(t *testing.T) {
	st := store.NewMemoryStore()
	seedBacklog(st)

	tr := &fakeTransport{
		sendFunc: func(_ context.Context, _ transport.Message) (transport.Result, error) {
			return transport.Result{Accepted: true, MessageID: "msg"}, nil
		},
	}
	d := dispatch.New(st, tr, dispatch.Config{FromEmail: "noreply@example.com"}, testLogger(t))
	loop := NewLoop(st, d, time.Minute, testLogger(t), nil)

	processed, err := loop.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, processed)

	unsent, err := st.ListUnsent(context.Background())
	require.NoError(t, err)
	assert.Empty(t, unsent)
}

func TestLoop_RunCycle_FaultIsolation(t *testing.T) {
	st := store.NewMemoryStore()
	seedBacklog(st)

	// One recipient's send fails; the others must still go out.
	tr := &fakeTransport{
		sendFunc: func(_ context.Context, msg transport.Message) (transport.Result, error) {
			if msg.To == "b@x.com" {
				return transport.Result{}, errors.New("mailbox unavailable")
			}
			return transport.Result{Accepted: true, MessageID: "msg"}, nil
		},
	}
	d := dispatch.New(st, tr, dispatch.Config{FromEmail: "noreply@example.com"}, testLogger(t))
	loop := NewLoop(st, d, time.Minute, testLogger(t), nil)

	processed, err := loop.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, processed)

	unsent, err := st.ListUnsent(context.Background())
	require.NoError(t, err)
	require.Len(t, unsent, 1)
	assert.Equal(t, int64(2), unsent[0].UserID)
}

type failingListStore struct {
	*store.MemoryStore
}

func (f *failingListStore) ListUnsent(_ context.Context) ([]models.UserNotification, error) {
	return nil, errors.New("connection refused")
}

func TestLoop_RunCycle_ListFailureAbortsCycle(t *testing.T) {
	st := &failingListStore{MemoryStore: store.NewMemoryStore()}
	tr := &fakeTransport{
		sendFunc: func(_ context.Context, _ transport.Message) (transport.Result, error) {
			return transport.Result{Accepted: true}, nil
		},
	}
	d := dispatch.New(st, tr, dispatch.Config{FromEmail: "noreply@example.com"}, testLogger(t))
	loop := NewLoop(st, d, time.Minute, testLogger(t), nil)

	processed, err := loop.RunCycle(context.Background())
	require.Error(t, err)
	assert.Zero(t, processed)
	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Empty(t, tr.sent)
}

func TestLoop_RunCycle_EmptyBacklog(t *testing.T) {
	st := store.NewMemoryStore()
	tr := &fakeTransport{
		sendFunc: func(_ context.Context, _ transport.Message) (transport.Result, error) {
			return transport.Result{Accepted: true}, nil
		},
	}
	d := dispatch.New(st, tr, dispatch.Config{FromEmail: "noreply@example.com"}, testLogger(t))
	loop := NewLoop(st, d, time.Minute, testLogger(t), nil)

	processed, err := loop.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)
}

func TestLoop_Run_StopsOnContextCancel(t *testing.T) {
	st := store.NewMemoryStore()
	tr := &fakeTransport{
		sendFunc: func(_ context.Context, _ transport.Message) (transport.Result, error) {
			return transport.Result{Accepted: true}, nil
		},
	}
	d := dispatch.New(st, tr, dispatch.Config{FromEmail: "noreply@example.com"}, testLogger(t))
	loop := NewLoop(st, d, 10*time.Millisecond, testLogger(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after context cancel")
	}
}
