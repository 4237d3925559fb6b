package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/store"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "services.db"), Schemas()...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

type recordingListener struct {
	mu      sync.Mutex
	changed []string
}

func (l *recordingListener) ContentChanged(_ context.Context, collection string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.changed = append(l.changed, collection)
}

func (l *recordingListener) collections() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.changed...)
}

type fakeNotifier struct {
	mu       sync.Mutex
	received []models.Contact
	err      error
}

func (n *fakeNotifier) ContactReceived(_ context.Context, c models.Contact) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.received = append(n.received, c)
	return n.err
}

func (n *fakeNotifier) contacts() []models.Contact {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Contact(nil), n.received...)
}

func ptr[T any](v T) *T {
	return &v
}

// requireKind asserts that err is a ServiceError of the given kind and
// returns it.
func requireKind(t *testing.T, err error, kind ErrorKind) ServiceError {
	t.Helper()
	require.Error(t, err)
	svcErr := Translate(err, "")
	require.Equal(t, kind, svcErr.Kind, svcErr.Message)
	return svcErr
}
