package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/catalog-console/internal/domain/identity"
	"github.com/erp/catalog-console/internal/domain/shared"
	"github.com/erp/catalog-console/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorage is a mock implementation of identity.SessionStorage
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockStorage) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockStorage) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockStorage) Close() error {
	return m.Called().Error(0)
}

func ada() *identity.User {
	return identity.NewUser(map[string]any{"id": "1", "name": "Ada", "email": "ada@example.com"})
}

func TestStore_LoginLogout(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	store := NewStore(mem)

	require.NoError(t, store.Login(ctx, ada(), "tok-1"))

	assert.True(t, store.IsAuthenticated(ctx))
	assert.Equal(t, "tok-1", store.Credential(ctx))
	assert.Equal(t, "Ada", store.User().Name())
	blob, ok, _ := mem.Get(ctx, identity.UserKey)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":"1","name":"Ada","email":"ada@example.com"}`, blob)

	require.NoError(t, store.Logout(ctx))
	assert.False(t, store.IsAuthenticated(ctx))
	assert.Nil(t, store.User())
	_, ok, _ = mem.Get(ctx, identity.CredentialKey)
	assert.False(t, ok)

	require.NoError(t, store.Logout(ctx), "logout is idempotent")
}

func TestStore_LoginRejectsIncompleteData(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryStorage())

	tests := []struct {
		name string
		user *identity.User
		cred string
	}{
		{"nil user", nil, "tok"},
		{"empty user", identity.NewUser(nil), "tok"},
		{"empty credential", ada(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Login(ctx, tt.user, tt.cred)

			assert.True(t, errors.Is(err, shared.ErrValidation))
			assert.Equal(t, MsgInvalidLoginData, store.LastError())
			assert.False(t, store.IsAuthenticated(ctx))
		})
	}

	require.NoError(t, store.Login(ctx, ada(), "tok"))
	assert.Empty(t, store.LastError(), "successful login clears the last error")
}

func TestStore_IsAuthenticatedChecksStorage(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	store := NewStore(mem)
	require.NoError(t, store.Login(ctx, ada(), "tok"))

	require.NoError(t, mem.Delete(ctx, identity.CredentialKey))

	assert.False(t, store.IsAuthenticated(ctx))
}

func TestStore_StorageReadFailureIsUnauthenticated(t *testing.T) {
	ctx := context.Background()
	ms := new(MockStorage)
	ms.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ms.On("Get", mock.Anything, identity.CredentialKey).Return("", false, errors.New("connection refused"))
	store := NewStore(ms)
	require.NoError(t, store.Login(ctx, ada(), "tok"))

	assert.False(t, store.IsAuthenticated(ctx))
	assert.Empty(t, store.Credential(ctx))
}

func TestStore_LoginStorageFailureKeepsStateUnchanged(t *testing.T) {
	ctx := context.Background()
	ms := new(MockStorage)
	ms.On("Set", mock.Anything, identity.CredentialKey, "tok").Return(errors.New("disk full"))
	store := NewStore(ms)

	err := store.Login(ctx, ada(), "tok")

	require.Error(t, err)
	assert.Nil(t, store.User())
	ms.AssertNotCalled(t, "Set", mock.Anything, identity.UserKey, mock.Anything)
}

func TestStore_LogoutClearsMemoryOnStorageFailure(t *testing.T) {
	ctx := context.Background()
	ms := new(MockStorage)
	ms.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ms.On("Delete", mock.Anything, []string{identity.UserKey, identity.CredentialKey}).Return(errors.New("timeout"))
	store := NewStore(ms)
	require.NoError(t, store.Login(ctx, ada(), "tok"))

	err := store.Logout(ctx)

	require.Error(t, err)
	assert.Nil(t, store.User())
}

func TestStore_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("empty storage", func(t *testing.T) {
		store := NewStore(storage.NewMemoryStorage())
		assert.False(t, store.Loaded())

		require.NoError(t, store.Restore(ctx))

		assert.True(t, store.Loaded())
		assert.False(t, store.IsAuthenticated(ctx))
	})

	t.Run("valid session", func(t *testing.T) {
		mem := storage.NewMemoryStorage()
		require.NoError(t, mem.Set(ctx, identity.UserKey, `{"id":7,"username":"ada"}`))
		require.NoError(t, mem.Set(ctx, identity.CredentialKey, "tok"))
		store := NewStore(mem)

		require.NoError(t, store.Restore(ctx))

		assert.True(t, store.IsAuthenticated(ctx))
		assert.Equal(t, "7", store.User().ID())
	})

	t.Run("corrupted user blob", func(t *testing.T) {
		mem := storage.NewMemoryStorage()
		require.NoError(t, mem.Set(ctx, identity.UserKey, `{not json`))
		require.NoError(t, mem.Set(ctx, identity.CredentialKey, "tok"))
		store := NewStore(mem)

		var err error
		require.NotPanics(t, func() { err = store.Restore(ctx) })

		assert.True(t, errors.Is(err, shared.ErrValidation))
		assert.Equal(t, MsgInvalidUserData, store.LastError())
		assert.True(t, store.Loaded())
		assert.False(t, store.IsAuthenticated(ctx))
		_, hasUser, _ := mem.Get(ctx, identity.UserKey)
		_, hasToken, _ := mem.Get(ctx, identity.CredentialKey)
		assert.False(t, hasUser)
		assert.False(t, hasToken)
	})

	t.Run("user without credential", func(t *testing.T) {
		mem := storage.NewMemoryStorage()
		require.NoError(t, mem.Set(ctx, identity.UserKey, `{"name":"Ada"}`))
		store := NewStore(mem)

		require.NoError(t, store.Restore(ctx))

		assert.False(t, store.IsAuthenticated(ctx))
		_, hasUser, _ := mem.Get(ctx, identity.UserKey)
		assert.False(t, hasUser)
	})

	t.Run("storage failure still marks loaded", func(t *testing.T) {
		ms := new(MockStorage)
		ms.On("Get", mock.Anything, identity.UserKey).Return("", false, errors.New("unreachable"))
		store := NewStore(ms)

		err := store.Restore(ctx)

		require.Error(t, err)
		assert.True(t, store.Loaded())
	})
}

// gatedStorage holds the first Get until release is closed
type gatedStorage struct {
	*storage.MemoryStorage
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (g *gatedStorage) Get(ctx context.Context, key string) (string, bool, error) {
	g.once.Do(func() {
		close(g.started)
		<-g.release
	})
	return g.MemoryStorage.Get(ctx, key)
}

func TestStore_LoginDuringRestoreIsKept(t *testing.T) {
	ctx := context.Background()
	gs := &gatedStorage{
		MemoryStorage: storage.NewMemoryStorage(),
		started:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	store := NewStore(gs)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, store.Restore(ctx))
	}()
	<-gs.started
	go func() {
		defer wg.Done()
		assert.NoError(t, store.Login(ctx, ada(), "tok"))
	}()
	time.Sleep(20 * time.Millisecond)
	close(gs.release)
	wg.Wait()

	assert.True(t, store.Loaded())
	assert.True(t, store.IsAuthenticated(ctx))
	require.NotNil(t, store.User())
	assert.Equal(t, "Ada", store.User().Name())
}

func TestStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryStorage())
	var events []Event
	store.Subscribe(func(e Event) { events = append(events, e) })

	require.NoError(t, store.Restore(ctx))
	require.NoError(t, store.Login(ctx, ada(), "tok"))
	require.NoError(t, store.Logout(ctx))

	assert.Equal(t, []Event{
		{Type: EventRestored, Authenticated: false},
		{Type: EventLogin, Authenticated: true},
		{Type: EventLogout, Authenticated: false},
	}, events)
}

func TestStore_UserIsACopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryStorage())
	require.NoError(t, store.Login(ctx, ada(), "tok"))

	a := store.User()
	b := store.User()

	assert.NotSame(t, a, b)
	assert.Equal(t, a.Name(), b.Name())
}
