package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokedexlabs/pokedex/internal/db"
)

// memTokenStore keeps the session token in memory.
type memTokenStore struct {
	mu    sync.Mutex
	token string
}

func (m *memTokenStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memTokenStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", ErrNoCredential
	}
	return m.token, nil
}

func (m *memTokenStore) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

func newTestProvider(t *testing.T) (*LocalProvider, *memTokenStore) {
	t.Helper()
	conn, err := db.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	tokens := &memTokenStore{}
	p, err := NewLocalProvider(conn, tokens)
	require.NoError(t, err)
	return p, tokens
}

func TestLocalProvider_SignUpAndSignIn(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	u, err := p.SignUp(ctx, RegisterData{
		Email:       "Ash@Example.com",
		Password:    "pikachu1",
		DisplayName: "Ash",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, u.UID)
	assert.Equal(t, "ash@example.com", u.Email, "email is normalized")
	assert.Equal(t, "Ash", u.DisplayName)

	require.NoError(t, p.SignOut(ctx))

	signedIn, err := p.SignIn(ctx, "ash@example.com", "pikachu1")
	require.NoError(t, err)
	assert.Equal(t, u.UID, signedIn.UID)
	assert.Equal(t, "Ash", signedIn.DisplayName, "display name set post-creation survives")
}

func TestLocalProvider_SignUpValidation(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, RegisterData{Email: "not-an-email", Password: "longenough"})
	assert.Equal(t, CodeInvalidEmail, CodeOf(err))

	_, err = p.SignUp(ctx, RegisterData{Email: "ok@example.com", Password: "short"})
	assert.Equal(t, CodeWeakPassword, CodeOf(err))
}

func TestLocalProvider_DuplicateEmail(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, RegisterData{Email: "ash@example.com", Password: "pikachu1"})
	require.NoError(t, err)

	_, err = p.SignUp(ctx, RegisterData{Email: "ash@example.com", Password: "raichu22"})
	assert.Equal(t, CodeEmailInUse, CodeOf(err))
}

func TestLocalProvider_SignInErrors(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	_, err := p.SignIn(ctx, "ghost@example.com", "whatever")
	assert.Equal(t, CodeUserNotFound, CodeOf(err))

	_, err = p.SignUp(ctx, RegisterData{Email: "ash@example.com", Password: "pikachu1"})
	require.NoError(t, err)

	_, err = p.SignIn(ctx, "ash@example.com", "wrongpass")
	assert.Equal(t, CodeWrongPassword, CodeOf(err))
}

func TestLocalProvider_SessionPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	conn, err := db.Open(dir)
	require.NoError(t, err)
	defer conn.Close()

	tokens := &memTokenStore{}
	ctx := context.Background()

	p1, err := NewLocalProvider(conn, tokens)
	require.NoError(t, err)
	created, err := p1.SignUp(ctx, RegisterData{Email: "ash@example.com", Password: "pikachu1"})
	require.NoError(t, err)

	// A fresh provider over the same database and token store resolves
	// the persisted session.
	p2, err := NewLocalProvider(conn, tokens)
	require.NoError(t, err)
	current, err := p2.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, created.UID, current.UID)
}

func TestLocalProvider_SignOutIsIdempotent(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.SignOut(ctx))
	require.NoError(t, p.SignOut(ctx))
}

func TestLocalProvider_SubscribeReplaysAndNotifies(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	var events []*User
	unsub := p.Subscribe(func(u *User) { events = append(events, u) })
	defer unsub()

	require.Len(t, events, 1, "current state is replayed at subscription")
	assert.Nil(t, events[0])

	_, err := p.SignUp(ctx, RegisterData{Email: "ash@example.com", Password: "pikachu1"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.NotNil(t, events[1])

	require.NoError(t, p.SignOut(ctx))
	require.Len(t, events, 3)
	assert.Nil(t, events[2])
}
