package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// minPasswordLen is the weakest password accepted at registration.
const minPasswordLen = 6

// LocalProvider is an identity provider backed by the embedded
// database: bcrypt password hashes, opaque session tokens, and a
// TokenStore that survives process restarts.
type LocalProvider struct {
	db     *sql.DB
	tokens TokenStore

	mu        sync.Mutex
	current   *User
	loaded    bool
	listeners map[int]func(*User)
	nextID    int
}

var _ Provider = (*LocalProvider)(nil)

const authSchema = `
CREATE TABLE IF NOT EXISTS users (
	uid            TEXT PRIMARY KEY,
	email          TEXT NOT NULL UNIQUE,
	display_name   TEXT NOT NULL DEFAULT '',
	photo_url      TEXT NOT NULL DEFAULT '',
	email_verified INTEGER NOT NULL DEFAULT 0,
	password_hash  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	uid   TEXT NOT NULL REFERENCES users(uid)
);
`

// NewLocalProvider creates the auth tables if needed.
func NewLocalProvider(conn *sql.DB, tokens TokenStore) (*LocalProvider, error) {
	if _, err := conn.Exec(authSchema); err != nil {
		return nil, fmt.Errorf("init auth schema: %w", err)
	}
	return &LocalProvider{
		db:        conn,
		tokens:    tokens,
		listeners: make(map[int]func(*User)),
	}, nil
}

// SignIn authenticates by email and password.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)

	var u User
	var hash string
	err := p.db.QueryRowContext(ctx, `
		SELECT uid, email, display_name, photo_url, email_verified, password_hash
		FROM users WHERE email = ?`, email).
		Scan(&u.UID, &u.Email, &u.DisplayName, &u.PhotoURL, &u.EmailVerified, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewCodedError(CodeUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, NewCodedError(CodeWrongPassword)
	}

	if err := p.openSession(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SignUp creates an account, then sets the display name, then signs in.
func (p *LocalProvider) SignUp(ctx context.Context, data RegisterData) (*User, error) {
	email := normalizeEmail(data.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, NewCodedError(CodeInvalidEmail)
	}
	if len(data.Password) < minPasswordLen {
		return nil, NewCodedError(CodeWeakPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(data.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	uid := uuid.NewString()
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO users (uid, email, password_hash) VALUES (?, ?, ?)`,
		uid, email, string(hash))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, NewCodedError(CodeEmailInUse)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Display name is applied after creation, mirroring providers that
	// split account creation and profile update.
	if data.DisplayName != "" {
		if _, err := p.db.ExecContext(ctx,
			`UPDATE users SET display_name = ? WHERE uid = ?`, data.DisplayName, uid); err != nil {
			return nil, fmt.Errorf("set display name: %w", err)
		}
	}

	u := &User{UID: uid, Email: email, DisplayName: data.DisplayName}
	if err := p.openSession(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SignOut ends the session. Signing out while signed out succeeds.
func (p *LocalProvider) SignOut(ctx context.Context) error {
	token, err := p.tokens.Load()
	if err == nil && token != "" {
		if _, execErr := p.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); execErr != nil {
			return fmt.Errorf("delete session: %w", execErr)
		}
	}
	if err := p.tokens.Delete(); err != nil {
		return err
	}

	p.setCurrent(nil)
	return nil
}

// Current returns the signed-in user, resolving a persisted session
// token on first use.
func (p *LocalProvider) Current(ctx context.Context) (*User, error) {
	p.mu.Lock()
	if p.loaded {
		u := p.current
		p.mu.Unlock()
		return u, nil
	}
	p.mu.Unlock()

	u, err := p.resolveToken(ctx)
	if err != nil {
		return nil, err
	}
	p.setCurrent(u)
	return u, nil
}

// Subscribe registers a session-change listener; it is invoked
// immediately with the current user.
func (p *LocalProvider) Subscribe(fn func(*User)) func() {
	// Resolve any persisted session before the replay.
	u, err := p.Current(context.Background())
	if err != nil {
		u = nil
	}

	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	fn(u)

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// openSession issues a token, persists it, and emits the change event.
func (p *LocalProvider) openSession(ctx context.Context, u *User) error {
	token := uuid.NewString()
	if _, err := p.db.ExecContext(ctx,
		`INSERT INTO sessions (token, uid) VALUES (?, ?)`, token, u.UID); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if err := p.tokens.Save(token); err != nil {
		return err
	}

	p.setCurrent(u)
	return nil
}

// resolveToken maps the persisted token back to a user. A stale or
// missing token resolves to signed out, not an error.
func (p *LocalProvider) resolveToken(ctx context.Context) (*User, error) {
	token, err := p.tokens.Load()
	if errors.Is(err, ErrNoCredential) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var u User
	err = p.db.QueryRowContext(ctx, `
		SELECT u.uid, u.email, u.display_name, u.photo_url, u.email_verified
		FROM sessions s JOIN users u ON u.uid = s.uid
		WHERE s.token = ?`, token).
		Scan(&u.UID, &u.Email, &u.DisplayName, &u.PhotoURL, &u.EmailVerified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	return &u, nil
}

// setCurrent updates the cached user and notifies listeners.
func (p *LocalProvider) setCurrent(u *User) {
	p.mu.Lock()
	p.current = u
	p.loaded = true
	fns := make([]func(*User), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(u)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
