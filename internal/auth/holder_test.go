package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"devfolio/internal/client"
	"devfolio/internal/model"
	"devfolio/internal/session"
	"devfolio/internal/validation"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Login(ctx context.Context, creds model.LoginCredentials) (*model.AuthResponse, error) {
	args := m.Called(ctx, creds)
	resp, _ := args.Get(0).(*model.AuthResponse)
	return resp, args.Error(1)
}

func (m *mockBackend) Register(ctx context.Context, creds model.RegisterCredentials) (*model.AuthResponse, error) {
	args := m.Called(ctx, creds)
	resp, _ := args.Get(0).(*model.AuthResponse)
	return resp, args.Error(1)
}

func (m *mockBackend) Me(ctx context.Context) (*model.User, error) {
	args := m.Called(ctx)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func newTokens() *session.TokenStore {
	return session.NewTokenStore(session.NewMemoryStorage(time.Hour, time.Minute), "sid", time.Hour)
}

func waitReady(t *testing.T, h *Holder) State {
	t.Helper()
	select {
	case <-h.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("holder never became ready")
	}
	return h.State()
}

func TestLoginRejectsInvalidEmailBeforeNetwork(t *testing.T) {
	backend := &mockBackend{}
	h := NewHolder(backend, newTokens(), nil)

	err := h.Login(context.Background(), model.LoginCredentials{Email: "not-an-email", Password: "secret"})
	require.Error(t, err)
	assert.Contains(t, validation.AsFieldErrors(err), "email")

	err = h.Register(context.Background(), model.RegisterCredentials{Email: "not-an-email", Password: "secret1"})
	require.Error(t, err)
	assert.Contains(t, validation.AsFieldErrors(err), "email")

	backend.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	backend.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestLoginSuccessThenLogout(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{}
	tokens := newTokens()
	creds := model.LoginCredentials{Email: "ada@example.com", Password: "secret"}
	backend.On("Login", mock.Anything, creds).
		Return(&model.AuthResponse{User: model.User{ID: "u1", Email: creds.Email}, Token: "server-token"}, nil)

	h := NewHolder(backend, tokens, nil)
	require.NoError(t, h.Login(ctx, creds))

	st := h.State()
	assert.True(t, st.IsAuthenticated())
	assert.Equal(t, "server-token", st.Token)
	assert.Equal(t, "u1", st.User.ID)
	persisted, _ := tokens.Token(ctx)
	assert.Equal(t, "server-token", persisted)

	require.NoError(t, h.Logout(ctx))
	st = h.State()
	assert.False(t, st.IsAuthenticated())
	assert.Nil(t, st.User)
	assert.Empty(t, st.Token)
	persisted, _ = tokens.Token(ctx)
	assert.Empty(t, persisted)
	backend.AssertExpectations(t)
}

func TestLoginRequestCarriesNoSessionToken(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{}
	tokens := newTokens()
	require.NoError(t, tokens.SetToken(ctx, "existing"))

	backend.On("Login", mock.MatchedBy(func(ctx context.Context) bool {
		store, ok := client.TokenStoreFromContext(ctx)
		if !ok {
			return false
		}
		tok, _ := store.Token(ctx)
		return tok == ""
	}), mock.Anything).Return(nil, errors.New("bad credentials"))

	h := NewHolder(backend, tokens, nil)
	require.Error(t, h.Login(ctx, model.LoginCredentials{Email: "a@b.co", Password: "x"}))
	backend.AssertExpectations(t)
}

func TestLoginFailureWhenSignedOut(t *testing.T) {
	backend := &mockBackend{}
	boom := errors.New("invalid credentials")
	backend.On("Login", mock.Anything, mock.Anything).Return(nil, boom)

	h := NewHolder(backend, newTokens(), nil)
	err := h.Login(context.Background(), model.LoginCredentials{Email: "a@b.co", Password: "x"})
	assert.ErrorIs(t, err, boom)

	st := h.State()
	assert.Equal(t, StatusUnauthenticated, st.Status)
	assert.ErrorIs(t, st.Err, boom)
	assert.False(t, st.IsLoading())
}

func TestLoginFailureKeepsExistingSession(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{}
	tokens := newTokens()
	first := model.LoginCredentials{Email: "a@b.co", Password: "x"}
	second := model.LoginCredentials{Email: "c@d.co", Password: "y"}
	backend.On("Login", mock.Anything, first).
		Return(&model.AuthResponse{User: model.User{ID: "u1"}, Token: "t1"}, nil)
	backend.On("Login", mock.Anything, second).Return(nil, errors.New("nope"))

	h := NewHolder(backend, tokens, nil)
	require.NoError(t, h.Login(ctx, first))
	require.Error(t, h.Login(ctx, second))

	st := h.State()
	assert.True(t, st.IsAuthenticated())
	assert.Equal(t, "t1", st.Token)
	persisted, _ := tokens.Token(ctx)
	assert.Equal(t, "t1", persisted)
}

func TestRegisterSuccess(t *testing.T) {
	backend := &mockBackend{}
	creds := model.RegisterCredentials{Email: "new@example.com", Username: "newbie", Password: "secret1"}
	backend.On("Register", mock.Anything, creds).
		Return(&model.AuthResponse{User: model.User{ID: "u9", Email: creds.Email}, Token: "reg-token"}, nil)

	h := NewHolder(backend, newTokens(), nil)
	require.NoError(t, h.Register(context.Background(), creds))
	assert.True(t, h.State().IsAuthenticated())
}

func TestStartWithoutTokenIsUnauthenticated(t *testing.T) {
	backend := &mockBackend{}
	h := NewHolder(backend, newTokens(), nil)
	assert.True(t, h.State().IsLoading())

	h.Start(context.Background())
	st := waitReady(t, h)
	assert.Equal(t, StatusUnauthenticated, st.Status)
	assert.NoError(t, st.Err)
	backend.AssertNotCalled(t, "Me", mock.Anything)
}

func TestStartValidatesPersistedToken(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{}
	tokens := newTokens()
	require.NoError(t, tokens.SetToken(ctx, "persisted"))
	backend.On("Me", mock.Anything).Return(&model.User{ID: "u1", Role: model.RoleAdmin}, nil)

	h := NewHolder(backend, tokens, nil)
	h.Start(ctx)
	st := waitReady(t, h)

	assert.True(t, st.IsAuthenticated())
	assert.Equal(t, "persisted", st.Token)
	assert.True(t, st.User.IsAdmin())
}

func TestStartClearsRejectedToken(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{}
	tokens := newTokens()
	require.NoError(t, tokens.SetToken(ctx, "expired"))
	rejected := errors.New("backend responded 401")
	backend.On("Me", mock.Anything).Return(nil, rejected)

	h := NewHolder(backend, tokens, nil)
	h.Start(ctx)
	st := waitReady(t, h)

	assert.Equal(t, StatusUnauthenticated, st.Status)
	assert.ErrorIs(t, st.Err, rejected)
	persisted, _ := tokens.Token(ctx)
	assert.Empty(t, persisted)
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{}
	backend.On("Login", mock.Anything, mock.Anything).
		Return(&model.AuthResponse{User: model.User{ID: "u1"}, Token: "t"}, nil)

	h := NewHolder(backend, newTokens(), nil)
	require.NoError(t, h.Login(ctx, model.LoginCredentials{Email: "a@b.co", Password: "x"}))

	h.Invalidate(client.ErrUnauthorized)
	st := h.State()
	assert.False(t, st.IsAuthenticated())
	assert.ErrorIs(t, st.Err, client.ErrUnauthorized)
}

func TestRegistryReusesHolders(t *testing.T) {
	backend := &mockBackend{}
	created := 0
	reg := NewRegistry(func(sid string) *Holder {
		created++
		return NewHolder(backend, newTokens(), nil)
	}, time.Minute)

	a := reg.Get(context.Background(), "s1")
	b := reg.Get(context.Background(), "s1")
	c := reg.Get(context.Background(), "s2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, created)
	assert.Equal(t, 2, reg.Len())

	waitReady(t, a)
	reg.Drop("s1")
	_, ok := reg.Lookup("s1")
	assert.False(t, ok)
}
