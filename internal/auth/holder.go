package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"devfolio/internal/client"
	"devfolio/internal/model"
	"devfolio/internal/validation"
)

var errIncompleteSession = errors.New("auth: backend returned no user or token")

// Backend 是 Holder 依赖的后端认证接口，*client.Client 实现了它。
type Backend interface {
	Login(ctx context.Context, creds model.LoginCredentials) (*model.AuthResponse, error)
	Register(ctx context.Context, creds model.RegisterCredentials) (*model.AuthResponse, error)
	Me(ctx context.Context) (*model.User, error)
}

// Holder 持有一个浏览器会话的认证状态。
type Holder struct {
	backend Backend
	tokens  client.TokenStore
	logger  *slog.Logger

	// opMu 串行化 login/register/logout/initialize。
	opMu sync.Mutex

	mu    sync.RWMutex
	state State

	startOnce sync.Once
	readyOnce sync.Once
	ready     chan struct{}
	cancel    context.CancelFunc
}

// NewHolder 创建处于 loading 状态的 Holder，需要调用 Start 完成初始化。
func NewHolder(backend Backend, tokens client.TokenStore, logger *slog.Logger) *Holder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Holder{
		backend: backend,
		tokens:  tokens,
		logger:  logger,
		state:   State{Status: StatusLoading},
		ready:   make(chan struct{}),
		cancel:  func() {},
	}
}

// Start 异步校验已持久化的令牌。重复调用无效。
func (h *Holder) Start(ctx context.Context) {
	h.startOnce.Do(func() {
		initCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		h.mu.Lock()
		h.cancel = cancel
		h.mu.Unlock()
		go h.initialize(initCtx)
	})
}

// Ready is closed once initialization has left the loading state.
func (h *Holder) Ready() <-chan struct{} {
	return h.ready
}

// Wait 等待初始化完成或 ctx 结束，返回当前快照（可能仍为 loading）。
func (h *Holder) Wait(ctx context.Context) State {
	select {
	case <-h.ready:
	case <-ctx.Done():
	}
	return h.State()
}

// State returns a snapshot.
func (h *Holder) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Close 取消尚未完成的初始化。
func (h *Holder) Close() {
	h.mu.RLock()
	cancel := h.cancel
	h.mu.RUnlock()
	cancel()
}

func (h *Holder) dispatch(a Action) State {
	h.mu.Lock()
	h.state = Reduce(h.state, a)
	next := h.state
	h.mu.Unlock()
	return next
}

func (h *Holder) restore(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

func (h *Holder) markReady() {
	h.readyOnce.Do(func() { close(h.ready) })
}

func (h *Holder) initialize(ctx context.Context) {
	h.opMu.Lock()
	defer h.opMu.Unlock()
	defer h.markReady()

	// login 可能先于初始化完成，此时不再覆盖。
	if !h.State().IsLoading() {
		return
	}

	token, err := h.tokens.Token(ctx)
	if err != nil {
		h.logger.Error("load persisted token failed", slog.Any("error", err))
		h.dispatch(Action{Type: ActionAuthError, Err: err})
		return
	}
	if token == "" {
		h.dispatch(Action{Type: ActionLogout})
		return
	}

	user, err := h.backend.Me(client.WithTokenStore(ctx, h.tokens))
	if err != nil {
		if ctx.Err() != nil {
			h.dispatch(Action{Type: ActionAuthError, Err: ctx.Err()})
			return
		}
		h.logger.Info("persisted token rejected", slog.Any("error", err))
		if clearErr := h.tokens.ClearToken(ctx); clearErr != nil {
			h.logger.Error("clear token failed", slog.Any("error", clearErr))
		}
		h.dispatch(Action{Type: ActionAuthError, Err: err})
		return
	}

	h.dispatch(Action{Type: ActionLoginSuccess, User: user, Token: token})
}

// Login 校验邮箱格式后调用后端登录，成功后持久化令牌。
// 失败时若此前已登录则恢复原会话，错误始终返回给调用方。
func (h *Holder) Login(ctx context.Context, creds model.LoginCredentials) error {
	if err := validation.Check(creds); err != nil {
		return err
	}
	return h.authenticate(ctx, "login", func(ctx context.Context) (*model.AuthResponse, error) {
		return h.backend.Login(ctx, creds)
	})
}

// Register has the same contract as Login against the registration endpoint.
func (h *Holder) Register(ctx context.Context, creds model.RegisterCredentials) error {
	if err := validation.Check(creds); err != nil {
		return err
	}
	return h.authenticate(ctx, "register", func(ctx context.Context) (*model.AuthResponse, error) {
		return h.backend.Register(ctx, creds)
	})
}

func (h *Holder) authenticate(ctx context.Context, op string, call func(context.Context) (*model.AuthResponse, error)) error {
	h.opMu.Lock()
	defer h.opMu.Unlock()
	defer h.markReady()

	prev := h.State()
	h.dispatch(Action{Type: ActionSetLoading})

	fail := func(err error) error {
		if prev.IsAuthenticated() {
			h.restore(prev)
		} else {
			h.dispatch(Action{Type: ActionLoginFailure, Err: err})
		}
		return err
	}

	// 登录请求不携带当前会话令牌，失败的 401 不会清除已有会话。
	resp, err := call(client.WithTokenStore(ctx, client.NoToken{}))
	if err != nil {
		return fail(err)
	}
	if resp.Token == "" {
		return fail(errIncompleteSession)
	}
	if err := h.tokens.SetToken(ctx, resp.Token); err != nil {
		return fail(fmt.Errorf("persist token: %w", err))
	}

	next := h.dispatch(Action{Type: ActionLoginSuccess, User: &resp.User, Token: resp.Token})
	h.logger.Info(op+" succeeded", slog.String("user_id", next.User.ID))
	return nil
}

// Logout 清除持久化令牌并进入未登录状态，不访问后端。
func (h *Holder) Logout(ctx context.Context) error {
	h.opMu.Lock()
	defer h.opMu.Unlock()
	defer h.markReady()

	err := h.tokens.ClearToken(ctx)
	if err != nil {
		h.logger.Error("clear token on logout failed", slog.Any("error", err))
	}
	h.dispatch(Action{Type: ActionLogout})
	return err
}

// Invalidate 处理全局 401：令牌已被客户端清除，这里只迁移状态。
func (h *Holder) Invalidate(err error) {
	h.dispatch(Action{Type: ActionAuthError, Err: err})
	h.markReady()
}
