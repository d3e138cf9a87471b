package client

import "context"

// TokenStore 持久化保存会话令牌。实现需要并发安全。
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

type tokenStoreKey struct{}

// WithTokenStore 把当前会话的 TokenStore 绑定到 ctx，客户端按请求解析令牌。
func WithTokenStore(ctx context.Context, store TokenStore) context.Context {
	return context.WithValue(ctx, tokenStoreKey{}, store)
}

// TokenStoreFromContext returns the store bound by WithTokenStore.
func TokenStoreFromContext(ctx context.Context) (TokenStore, bool) {
	store, ok := ctx.Value(tokenStoreKey{}).(TokenStore)
	return store, ok && store != nil
}

// NoToken 是一个空的 TokenStore：不附带令牌，清除也不产生影响。
type NoToken struct{}

func (NoToken) Token(context.Context) (string, error)  { return "", nil }
func (NoToken) SetToken(context.Context, string) error { return nil }
func (NoToken) ClearToken(context.Context) error       { return nil }
