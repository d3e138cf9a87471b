package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// CookieName 浏览器只保存不透明的会话 ID。
	CookieName = "devfolio_sid"
	keyPrefix  = "devfolio:session:"
	// TokenKey is the fixed storage key the session token lives under.
	TokenKey = "token"
)

// NewID 生成 256 位随机会话 ID。
func NewID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ValidID rejects cookie values that NewID could not have produced.
func ValidID(id string) bool {
	if len(id) != 43 {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(id)
	return err == nil
}

// Key 返回会话命名空间下的存储键。
func Key(sid, name string) string {
	return keyPrefix + sid + ":" + name
}

// TokenStore 把 (Storage, 会话 ID) 适配为 client.TokenStore。
type TokenStore struct {
	storage    Storage
	sid        string
	defaultTTL time.Duration
	now        func() time.Time
}

// NewTokenStore binds a storage to one browser session.
func NewTokenStore(storage Storage, sid string, defaultTTL time.Duration) *TokenStore {
	return &TokenStore{storage: storage, sid: sid, defaultTTL: defaultTTL, now: time.Now}
}

// SessionID returns the bound session id.
func (s *TokenStore) SessionID() string {
	return s.sid
}

func (s *TokenStore) Token(ctx context.Context) (string, error) {
	token, err := s.storage.Get(ctx, Key(s.sid, TokenKey))
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return token, err
}

// SetToken 保存令牌，有效期跟随 JWT exp，无法解析时使用默认 TTL。
func (s *TokenStore) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.ClearToken(ctx)
	}
	ttl := tokenTTL(token, s.defaultTTL, s.now())
	if ttl <= 0 {
		return s.ClearToken(ctx)
	}
	return s.storage.Set(ctx, Key(s.sid, TokenKey), token, ttl)
}

func (s *TokenStore) ClearToken(ctx context.Context) error {
	return s.storage.Delete(ctx, Key(s.sid, TokenKey))
}

// tokenTTL 读取未验签的 exp。签名由后端校验，这里只用于决定存储过期时间。
func tokenTTL(token string, fallback time.Duration, now time.Time) time.Duration {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return fallback
	}
	if claims.ExpiresAt == nil {
		return fallback
	}
	ttl := claims.ExpiresAt.Sub(now)
	if fallback > 0 && ttl > fallback {
		return fallback
	}
	return ttl
}

// ErrBusy 同一会话内的同名操作仍在进行。
var ErrBusy = errors.New("session: operation already in progress")

// Acquire 在会话命名空间下占用 name，ttl 到期后自动释放。
// 已被占用时返回 ErrBusy；release 可重复调用。
func Acquire(ctx context.Context, storage Storage, sid, name string, ttl time.Duration) (release func(), err error) {
	key := Key(sid, "inflight:"+name)
	ok, err := storage.SetNX(ctx, key, "1", ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBusy
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			_ = storage.Delete(context.WithoutCancel(ctx), key)
		})
	}, nil
}
