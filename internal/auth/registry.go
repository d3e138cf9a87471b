package auth

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// HolderFactory 为指定会话 ID 构造一个新的 Holder。
type HolderFactory func(sid string) *Holder

// Registry 为每个浏览器会话维护一个 Holder，闲置超过 TTL 后回收。
type Registry struct {
	mu      sync.Mutex
	holders *gocache.Cache
	factory HolderFactory
	ttl     time.Duration
}

// NewRegistry creates a registry that evicts holders idle for ttl.
func NewRegistry(factory HolderFactory, ttl time.Duration) *Registry {
	holders := gocache.New(ttl, ttl)
	holders.OnEvicted(func(_ string, v any) {
		if h, ok := v.(*Holder); ok {
			h.Close()
		}
	})
	return &Registry{holders: holders, factory: factory, ttl: ttl}
}

// Get 返回会话对应的 Holder，不存在时创建并开始初始化。
func (r *Registry) Get(ctx context.Context, sid string) *Holder {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.holders.Get(sid); ok {
		h := v.(*Holder)
		r.holders.SetDefault(sid, h)
		return h
	}

	h := r.factory(sid)
	r.holders.SetDefault(sid, h)
	h.Start(ctx)
	return h
}

// Lookup returns the holder for sid without creating one.
func (r *Registry) Lookup(sid string) (*Holder, bool) {
	v, ok := r.holders.Get(sid)
	if !ok {
		return nil, false
	}
	return v.(*Holder), true
}

// Invalidate 将会话迁移到未登录状态（401 拦截）。
func (r *Registry) Invalidate(sid string, err error) {
	if h, ok := r.Lookup(sid); ok {
		h.Invalidate(err)
	}
}

// Drop 销毁会话的 Holder。
func (r *Registry) Drop(sid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.holders.Delete(sid)
}

// Len reports how many sessions are tracked.
func (r *Registry) Len() int {
	return r.holders.ItemCount()
}
