package web

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// publicCache 缓存匿名可见的列表与详情，ttl 为 0 时不缓存。
type publicCache struct {
	items *gocache.Cache
	ttl   time.Duration
}

func newPublicCache(ttl time.Duration) *publicCache {
	if ttl <= 0 {
		return &publicCache{}
	}
	return &publicCache{items: gocache.New(ttl, 2*ttl), ttl: ttl}
}

// Flush 在后台管理删除内容后调用。
func (p *publicCache) Flush() {
	if p.items != nil {
		p.items.Flush()
	}
}

// cached 命中时直接返回，否则调用 load 并缓存成功结果。
func cached[T any](p *publicCache, key string, load func() (T, error)) (T, error) {
	if p.items != nil {
		if v, ok := p.items.Get(key); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if p.items != nil {
		p.items.SetDefault(key, v)
	}
	return v, nil
}
