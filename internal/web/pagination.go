package web

import (
	"net/url"
	"strconv"
)

const maxVisiblePages = 5

// PageNumbers 计算分页条要显示的页码，0 表示省略号。
// 首页与末页始终可见，中间最多展示当前页附近的几页。
func PageNumbers(current, total int) []int {
	if total <= 0 {
		return nil
	}
	if total <= maxVisiblePages {
		pages := make([]int, 0, total)
		for i := 1; i <= total; i++ {
			pages = append(pages, i)
		}
		return pages
	}

	pages := []int{1}
	start := max(2, current-1)
	end := min(total-1, current+1)
	if current <= 3 {
		end = min(total-1, maxVisiblePages)
	}
	if current >= total-2 {
		start = max(2, total-4)
	}

	if start > 2 {
		pages = append(pages, 0)
	}
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	if end < total-1 {
		pages = append(pages, 0)
	}
	return append(pages, total)
}

// PageLink 分页条中的一项。
type PageLink struct {
	Number   int
	URL      string
	Current  bool
	Ellipsis bool
}

// Pager 分页组件的视图数据。
type Pager struct {
	Current int
	Total   int
	PrevURL string
	NextURL string
	Links   []PageLink
}

// NewPager 基于当前查询串生成分页链接，保留 search 等其他参数。
// 只有一页时返回 nil，模板据此不渲染分页条。
func NewPager(path string, query url.Values, current, total int) *Pager {
	if total <= 1 {
		return nil
	}
	current = min(max(current, 1), total)
	link := func(page int) string {
		q := url.Values{}
		for k, v := range query {
			q[k] = append([]string(nil), v...)
		}
		if page == 1 {
			q.Del("page")
		} else {
			q.Set("page", strconv.Itoa(page))
		}
		if enc := q.Encode(); enc != "" {
			return path + "?" + enc
		}
		return path
	}

	p := &Pager{Current: current, Total: total}
	if current > 1 {
		p.PrevURL = link(current - 1)
	}
	if current < total {
		p.NextURL = link(current + 1)
	}
	for _, n := range PageNumbers(current, total) {
		if n == 0 {
			p.Links = append(p.Links, PageLink{Ellipsis: true})
			continue
		}
		p.Links = append(p.Links, PageLink{Number: n, URL: link(n), Current: n == current})
	}
	return p
}

// parsePage 读取 ?page=，非法值按第一页处理。
func parsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
