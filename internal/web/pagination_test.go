package web

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageNumbers(t *testing.T) {
	tests := []struct {
		name           string
		current, total int
		want           []int
	}{
		{name: "none", current: 1, total: 0, want: nil},
		{name: "fits", current: 2, total: 4, want: []int{1, 2, 3, 4}},
		{name: "exactly five", current: 5, total: 5, want: []int{1, 2, 3, 4, 5}},
		{name: "near start", current: 2, total: 10, want: []int{1, 2, 3, 4, 5, 0, 10}},
		{name: "middle", current: 5, total: 10, want: []int{1, 0, 4, 5, 6, 0, 10}},
		{name: "near end", current: 9, total: 10, want: []int{1, 0, 6, 7, 8, 9, 10}},
		{name: "six pages start", current: 1, total: 6, want: []int{1, 2, 3, 4, 5, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PageNumbers(tt.current, tt.total))
		})
	}
}

func TestPageNumbersAlwaysShowsFirstAndLast(t *testing.T) {
	for total := 6; total <= 30; total++ {
		for current := 1; current <= total; current++ {
			pages := PageNumbers(current, total)
			require.NotEmpty(t, pages)
			assert.Equal(t, 1, pages[0])
			assert.Equal(t, total, pages[len(pages)-1])
			assert.Contains(t, pages, current)
		}
	}
}

func TestNewPagerKeepsSearch(t *testing.T) {
	q := url.Values{"search": {"go"}, "page": {"2"}}
	p := NewPager("/blog", q, 2, 3)
	require.NotNil(t, p)

	assert.Equal(t, "/blog?search=go", p.PrevURL)
	assert.Equal(t, "/blog?page=3&search=go", p.NextURL)
	require.Len(t, p.Links, 3)
	assert.True(t, p.Links[1].Current)
	assert.Equal(t, []string{"2"}, q["page"], "input query must not be mutated")
}

func TestNewPagerSinglePage(t *testing.T) {
	assert.Nil(t, NewPager("/blog", nil, 1, 1))
}

func TestParsePage(t *testing.T) {
	assert.Equal(t, 1, parsePage(""))
	assert.Equal(t, 1, parsePage("-3"))
	assert.Equal(t, 1, parsePage("abc"))
	assert.Equal(t, 4, parsePage("4"))
}
