package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roleguard/roleguard/pkg/cache"
)

func TestNormalizeQuery_WordOrderInvariant(t *testing.T) {
	a := cache.NormalizeQuery("意味 スラング とは")
	b := cache.NormalizeQuery("とは 意味 スラング")
	assert.Equal(t, a, b)
}

func TestNormalizeQuery_WidthAndCase(t *testing.T) {
	a := cache.NormalizeQuery("Slang Meaning")
	b := cache.NormalizeQuery("ｓｌａｎｇ　ｍｅａｎｉｎｇ")
	assert.Equal(t, a, b)
}

func TestQueryKey_CollidesForEquivalentQueries(t *testing.T) {
	assert.Equal(t, cache.QueryKey("foo bar"), cache.QueryKey("BAR  FOO"))
	assert.NotEqual(t, cache.QueryKey("foo bar"), cache.QueryKey("foo baz"))
}
