package extract

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheMatchesDirectExtraction(t *testing.T) {
	c := NewCache(0)
	py := rule(t, ".py")
	content := []byte("import os\nfrom .local import x\n")

	for _, strict := range []bool{false, true} {
		want := Extract(content, py, strict)
		assert.True(t, want.Equal(c.Extract(content, py, strict)))
		assert.True(t, want.Equal(c.Extract(content, py, strict)))
	}

	hits, misses := c.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(2), misses)
	assert.Equal(t, 2, c.Len())
}

func TestCacheGroupedIgnoresStrict(t *testing.T) {
	c := NewCache(0)
	goRule := rule(t, ".go")
	content := []byte("package x\nimport \"fmt\"\n")

	c.Extract(content, goRule, false)
	c.Extract(content, goRule, true)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCacheReturnsIndependentSets(t *testing.T) {
	c := NewCache(0)
	py := rule(t, ".py")
	content := []byte("import os\n")

	first := c.Extract(content, py, false)
	first.Add("mutated")

	second := c.Extract(content, py, false)
	assert.False(t, second.Has("mutated"))
}

func TestCacheBounded(t *testing.T) {
	c := NewCache(2)
	py := rule(t, ".py")

	c.Extract([]byte("import a\n"), py, false)
	c.Extract([]byte("import b\n"), py, false)
	c.Extract([]byte("import c\n"), py, false)

	assert.LessOrEqual(t, c.Len(), 2)
}

func TestNilCache(t *testing.T) {
	var c *Cache
	got := c.Extract([]byte("import os\n"), rule(t, ".py"), false)
	assert.True(t, got.Has("os"))
}

func TestCacheConcurrentUse(t *testing.T) {
	c := NewCache(0)
	py := rule(t, ".py")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got := c.Extract([]byte("import os\nimport sys\n"), py, false)
				assert.Equal(t, 2, got.Len())
			}
		}()
	}
	wg.Wait()
}
