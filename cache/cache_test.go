package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/tetrizz/config"
)

func TestLoadOnce(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	c := New()
	var calls atomic.Int32
	lf := func(cfg *config.Config, key string) (any, error) {
		calls.Add(1)
		return key + "!", nil
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			obj, err := c.Load(cfg, "weights:test-once", lf)
			is.NoErr(err)
			is.Equal(obj.(string), "weights:test-once!")
		}()
	}
	wg.Wait()
	is.Equal(calls.Load(), int32(1))
	hits, misses := c.Stats()
	is.Equal(hits, 7)
	is.Equal(misses, 1)
}

func TestFailedLoadNotCached(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	fail := true
	lf := func(cfg *config.Config, key string) (any, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return 42, nil
	}
	_, err := Load(cfg, "weights:test-fail", lf)
	is.True(err != nil)
	fail = false
	obj, err := Load(cfg, "weights:test-fail", lf)
	is.NoErr(err)
	is.Equal(obj.(int), 42)
}

func TestForget(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	c := New()
	n := 0
	lf := func(cfg *config.Config, key string) (any, error) {
		n++
		return n, nil
	}
	obj, err := c.Load(cfg, "onnx:model", lf)
	is.NoErr(err)
	is.Equal(obj, 1)
	c.Forget("onnx:model")
	obj, err = c.Load(cfg, "onnx:model", lf)
	is.NoErr(err)
	is.Equal(obj, 2)
}

func TestLoadAs(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	lf := func(cfg *config.Config, key string) (any, error) {
		return []float64{1, 2}, nil
	}
	w, err := LoadAs[[]float64](cfg, "weights:test-as", lf)
	is.NoErr(err)
	is.Equal(w, []float64{1, 2})

	_, err = LoadAs[string](cfg, "weights:test-as", lf)
	is.True(err != nil)
}
