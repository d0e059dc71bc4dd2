package assignment

import (
	"context"
	"net/http"

	"git.home.luguber.info/inful/assignctl/internal/forge"
	"git.home.luguber.info/inful/assignctl/internal/metrics"
)

// Remote is the transport the engine drives. *forge.Client implements it.
type Remote interface {
	Get(ctx context.Context, target string, opts ...forge.RequestOption) (*forge.Response, error)
	Post(ctx context.Context, target string, body any, opts ...forge.RequestOption) (*forge.Response, error)
	Put(ctx context.Context, target string, body any, opts ...forge.RequestOption) (*forge.Response, error)
	Delete(ctx context.Context, target string, opts ...forge.RequestOption) (*forge.Response, error)
}

// Collection is an identity-keyed remote collection that remembers the order
// in which keys were first seen.
type Collection[T any] struct {
	keys  []string
	items map[string]T
	pages int
}

func newCollection[T any]() *Collection[T] {
	return &Collection[T]{items: make(map[string]T)}
}

// put stores v under key; a repeated key replaces the value but keeps its position.
func (c *Collection[T]) put(key string, v T) {
	if _, ok := c.items[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.items[key] = v
}

// Keys returns the keys in first-seen order.
func (c *Collection[T]) Keys() []string { return append([]string(nil), c.keys...) }

// Get returns the item stored under key.
func (c *Collection[T]) Get(key string) (T, bool) {
	v, ok := c.items[key]
	return v, ok
}

// Has reports whether key is present.
func (c *Collection[T]) Has(key string) bool {
	_, ok := c.items[key]
	return ok
}

// Values returns the items in key order.
func (c *Collection[T]) Values() []T {
	out := make([]T, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.items[k])
	}
	return out
}

// Len returns the number of distinct keys.
func (c *Collection[T]) Len() int { return len(c.keys) }

// Pages returns how many pages were consumed to build the collection.
func (c *Collection[T]) Pages() int { return c.pages }

// fetchSpec describes one paginated traversal.
type fetchSpec[T any] struct {
	start string
	key   func(T) string
	// keep filters items client-side; nil keeps everything.
	keep func(T) bool
	// notFoundEmpty turns a 404 on the first page into an empty collection.
	notFoundEmpty bool
	opts          []forge.RequestOption
}

// fetchAll follows rel="next" links from q.start until none is left and
// returns the union of every page. Any non-200 page aborts the traversal with
// ErrFetchFailed; a partial collection is never returned.
func fetchAll[T any](ctx context.Context, remote Remote, rec metrics.Recorder, q fetchSpec[T]) (*Collection[T], error) {
	out := newCollection[T]()
	visited := make(map[string]bool)
	target := q.start

	for {
		if err := ctx.Err(); err != nil {
			return nil, ErrFetchFailed.WithCause(err).WithContext("url", target)
		}
		if visited[target] {
			return nil, ErrFetchFailed.WithContext("url", target).WithContext("reason", "pagination cycle")
		}
		visited[target] = true

		resp, err := remote.Get(ctx, target, q.opts...)
		if err != nil {
			return nil, rewrap(ErrFetchFailed, err).WithContext("url", target)
		}
		if resp.StatusCode == http.StatusNotFound && q.notFoundEmpty && out.pages == 0 {
			return out, nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, ErrFetchFailed.
				WithContext("url", resp.URL).
				WithContext("status", resp.StatusCode).
				WithContext("response", resp.Snippet())
		}

		var page []T
		if err := resp.Decode(&page); err != nil {
			return nil, rewrap(ErrFetchFailed, err)
		}
		out.pages++
		rec.IncPages(1)

		for _, item := range page {
			if q.keep != nil && !q.keep(item) {
				continue
			}
			out.put(q.key(item), item)
		}

		next, ok := resp.NextPage()
		if !ok {
			return out, nil
		}
		target = next
	}
}
