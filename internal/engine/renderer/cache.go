package renderer

// resource is one GPU object built from a CPU-side source at some version.
type resource[V any] struct {
	value   V
	version uint64
	used    bool
}

// cache keeps GPU objects keyed by their CPU-side source pointer. An object is
// rebuilt when the source version changes and released by sweep once no frame
// has used it.
type cache[K comparable, V any] struct {
	items   map[K]*resource[V]
	release func(V)
}

func newCache[K comparable, V any](release func(V)) *cache[K, V] {
	return &cache[K, V]{items: make(map[K]*resource[V]), release: release}
}

// get returns the object for key at version, calling build when it is missing
// or stale. A build error leaves any previous object in place.
func (c *cache[K, V]) get(key K, version uint64, build func() (V, error)) (V, error) {
	r, ok := c.items[key]
	if ok && r.version == version {
		r.used = true
		return r.value, nil
	}

	v, err := build()
	if err != nil {
		var zero V
		if ok {
			r.used = true
			return r.value, err
		}
		return zero, err
	}

	if ok {
		c.release(r.value)
	}
	c.items[key] = &resource[V]{value: v, version: version, used: true}
	return v, nil
}

// sweep releases objects not used since the previous sweep and reports how many
// were released.
func (c *cache[K, V]) sweep() int {
	n := 0
	for k, r := range c.items {
		if !r.used {
			c.release(r.value)
			delete(c.items, k)
			n++
			continue
		}
		r.used = false
	}
	return n
}

// clear releases everything.
func (c *cache[K, V]) clear() {
	for k, r := range c.items {
		c.release(r.value)
		delete(c.items, k)
	}
}

func (c *cache[K, V]) len() int {
	return len(c.items)
}
