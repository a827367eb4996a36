package app

// releaser collects teardown steps for a constructor that can fail partway.
// release runs them last-added first, so later resources go before the ones
// they were built on.
type releaser struct {
	steps []func()
}

func (r *releaser) add(fn func()) {
	r.steps = append(r.steps, fn)
}

func (r *releaser) release() {
	for i := len(r.steps) - 1; i >= 0; i-- {
		r.steps[i]()
	}
	r.steps = nil
}

// keep drops the collected steps once construction has succeeded.
func (r *releaser) keep() {
	r.steps = nil
}
