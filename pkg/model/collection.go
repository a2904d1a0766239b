package model

// Collection is an ordered set of models with add and remove signals.
// A model destroyed while in the collection is removed from it.
type Collection struct {
	models   []*Model
	unsub    map[*Model]func()
	onAdd    listeners[func(*Model)]
	onRemove listeners[func(*Model)]
}

// NewCollection creates a collection holding models.
func NewCollection(models ...*Model) *Collection {
	c := &Collection{unsub: make(map[*Model]func())}
	for _, m := range models {
		c.Add(m)
	}
	return c
}

// Models returns the models in insertion order.
func (c *Collection) Models() []*Model {
	return append([]*Model(nil), c.models...)
}

// Len returns the number of models.
func (c *Collection) Len() int {
	return len(c.models)
}

// Add appends m and notifies add listeners. Adding a model twice, or a
// destroyed model, is a no-op.
func (c *Collection) Add(m *Model) {
	if m == nil || m.Destroyed() {
		return
	}
	if _, ok := c.unsub[m]; ok {
		return
	}
	c.models = append(c.models, m)
	c.unsub[m] = m.OnDestroy(func() { c.Remove(m) })
	c.onAdd.each(func(fn func(*Model)) { fn(m) })
}

// Remove drops m and notifies remove listeners.
func (c *Collection) Remove(m *Model) {
	unsub, ok := c.unsub[m]
	if !ok {
		return
	}
	unsub()
	delete(c.unsub, m)
	for i, cur := range c.models {
		if cur == m {
			c.models = append(c.models[:i:i], c.models[i+1:]...)
			break
		}
	}
	c.onRemove.each(func(fn func(*Model)) { fn(m) })
}

// OnAdd registers fn to run after a model is added.
func (c *Collection) OnAdd(fn func(*Model)) func() {
	return c.onAdd.add(fn)
}

// OnRemove registers fn to run after a model is removed.
func (c *Collection) OnRemove(fn func(*Model)) func() {
	return c.onRemove.add(fn)
}
