package series

// Collection is a name-keyed set of candidate series that remembers the
// order names were first added in. That order decides ties when assigning
// header names.
type Collection struct {
	names  []string
	byName map[string]*Series
}

// NewCollection returns a collection holding the given series in order.
func NewCollection(items ...*Series) *Collection {
	c := &Collection{byName: make(map[string]*Series, len(items))}
	for _, s := range items {
		c.Add(s)
	}
	return c
}

// Add inserts s under s.Name. Re-adding a name replaces the series but keeps
// its original position.
func (c *Collection) Add(s *Series) {
	if c.byName == nil {
		c.byName = make(map[string]*Series)
	}
	if _, ok := c.byName[s.Name]; !ok {
		c.names = append(c.names, s.Name)
	}
	c.byName[s.Name] = s
}

// Get returns the series stored under name.
func (c *Collection) Get(name string) (*Series, bool) {
	s, ok := c.byName[name]
	return s, ok
}

// Names returns the names in insertion order.
func (c *Collection) Names() []string {
	return append([]string(nil), c.names...)
}

// Len returns the number of series.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Series returns the series in insertion order.
func (c *Collection) Series() []*Series {
	out := make([]*Series, len(c.names))
	for i, n := range c.names {
		out[i] = c.byName[n]
	}
	return out
}
