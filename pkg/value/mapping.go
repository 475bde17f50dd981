// ABOUTME: Insertion-ordered string-keyed mapping
// ABOUTME: Backs record fields and keeps source key order for extraction

package value

// Mapping is an insertion-ordered map from field name to Value.
//
// Read methods are safe on a nil *Mapping and behave as on an empty one.
type Mapping struct {
	keys []string
	vals map[string]Value
}

// NewMapping creates an empty mapping with room for capacity fields.
func NewMapping(capacity int) *Mapping {
	return &Mapping{
		keys: make([]string, 0, capacity),
		vals: make(map[string]Value, capacity),
	}
}

// Set stores v under key. An existing key keeps its position.
func (m *Mapping) Set(key string, v Value) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return Null(), false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.vals[key]
	return ok
}

// Delete removes key, preserving the order of the remaining keys.
func (m *Mapping) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Values returns the values in key order.
func (m *Mapping) Values() []Value {
	if m == nil {
		return nil
	}
	out := make([]Value, len(m.keys))
	for i, k := range m.keys {
		out[i] = m.vals[k]
	}
	return out
}

// First returns the first entry in insertion order.
func (m *Mapping) First() (string, Value, bool) {
	if m.Len() == 0 {
		return "", Null(), false
	}
	k := m.keys[0]
	return k, m.vals[k], true
}

// Range calls fn for every entry in order until fn returns false.
func (m *Mapping) Range(fn func(key string, v Value) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

// Clone returns a shallow copy; child values are shared.
func (m *Mapping) Clone() *Mapping {
	out := NewMapping(m.Len())
	m.Range(func(k string, v Value) bool {
		out.Set(k, v)
		return true
	})
	return out
}
