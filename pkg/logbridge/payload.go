package logbridge

import "strings"

// Pair is a single payload key/value.
type Pair struct {
	Key   string
	Value Value
}

// Payload is an ordered key/value mapping. Setting an existing key replaces
// its value in place. The zero value is an empty payload and a nil *Payload
// reads as empty.
type Payload struct {
	pairs []Pair
}

// NewPayload builds a payload from pairs, in order.
func NewPayload(pairs ...Pair) *Payload {
	p := &Payload{pairs: make([]Pair, 0, len(pairs))}
	for _, pair := range pairs {
		p.Set(pair.Key, pair.Value)
	}
	return p
}

// Set stores v under key and returns p for chaining.
func (p *Payload) Set(key string, v Value) *Payload {
	for i := range p.pairs {
		if p.pairs[i].Key == key {
			p.pairs[i].Value = v
			return p
		}
	}
	p.pairs = append(p.pairs, Pair{Key: key, Value: v})
	return p
}

// Get returns the value stored under key.
func (p *Payload) Get(key string) (Value, bool) {
	if p == nil {
		return nil, false
	}
	for _, pair := range p.pairs {
		if pair.Key == key {
			return pair.Value, true
		}
	}
	return nil, false
}

// Len returns the number of pairs.
func (p *Payload) Len() int {
	if p == nil {
		return 0
	}
	return len(p.pairs)
}

// Pairs returns a copy of the pairs in insertion order.
func (p *Payload) Pairs() []Pair {
	if p == nil {
		return nil
	}
	out := make([]Pair, len(p.pairs))
	copy(out, p.pairs)
	return out
}

// Keys returns the keys in insertion order.
func (p *Payload) Keys() []string {
	if p == nil {
		return nil
	}
	keys := make([]string, len(p.pairs))
	for i, pair := range p.pairs {
		keys[i] = pair.Key
	}
	return keys
}

// Map returns the payload as a map of plain Go values. Unknown values map
// to nil.
func (p *Payload) Map() map[string]any {
	m := make(map[string]any, p.Len())
	if p == nil {
		return m
	}
	for _, pair := range p.pairs {
		if pair.Value == nil {
			m[pair.Key] = nil
			continue
		}
		m[pair.Key] = pair.Value.Any()
	}
	return m
}

func (p *Payload) String() string {
	if p.Len() == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, pair := range p.pairs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pair.Key)
		b.WriteByte('=')
		if pair.Value == nil {
			b.WriteString("<nil>")
		} else {
			b.WriteString(pair.Value.String())
		}
	}
	b.WriteByte('}')
	return b.String()
}
