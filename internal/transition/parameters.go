package transition

import (
	"fmt"
	"maps"
)

// change callback for a single parameter
type Listener func(name string, v Value)

// typed parameter map of one transition, each value defaulted and overridable
type Parameters struct {
	kind      *Kind
	values    map[string]Value
	listeners map[string][]Listener
}

func newParameters(k *Kind) *Parameters {
	p := &Parameters{
		kind:   k,
		values: make(map[string]Value, len(k.Params)),
	}
	for _, s := range k.Params {
		p.values[s.Name] = s.Default
	}
	return p
}

// name of the transition kind
func (p *Parameters) Kind() string {
	return p.kind.Name
}

// parameter names in declaration order
func (p *Parameters) Names() []string {
	names := make([]string, 0, len(p.kind.Params))
	for _, s := range p.kind.Params {
		names = append(names, s.Name)
	}
	return names
}

func (p *Parameters) Spec(name string) (Spec, bool) {
	return p.kind.spec(name)
}

func (p *Parameters) Get(name string) (Value, bool) {
	v, ok := p.values[name]
	return v, ok
}

// validates and stores v, notifying listeners when the value changes
func (p *Parameters) Set(name string, v Value) error {
	s, ok := p.kind.spec(name)
	if !ok {
		return fmt.Errorf("transition kind %q has no parameter %q", p.kind.Name, name)
	}
	if err := s.Validate(v); err != nil {
		return err
	}
	if p.values[name] == v {
		return nil
	}
	p.values[name] = v
	for _, fn := range p.listeners[name] {
		fn(name, v)
	}
	return nil
}

// restores the declared default
func (p *Parameters) Reset(name string) error {
	s, ok := p.kind.spec(name)
	if !ok {
		return fmt.Errorf("transition kind %q has no parameter %q", p.kind.Name, name)
	}
	return p.Set(name, s.Default)
}

func (p *Parameters) IsDefault(name string) bool {
	s, ok := p.kind.spec(name)
	return ok && p.values[name] == s.Default
}

// values that differ from their defaults
func (p *Parameters) Overrides() map[string]Value {
	out := make(map[string]Value)
	for _, s := range p.kind.Params {
		if v := p.values[s.Name]; v != s.Default {
			out[s.Name] = v
		}
	}
	return out
}

// registers fn for changes of name. The returned func unregisters it.
func (p *Parameters) OnChange(name string, fn Listener) func() {
	if p.listeners == nil {
		p.listeners = make(map[string][]Listener)
	}
	p.listeners[name] = append(p.listeners[name], fn)
	idx := len(p.listeners[name]) - 1
	return func() {
		if idx < len(p.listeners[name]) {
			p.listeners[name][idx] = func(string, Value) {}
		}
	}
}

// independent copy of the values, listeners are not carried over
func (p *Parameters) Clone() *Parameters {
	if p == nil {
		return nil
	}
	return &Parameters{
		kind:   p.kind,
		values: maps.Clone(p.values),
	}
}
