package transition

import (
	"fmt"
	"image/color"
	"slices"
)

// which transition shapes a kind can render
type Sides int

const (
	SidesAny  Sides = iota // in-only, out-only and in-out
	SidesBoth              // in-out only
	SidesOne               // in-only or out-only
)

// visual look of a transition with its parameter declarations
type Kind struct {
	Name        string
	Description string
	Sides       Sides
	Params      []Spec
}

// reports whether the kind can be rendered with the given sides present
func (k *Kind) Allows(left, right bool) bool {
	switch k.Sides {
	case SidesBoth:
		return left && right
	case SidesOne:
		return left != right
	}
	return left || right
}

func (k *Kind) spec(name string) (Spec, bool) {
	for _, s := range k.Params {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}

// set of available transition kinds, built once at startup and passed around
type Registry struct {
	kinds map[string]*Kind
	order []string
}

func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]*Kind)}
}

// adds a kind, rejecting duplicates and invalid defaults
func (r *Registry) Register(k Kind) error {
	if k.Name == "" {
		return fmt.Errorf("transition kind name is required")
	}
	if _, exists := r.kinds[k.Name]; exists {
		return fmt.Errorf("transition kind %q already registered", k.Name)
	}
	seen := make(map[string]bool, len(k.Params))
	for _, s := range k.Params {
		if seen[s.Name] {
			return fmt.Errorf("transition kind %q: duplicate parameter %q", k.Name, s.Name)
		}
		seen[s.Name] = true
		if err := s.Validate(s.Default); err != nil {
			return fmt.Errorf("transition kind %q: invalid default: %w", k.Name, err)
		}
	}
	k.Params = slices.Clone(k.Params)
	r.kinds[k.Name] = &k
	r.order = append(r.order, k.Name)
	return nil
}

func (r *Registry) Lookup(name string) (*Kind, error) {
	k, ok := r.kinds[name]
	if !ok {
		return nil, fmt.Errorf("unknown transition kind %q", name)
	}
	return k, nil
}

// kinds in registration order
func (r *Registry) Kinds() []*Kind {
	out := make([]*Kind, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.kinds[name])
	}
	return out
}

// creates a defaulted parameter set for the named kind
func (r *Registry) NewParameters(name string) (*Parameters, error) {
	k, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return newParameters(k), nil
}

// registry holding the stock transition looks
func Builtin() *Registry {
	r := NewRegistry()
	for _, k := range builtinKinds() {
		if err := r.Register(k); err != nil {
			panic(err)
		}
	}
	return r
}

func builtinKinds() []Kind {
	return []Kind{
		{
			Name:        "crossfade",
			Description: "Blend the outgoing clip into the incoming clip",
			Sides:       SidesBoth,
			Params: []Spec{
				{Name: "curve", Kind: KindEnum, Default: Enum("linear"), Options: []string{"linear", "ease-in", "ease-out", "smooth"}},
			},
		},
		{
			Name:        "fade",
			Description: "Fade a clip in from, or out to, a solid color",
			Sides:       SidesOne,
			Params: []Spec{
				{Name: "color", Kind: KindColor, Default: Color(color.RGBA{A: 0xff})},
				{Name: "curve", Kind: KindEnum, Default: Enum("linear"), Options: []string{"linear", "ease-in", "ease-out", "smooth"}},
			},
		},
		{
			Name:        "wipe",
			Description: "Reveal the incoming clip behind a moving edge",
			Sides:       SidesAny,
			Params: []Spec{
				{Name: "direction", Kind: KindEnum, Default: Enum("left"), Options: []string{"left", "right", "up", "down"}},
				{Name: "softness", Kind: KindDouble, Default: Double(0.1), Min: 0, Max: 1},
				{Name: "bands", Kind: KindInt, Default: Int(1), Min: 1, Max: 64},
				{Name: "invert", Kind: KindBool, Default: Bool(false)},
			},
		},
		{
			Name:        "image",
			Description: "Wipe shaped by a grayscale image mask",
			Sides:       SidesAny,
			Params: []Spec{
				{Name: "mask", Kind: KindFile, Default: File("")},
				{Name: "softness", Kind: KindDouble, Default: Double(0), Min: 0, Max: 1},
				{Name: "invert", Kind: KindBool, Default: Bool(false)},
			},
		},
	}
}
