package transition

import (
	"fmt"
	"image/color"
	"math"
	"slices"
	"strconv"
)

// value type of a transition parameter
type ParamKind int

const (
	KindBool ParamKind = iota
	KindInt
	KindDouble
	KindEnum
	KindColor
	KindFile
)

var paramKindNames = map[ParamKind]string{
	KindBool:   "bool",
	KindInt:    "int",
	KindDouble: "double",
	KindEnum:   "enum",
	KindColor:  "color",
	KindFile:   "file",
}

func (k ParamKind) String() string {
	if name, ok := paramKindNames[k]; ok {
		return name
	}
	return "ParamKind(" + strconv.Itoa(int(k)) + ")"
}

// parses the name produced by String
func ParseParamKind(s string) (ParamKind, error) {
	for k, name := range paramKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown parameter kind %q", s)
}

// variant-typed parameter value, only the field matching Kind is meaningful
type Value struct {
	Kind   ParamKind
	Bool   bool
	Int    int
	Double float64
	Enum   string
	Color  color.RGBA
	Path   string
}

func Bool(v bool) Value { return Value{Kind: KindBool, Bool: v} }
func Int(v int) Value { return Value{Kind: KindInt, Int: v} }
func Double(v float64) Value { return Value{Kind: KindDouble, Double: v} }
func Enum(tag string) Value { return Value{Kind: KindEnum, Enum: tag} }
func Color(c color.RGBA) Value { return Value{Kind: KindColor, Color: c} }
func File(path string) Value { return Value{Kind: KindFile, Path: path} }

func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt:
		return strconv.Itoa(v.Int)
	case KindDouble:
		return strconv.FormatFloat(v.Double, 'g', -1, 64)
	case KindEnum:
		return v.Enum
	case KindColor:
		return fmt.Sprintf("#%02x%02x%02x%02x", v.Color.R, v.Color.G, v.Color.B, v.Color.A)
	case KindFile:
		return v.Path
	}
	return "?"
}

// parses s as a value of the given kind (colors as #rrggbb or #rrggbbaa)
func ParseValue(kind ParamKind, s string) (Value, error) {
	switch kind {
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("invalid bool %q: %w", s, err)
		}
		return Bool(b), nil
	case KindInt:
		i, err := strconv.Atoi(s)
		if err != nil {
			return Value{}, fmt.Errorf("invalid int %q: %w", s, err)
		}
		return Int(i), nil
	case KindDouble:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid double %q: %w", s, err)
		}
		return Double(f), nil
	case KindEnum:
		return Enum(s), nil
	case KindColor:
		c, err := parseColor(s)
		if err != nil {
			return Value{}, err
		}
		return Color(c), nil
	case KindFile:
		return File(s), nil
	}
	return Value{}, fmt.Errorf("unsupported parameter kind %s", kind)
}

func parseColor(s string) (color.RGBA, error) {
	if len(s) == 0 || s[0] != '#' || (len(s) != 7 && len(s) != 9) {
		return color.RGBA{}, fmt.Errorf("invalid color %q: expected #rrggbb or #rrggbbaa", s)
	}
	if len(s) == 7 {
		s += "ff"
	}
	n, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{
		R: uint8(n >> 24),
		G: uint8(n >> 16),
		B: uint8(n >> 8),
		A: uint8(n),
	}, nil
}

// declares one named parameter of a transition kind
type Spec struct {
	Name    string
	Kind    ParamKind
	Default Value
	Min     float64 // int and double only
	Max     float64
	Options []string // enum only
}

// checks that v is acceptable for this parameter
func (s Spec) Validate(v Value) error {
	if v.Kind != s.Kind {
		return fmt.Errorf("parameter %q expects %s, got %s", s.Name, s.Kind, v.Kind)
	}
	switch v.Kind {
	case KindInt:
		if float64(v.Int) < s.Min || float64(v.Int) > s.Max {
			return fmt.Errorf("parameter %q: %d outside [%g, %g]", s.Name, v.Int, s.Min, s.Max)
		}
	case KindDouble:
		if math.IsNaN(v.Double) || v.Double < s.Min || v.Double > s.Max {
			return fmt.Errorf("parameter %q: %g outside [%g, %g]", s.Name, v.Double, s.Min, s.Max)
		}
	case KindEnum:
		if !slices.Contains(s.Options, v.Enum) {
			return fmt.Errorf("parameter %q: %q is not one of %v", s.Name, v.Enum, s.Options)
		}
	case KindBool, KindColor, KindFile:
	}
	return nil
}
