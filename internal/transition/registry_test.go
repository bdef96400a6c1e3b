package transition

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuiltinKinds(t *testing.T) {
	r := Builtin()
	var names []string
	for _, k := range r.Kinds() {
		names = append(names, k.Name)
	}
	want := []string{"crossfade", "fade", "wipe", "image"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
	if _, err := r.Lookup("dissolve"); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}

func TestAllows(t *testing.T) {
	tests := []struct {
		kind        string
		left, right bool
		want        bool
	}{
		{"crossfade", true, true, true},
		{"crossfade", true, false, false},
		{"fade", true, false, true},
		{"fade", false, true, true},
		{"fade", true, true, false},
		{"wipe", false, true, true},
		{"wipe", true, true, true},
		{"wipe", false, false, false},
	}
	r := Builtin()
	for _, tt := range tests {
		k, err := r.Lookup(tt.kind)
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if got := k.Allows(tt.left, tt.right); got != tt.want {
			t.Errorf("%s.Allows(%v, %v) = %v, expected %v", tt.kind, tt.left, tt.right, got, tt.want)
		}
	}
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		wantErr bool
	}{
		{name: "valid", kind: Kind{Name: "spin", Params: []Spec{{Name: "turns", Kind: KindInt, Default: Int(1), Min: 1, Max: 4}}}},
		{name: "missing name", kind: Kind{}, wantErr: true},
		{name: "duplicate kind", kind: Kind{Name: "crossfade"}, wantErr: true},
		{
			name: "duplicate parameter",
			kind: Kind{Name: "spin", Params: []Spec{
				{Name: "turns", Kind: KindBool, Default: Bool(true)},
				{Name: "turns", Kind: KindBool, Default: Bool(true)},
			}},
			wantErr: true,
		},
		{name: "default out of range", kind: Kind{Name: "spin", Params: []Spec{{Name: "turns", Kind: KindInt, Default: Int(9), Min: 1, Max: 4}}}, wantErr: true},
		{name: "default of wrong kind", kind: Kind{Name: "spin", Params: []Spec{{Name: "turns", Kind: KindInt, Default: Bool(true)}}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Builtin()
			err := r.Register(tt.kind)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				if _, err := r.NewParameters(tt.kind.Name); err != nil {
					t.Errorf("expected parameters for the new kind, got %v", err)
				}
			}
		})
	}
}
