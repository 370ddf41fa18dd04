package jsoncodec

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/hoardkv/hoard/internal/codec"
)

func TestCodec_RoundTrip(t *testing.T) {
	c := New()
	cases := []struct {
		name string
		in   any
		want any
	}{
		{"string", "hello", "hello"},
		{"integer", 42, json.Number("42")},
		{"float", 3.5, json.Number("3.5")},
		{"bool", true, true},
		{"null", nil, nil},
		{"mapping", map[string]any{"plan": "pro"}, map[string]any{"plan": "pro"}},
		{"sequence", []any{"a", "b"}, []any{"a", "b"}},
		{
			"nested",
			map[string]any{"ids": []any{1, 2}},
			map[string]any{"ids": []any{json.Number("1"), json.Number("2")}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := c.Encode(tc.in)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got, err := c.Decode(s)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("round-trip = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestCodec_Encode_UnsupportedValue(t *testing.T) {
	c := New()
	for _, v := range []any{make(chan int), func() {}} {
		_, err := c.Encode(v)
		if !errors.Is(err, codec.ErrUnsupportedValue) {
			t.Errorf("Encode(%T) error = %v, want ErrUnsupportedValue", v, err)
		}
	}
}

func TestCodec_Encode_NoHTMLEscaping(t *testing.T) {
	c := New()
	s, err := c.Encode("a<b>&c")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if s != `"a<b>&c"` {
		t.Errorf("Encode() = %q, want unescaped form", s)
	}
}

func TestCodec_Decode_InvalidInput(t *testing.T) {
	c := New()
	if _, err := c.Decode("{not json"); err == nil {
		t.Error("Decode() expected error for invalid input, got nil")
	}
}
