package ssr

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNewRequest(t *testing.T) {
	t.Run("empty name rejected", func(t *testing.T) {
		if _, err := NewRequest("", nil, nil); err == nil {
			t.Error("expected error for empty component name")
		}
	})

	t.Run("nil maps normalized", func(t *testing.T) {
		req, err := NewRequest("Card", nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if req.Props == nil || req.Slots == nil {
			t.Error("nil props/slots should be normalized to empty maps")
		}
	})
}

func TestEncode(t *testing.T) {
	req, err := NewRequest("Card",
		map[string]any{"title": "hello", "count": 3},
		map[string]string{"default": "<p>body</p>"},
	)
	if err != nil {
		t.Fatal(err)
	}

	data, err := req.Encode()
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Encode produced invalid JSON: %v", err)
	}

	for _, key := range []string{"name", "props", "slots"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("payload missing key %q", key)
		}
	}
	if decoded["name"] != "Card" {
		t.Errorf("name = %v, want Card", decoded["name"])
	}
	slots, _ := decoded["slots"].(map[string]any)
	if slots["default"] != "<p>body</p>" {
		t.Errorf("slots.default = %v", slots["default"])
	}
}

func TestEncodeUnserializable(t *testing.T) {
	req, err := NewRequest("Card", map[string]any{"fn": func() {}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := req.Encode(); err == nil {
		t.Error("expected serialization error for func value")
	}
}

func TestArgs(t *testing.T) {
	props := map[string]any{"a": 1}
	slots := map[string]string{"default": "x"}
	req, err := NewRequest("Card", props, slots)
	if err != nil {
		t.Fatal(err)
	}

	args := req.Args()
	want := []any{"Card", props, slots}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("Args() = %v, want %v", args, want)
	}
}
