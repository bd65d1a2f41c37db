// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
)

func TestDictionaryRoundtrip(t *testing.T) {
	original := map[string]any{
		"zoom":       uint64(150),
		"font":       "serif",
		"javascript": true,
		"nested":     map[string]any{"depth": uint64(2)},
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded["font"] != "serif" || decoded["javascript"] != true || decoded["zoom"] != uint64(150) {
		t.Errorf("scalar fields mismatch: %v", decoded)
	}
	nested, ok := decoded["nested"].(map[string]any)
	if !ok {
		t.Fatalf("nested decoded as %T, want map[string]any", decoded["nested"])
	}
	if nested["depth"] != uint64(2) {
		t.Errorf("nested depth = %v, want 2", nested["depth"])
	}
}

func TestMarshalDeterministicKeyOrder(t *testing.T) {
	// Go map iteration order is random; encoded bytes must not be.
	dictionary := map[string]any{"b": 1, "a": 2, "c": 3, "aa": 4}

	first, err := Marshal(dictionary)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	for range 20 {
		again, err := Marshal(dictionary)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("deterministic encoding violated: %x != %x", first, again)
		}
	}
}

func TestUnmarshalRejectsTrailingData(t *testing.T) {
	data, err := Marshal("payload")
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	data = append(data, 0x01)

	var decoded string
	if err := Unmarshal(data, &decoded); err == nil {
		t.Error("Unmarshal accepted trailing bytes")
	}
}

func TestValid(t *testing.T) {
	good, err := Marshal(map[string]any{"key": "value"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := Valid(good); err != nil {
		t.Errorf("Valid(good) = %v", err)
	}
	if err := Valid(good[:len(good)-1]); err == nil {
		t.Error("Valid accepted a truncated document")
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(map[string]any{"zoom": 2})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(notation, `"zoom"`) {
		t.Errorf("diagnostic notation %q does not mention key", notation)
	}
}
