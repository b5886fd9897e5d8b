package sparsebits

import (
	"reflect"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		values []uint32
	}{
		{"empty", nil},
		{"zero only", []uint32{0}},
		{"single small", []uint32{5}},
		{"dense low", []uint32{0, 1, 2, 3, 4, 5, 6, 7}},
		{"sparse", []uint32{0, 63, 64, 511, 512}},
		{"wide", []uint32{1, 1000, 100000, 1 << 20}},
		{"max u24", []uint32{0xFFFFFF}},
		{"max u32", []uint32{0xFFFFFFFF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := Encode(tt.values)
			decoded, consumed, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if consumed != len(encoded) {
				t.Errorf("consumed %d bytes, encoded %d", consumed, len(encoded))
			}
			want := tt.values
			if want == nil {
				want = []uint32{}
			}
			if len(decoded) == 0 && len(want) == 0 {
				return
			}
			if !reflect.DeepEqual(decoded, want) {
				t.Errorf("round trip: got %v, want %v", decoded, want)
			}
		})
	}
}

func TestDecodeReportsConsumedWithTrailingData(t *testing.T) {
	encoded := Encode([]uint32{3, 9, 77})
	withTrailer := append(append([]byte{}, encoded...), 0xDE, 0xAD, 0xBE, 0xEF)
	decoded, consumed, err := Decode(withTrailer)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if consumed != len(encoded) {
		t.Errorf("consumed %d bytes, want %d", consumed, len(encoded))
	}
	if !reflect.DeepEqual(decoded, []uint32{3, 9, 77}) {
		t.Errorf("got %v", decoded)
	}
}

func TestDecodeSortedOutput(t *testing.T) {
	encoded := Encode([]uint32{77, 3, 9, 3})
	decoded, _, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !reflect.DeepEqual(decoded, []uint32{3, 9, 77}) {
		t.Errorf("expected sorted, deduplicated output, got %v", decoded)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, _, err := Decode(nil); err == nil {
		t.Error("expected error for empty input")
	}
	if _, _, err := Decode([]byte{12}); err == nil {
		t.Error("expected error for out-of-range depth")
	}
	// depth 2 announces a root node plus children, but input ends early
	if _, _, err := Decode([]byte{2, 0x03}); err == nil {
		t.Error("expected error for truncated tree")
	}
}

func TestEmptySetEncodesAsOneByte(t *testing.T) {
	encoded := Encode(nil)
	if len(encoded) != 1 || encoded[0] != 0 {
		t.Errorf("empty set should encode as a single zero byte, got %v", encoded)
	}
}
