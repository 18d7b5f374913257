package worldfile

import (
	"errors"
	"path/filepath"
	"testing"
)

func sample() WorldV1 {
	return WorldV1{
		Version: Version,
		Size:    SizeV1{X: 8, Y: 8, Z: 8},
		Blocks: []BlockV1{
			{X: 0, Y: 0, Z: 0, ID: 1},
			{X: 1, Y: 0, Z: 0, ID: 2},
		},
		Metadata: map[string]any{"author": "test"},
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	for _, name := range []string{"w.vxw", "w.vxw.zst"} {
		path := filepath.Join(t.TempDir(), name)
		if err := Write(path, sample()); err != nil {
			t.Fatalf("%s: write: %v", name, err)
		}
		got, err := Read(path)
		if err != nil {
			t.Fatalf("%s: read: %v", name, err)
		}
		if got.Version != Version || got.Size != (SizeV1{8, 8, 8}) {
			t.Fatalf("%s: header mismatch: %+v", name, got)
		}
		if len(got.Blocks) != 2 || got.Blocks[1] != (BlockV1{1, 0, 0, 2}) {
			t.Fatalf("%s: blocks mismatch: %+v", name, got.Blocks)
		}
		if got.Metadata["author"] != "test" {
			t.Fatalf("%s: metadata not round-tripped: %+v", name, got.Metadata)
		}
	}
}

func TestDecode_MissingFields(t *testing.T) {
	cases := map[string]string{
		"no version": `{"size":{"x":1,"y":1,"z":1},"blocks":[]}`,
		"no size":    `{"version":"1.0","blocks":[]}`,
		"no blocks":  `{"version":"1.0","size":{"x":1,"y":1,"z":1}}`,
		"not json":   `nope`,
	}
	for name, raw := range cases {
		if _, err := Decode([]byte(raw)); !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("%s: got %v, want ErrInvalidFormat", name, err)
		}
	}
}

func TestDecode_ToleratesUnknownIDsAndExtraFields(t *testing.T) {
	raw := `{
		"version": "99-from-the-future",
		"size": {"x":4,"y":4,"z":4},
		"blocks": [{"x":0,"y":0,"z":0,"id":424242}],
		"metadata": {"anything": ["goes", 1, true]},
		"unknown_field": 7
	}`
	w, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Blocks[0].ID != 424242 {
		t.Fatalf("unknown id not preserved: %+v", w.Blocks[0])
	}
	if w.Version != "99-from-the-future" {
		t.Fatalf("version is opaque, must be preserved: %q", w.Version)
	}
}
