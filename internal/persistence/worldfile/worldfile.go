// Package worldfile defines the serialized world format and its on-disk
// reader/writer. Files ending in .zst are zstd-compressed JSON; anything
// else is plain JSON.
package worldfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Version is the compatibility tag written to new files. It is an opaque
// string: readers round-trip it but never compare it.
const Version = "1.0"

// ErrInvalidFormat reports a file missing one of the required top-level
// fields (version, size, blocks).
var ErrInvalidFormat = errors.New("worldfile: invalid format")

type SizeV1 struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

type BlockV1 struct {
	X  int `json:"x"`
	Y  int `json:"y"`
	Z  int `json:"z"`
	ID int `json:"id"`
}

type WorldV1 struct {
	Version  string         `json:"version"`
	Size     SizeV1         `json:"size"`
	Blocks   []BlockV1      `json:"blocks"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Decode parses a serialized world. The three required fields must be
// present; block ids are NOT validated against any catalog here (unknown
// ids are tolerated by design).
func Decode(raw []byte) (WorldV1, error) {
	var probe struct {
		Version  *string        `json:"version"`
		Size     *SizeV1        `json:"size"`
		Blocks   *[]BlockV1     `json:"blocks"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return WorldV1{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	switch {
	case probe.Version == nil:
		return WorldV1{}, fmt.Errorf("%w: missing version", ErrInvalidFormat)
	case probe.Size == nil:
		return WorldV1{}, fmt.Errorf("%w: missing size", ErrInvalidFormat)
	case probe.Blocks == nil:
		return WorldV1{}, fmt.Errorf("%w: missing blocks", ErrInvalidFormat)
	}
	return WorldV1{
		Version:  *probe.Version,
		Size:     *probe.Size,
		Blocks:   *probe.Blocks,
		Metadata: probe.Metadata,
	}, nil
}

func Encode(w WorldV1) ([]byte, error) {
	if w.Blocks == nil {
		w.Blocks = []BlockV1{}
	}
	return json.MarshalIndent(w, "", "  ")
}

// Write stores a world file atomically: the content is written to a temp
// file in the target directory and renamed into place.
func Write(path string, w WorldV1) error {
	raw, err := Encode(w)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".world-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if compressed(path) {
		enc, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			tmp.Close()
			return err
		}
		if _, err := enc.Write(raw); err != nil {
			enc.Close()
			tmp.Close()
			return err
		}
		if err := enc.Close(); err != nil {
			tmp.Close()
			return err
		}
	} else {
		if _, err := tmp.Write(raw); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func Read(path string) (WorldV1, error) {
	f, err := os.Open(path)
	if err != nil {
		return WorldV1{}, err
	}
	defer f.Close()

	var raw []byte
	if compressed(path) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return WorldV1{}, err
		}
		defer dec.Close()
		raw, err = io.ReadAll(dec)
		if err != nil {
			return WorldV1{}, err
		}
	} else {
		raw, err = io.ReadAll(f)
		if err != nil {
			return WorldV1{}, err
		}
	}
	return Decode(raw)
}

func compressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}
