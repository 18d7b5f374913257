// Package world owns the sparse block map of an editing session and its
// coordinate-space conversions. The store is single-writer: all mutation
// happens on the session loop goroutine.
package world

import (
	"fmt"
	"sort"

	"voxelforge.dev/internal/persistence/worldfile"
	"voxelforge.dev/internal/sim/catalogs"
)

// Store maps grid cells to block type ids. Revision is a monotonic counter
// bumped on every mutation; observers compare revisions instead of deep
// diffing the map.
type Store struct {
	size     Size
	blocks   map[Vec3i]int
	revision uint64
	catalog  *catalogs.BlockCatalog
}

func NewStore(size Size, catalog *catalogs.BlockCatalog) *Store {
	return &Store{
		size:    size,
		blocks:  map[Vec3i]int{},
		catalog: catalog,
	}
}

func (s *Store) Size() Size        { return s.size }
func (s *Store) Revision() uint64  { return s.revision }
func (s *Store) Count() int        { return len(s.blocks) }

// Place upserts a block. It reports false (and leaves revision untouched)
// when the id is unknown or the cell is out of bounds. Placing over an
// occupied cell is last-write-wins, not a conflict.
func (s *Store) Place(p Vec3i, blockTypeID int) bool {
	if !s.catalog.Has(blockTypeID) {
		return false
	}
	if !s.size.Contains(p) {
		return false
	}
	s.blocks[p] = blockTypeID
	s.revision++
	return true
}

// Remove deletes the block at p. Removing an empty cell is a reported
// no-op, not an error, and does not bump the revision.
func (s *Store) Remove(p Vec3i) bool {
	if _, ok := s.blocks[p]; !ok {
		return false
	}
	delete(s.blocks, p)
	s.revision++
	return true
}

func (s *Store) Get(p Vec3i) (int, bool) {
	id, ok := s.blocks[p]
	return id, ok
}

func (s *Store) Has(p Vec3i) bool {
	_, ok := s.blocks[p]
	return ok
}

// Clear empties the map. Clearing an already-empty world still counts as a
// mutation.
func (s *Store) Clear() {
	s.blocks = map[Vec3i]int{}
	s.revision++
}

// Occupied returns every placed cell. The slice is a point-in-time copy in
// deterministic (x,y,z) order.
func (s *Store) Occupied() []Vec3i {
	cells := make([]Vec3i, 0, len(s.blocks))
	for p := range s.blocks {
		cells = append(cells, p)
	}
	sortCells(cells)
	return cells
}

// Export materializes the current content as a serialized world. The copy
// is consistent: later mutations do not show through.
func (s *Store) Export() worldfile.WorldV1 {
	out := worldfile.WorldV1{
		Version: worldfile.Version,
		Size:    worldfile.SizeV1{X: s.size.X, Y: s.size.Y, Z: s.size.Z},
		Blocks:  make([]worldfile.BlockV1, 0, len(s.blocks)),
	}
	for _, p := range s.Occupied() {
		out.Blocks = append(out.Blocks, worldfile.BlockV1{X: p.X, Y: p.Y, Z: p.Z, ID: s.blocks[p]})
	}
	return out
}

// Import replaces size and blocks wholesale. Block ids are NOT validated
// against the catalog: a dangling id simply resolves to no catalog entry at
// use time. The replacement is atomic; a rejected import leaves the store
// unmodified.
func (s *Store) Import(f worldfile.WorldV1) error {
	if f.Version == "" || f.Blocks == nil {
		return worldfile.ErrInvalidFormat
	}
	if f.Size.X <= 0 || f.Size.Y <= 0 || f.Size.Z <= 0 {
		return fmt.Errorf("%w: non-positive size %dx%dx%d", worldfile.ErrInvalidFormat, f.Size.X, f.Size.Y, f.Size.Z)
	}

	blocks := make(map[Vec3i]int, len(f.Blocks))
	for _, b := range f.Blocks {
		blocks[Vec3i{X: b.X, Y: b.Y, Z: b.Z}] = b.ID
	}

	s.size = Size{X: f.Size.X, Y: f.Size.Y, Z: f.Size.Z}
	s.blocks = blocks
	s.revision++
	return nil
}

func sortCells(cells []Vec3i) {
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].X != cells[j].X {
			return cells[i].X < cells[j].X
		}
		if cells[i].Y != cells[j].Y {
			return cells[i].Y < cells[j].Y
		}
		return cells[i].Z < cells[j].Z
	})
}
