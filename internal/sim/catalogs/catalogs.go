package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Category groups block types for the picker UI.
type Category string

const (
	CategoryAll        Category = "all" // pseudo-category: the full catalog
	CategoryFullBlock  Category = "full-block"
	CategorySlab       Category = "slab"
	CategoryWallItem   Category = "wall-item"
	CategoryDecoration Category = "decoration"
	CategoryTile       Category = "tile"
	CategoryPillar     Category = "pillar"
	CategorySolidColor Category = "solid-color"
)

// BlockDef describes one placeable block type. Defs are loaded once at
// startup and never mutated.
type BlockDef struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Color       string   `json:"color"` // display color, e.g. "#8b5a2b"
	Solid       bool     `json:"solid"`
	Collidable  bool     `json:"collidable"`
	Transparent bool     `json:"transparent"`
}

// BlockCatalog is the immutable registry of block types.
// Order holds ids in registration order; Defs is the lookup index.
type BlockCatalog struct {
	Order      []int
	Defs       map[int]BlockDef
	DefsDigest string
}

func (c *BlockCatalog) Lookup(id int) (BlockDef, bool) {
	d, ok := c.Defs[id]
	return d, ok
}

func (c *BlockCatalog) Has(id int) bool {
	_, ok := c.Defs[id]
	return ok
}

func (c *BlockCatalog) Count() int { return len(c.Order) }

// ListByCategory returns defs in registration order. CategoryAll returns
// the full catalog.
func (c *BlockCatalog) ListByCategory(cat Category) []BlockDef {
	out := make([]BlockDef, 0, len(c.Order))
	for _, id := range c.Order {
		d := c.Defs[id]
		if cat == CategoryAll || d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}

type Catalogs struct {
	Blocks BlockCatalog
}

// Load reads blocks.json from configDir. A missing file falls back to the
// built-in default catalog so the editor works out of the box.
func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadBlocks(filepath.Join(configDir, "blocks.json"), &c.Blocks); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadBlocks(path string, out *BlockCatalog) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		raw, err = json.Marshal(defaultBlockDefs)
	}
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	if len(defs) == 0 {
		return fmt.Errorf("blocks.json: empty catalog")
	}

	out.Defs = make(map[int]BlockDef, len(defs))
	out.Order = make([]int, 0, len(defs))
	for _, d := range defs {
		if d.ID <= 0 {
			return fmt.Errorf("blocks.json: non-positive id %d", d.ID)
		}
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("blocks.json: duplicate id %d", d.ID)
		}
		out.Defs[d.ID] = d
		out.Order = append(out.Order, d.ID)
	}
	return nil
}
