package catalogs

// defaultBlockDefs is the built-in catalog, used when no blocks.json is
// present in the config dir. Registration order is picker order.
var defaultBlockDefs = []BlockDef{
	{ID: 1, Name: "DIRT", Category: CategoryFullBlock, Color: "#8b5a2b", Solid: true, Collidable: true},
	{ID: 2, Name: "GRASS", Category: CategoryFullBlock, Color: "#4caf50", Solid: true, Collidable: true},
	{ID: 3, Name: "STONE", Category: CategoryFullBlock, Color: "#9e9e9e", Solid: true, Collidable: true},
	{ID: 4, Name: "SAND", Category: CategoryFullBlock, Color: "#e0c068", Solid: true, Collidable: true},
	{ID: 5, Name: "LOG", Category: CategoryPillar, Color: "#6d4c41", Solid: true, Collidable: true},
	{ID: 6, Name: "PLANKS", Category: CategoryFullBlock, Color: "#b08d57", Solid: true, Collidable: true},
	{ID: 7, Name: "GLASS", Category: CategoryFullBlock, Color: "#b3e5fc", Solid: true, Collidable: true, Transparent: true},
	{ID: 8, Name: "BRICK", Category: CategoryFullBlock, Color: "#b71c1c", Solid: true, Collidable: true},
	{ID: 9, Name: "SLAB_STONE", Category: CategorySlab, Color: "#bdbdbd", Collidable: true},
	{ID: 10, Name: "SLAB_WOOD", Category: CategorySlab, Color: "#c8a165", Collidable: true},
	{ID: 11, Name: "TILE_WHITE", Category: CategoryTile, Color: "#fafafa", Collidable: true},
	{ID: 12, Name: "TILE_BLACK", Category: CategoryTile, Color: "#212121", Collidable: true},
	{ID: 13, Name: "PILLAR_MARBLE", Category: CategoryPillar, Color: "#eeeeee", Solid: true, Collidable: true},
	{ID: 14, Name: "TORCH", Category: CategoryWallItem, Color: "#ffb300"},
	{ID: 15, Name: "PAINTING", Category: CategoryWallItem, Color: "#795548"},
	{ID: 16, Name: "FLOWER", Category: CategoryDecoration, Color: "#e91e63"},
	{ID: 17, Name: "SHRUB", Category: CategoryDecoration, Color: "#2e7d32"},
	{ID: 18, Name: "RED", Category: CategorySolidColor, Color: "#f44336", Solid: true, Collidable: true},
	{ID: 19, Name: "GREEN", Category: CategorySolidColor, Color: "#4caf50", Solid: true, Collidable: true},
	{ID: 20, Name: "BLUE", Category: CategorySolidColor, Color: "#2196f3", Solid: true, Collidable: true},
	{ID: 21, Name: "YELLOW", Category: CategorySolidColor, Color: "#ffeb3b", Solid: true, Collidable: true},
	{ID: 22, Name: "WHITE", Category: CategorySolidColor, Color: "#ffffff", Solid: true, Collidable: true},
	{ID: 23, Name: "BLACK", Category: CategorySolidColor, Color: "#000000", Solid: true, Collidable: true},
}
