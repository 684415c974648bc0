package cache

// TileCacheKey identifies one composited tile of one map.
type TileCacheKey struct {
	MapID string
	X     int
	Y     int
	Z     int
}

// TileCacheValue is the serialized response for a cached tile.
type TileCacheValue struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

type TileCache interface {
	Get(TileCacheKey) (TileCacheValue, bool, error)
	Set(TileCacheKey, TileCacheValue) error
}
