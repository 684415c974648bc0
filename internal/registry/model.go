package registry

// Mode selects how slippy-map coordinates are translated into an upstream
// request for one layer.
type Mode string

const (
	ModeIdentity Mode = "identity"
	ModeTMS      Mode = "tms"
	ModeWMTS     Mode = "wmts"
	ModeWMS      Mode = "wms"
	ModeCustom   Mode = "custom"
)

// MatrixEntry binds one zoom level to the provider's native tile-matrix
// identifier for WMTS layers.
type MatrixEntry struct {
	Zoom       int    `json:"zoom" validate:"gte=0,lte=24"`
	Identifier string `json:"identifier" validate:"required"`
}

// WMSParams holds the GetMap parameters of a WMS layer. The bounding box is
// computed per request from the tile coordinates; everything else is static.
type WMSParams struct {
	Layers      string `json:"layers" validate:"required"`
	Version     string `json:"version"`
	Format      string `json:"format"`
	Styles      string `json:"styles"`
	Transparent bool   `json:"transparent"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// LayerDescriptor describes a single upstream tile source. Servers are
// alternated randomly between requests when more than one mirror is listed.
type LayerDescriptor struct {
	Mode        Mode              `json:"mode" validate:"omitempty,oneof=identity tms wmts wms custom"`
	Protocol    string            `json:"protocol" validate:"omitempty,oneof=http https"`
	Servers     []string          `json:"servers"`
	URLTemplate string            `json:"url_template"`
	Headers     map[string]string `json:"headers"`
	CustomFunc  string            `json:"custom_func"`
	Matrices    []MatrixEntry     `json:"matrices" validate:"dive"`
	WMS         *WMSParams        `json:"wms"`
	LimiterTag  string            `json:"limiter"`
}

// MapConfig is one entry of the registry: a base layer (index 0) plus zero or
// more overlays, drawn in slice order. Immutable after load.
type MapConfig struct {
	ID           string            `json:"-" validate:"required"`
	Layers       []LayerDescriptor `json:"layers" validate:"required,min=1,dive"`
	MinZoom      int               `json:"min_zoom" validate:"gte=0"`
	MaxZoom      int               `json:"max_zoom" validate:"gte=0,lte=24"`
	TileSize     int               `json:"tile_size" validate:"gte=0"`
	OutputFormat string            `json:"output_format" validate:"omitempty,oneof=png jpeg"`
}

// Base returns the base layer descriptor.
func (m *MapConfig) Base() *LayerDescriptor {
	return &m.Layers[0]
}

// Overlays returns the overlay descriptors in drawing order.
func (m *MapConfig) Overlays() []LayerDescriptor {
	return m.Layers[1:]
}
