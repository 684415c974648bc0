package translate

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"

	"tileproxy/internal/registry"
)

// TileBounds returns the Web Mercator (EPSG:3857) bounding box of a slippy
// tile as min and max projected points.
func TileBounds(z, x, y int) (orb.Point, orb.Point) {
	tile := maptile.New(uint32(x), uint32(y), maptile.Zoom(z))
	bound := tile.Bound()

	min := project.WGS84.ToMercator(bound.Min)
	max := project.WGS84.ToMercator(bound.Max)
	return min, max
}

// wmsURL builds a GetMap request for the projected extent of the tile. Layer
// dimensions default to the map's tile size.
func wmsURL(cfg *registry.MapConfig, layer *registry.LayerDescriptor, z, x, y int) string {
	wms := layer.WMS

	version := wms.Version
	if version == "" {
		version = "1.3.0"
	}
	format := wms.Format
	if format == "" {
		format = "image/png"
	}
	width := wms.Width
	if width == 0 {
		width = cfg.TileSize
	}
	height := wms.Height
	if height == 0 {
		height = cfg.TileSize
	}

	min, max := TileBounds(z, x, y)

	params := url.Values{}
	params.Set("SERVICE", "WMS")
	params.Set("VERSION", version)
	params.Set("REQUEST", "GetMap")
	params.Set("BBOX", formatBBox(min, max))
	params.Set("CRS", "EPSG:3857")
	params.Set("WIDTH", strconv.Itoa(width))
	params.Set("HEIGHT", strconv.Itoa(height))
	params.Set("LAYERS", wms.Layers)
	params.Set("FORMAT", format)
	params.Set("STYLES", wms.Styles)
	if wms.Transparent {
		params.Set("TRANSPARENT", "true")
	}

	endpoint := serverURL(layer, layer.URLTemplate)
	separator := "?"
	if strings.Contains(endpoint, "?") {
		separator = "&"
	}
	return endpoint + separator + params.Encode()
}

func formatBBox(min, max orb.Point) string {
	coords := []float64{min[0], min[1], max[0], max[1]}
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.FormatFloat(c, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}
