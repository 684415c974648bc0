package translate

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"tileproxy/internal/registry"
)

const mercatorExtent = 20037508.342789244

func TestTileBoundsFullExtentAtZoomZero(t *testing.T) {
	min, max := TileBounds(0, 0, 0)

	if math.Abs(min[0]+mercatorExtent) > 1 {
		t.Errorf("min x: expected %.2f, got %.2f", -mercatorExtent, min[0])
	}
	if math.Abs(max[0]-mercatorExtent) > 1 {
		t.Errorf("max x: expected %.2f, got %.2f", mercatorExtent, max[0])
	}
	if math.Abs(min[1]+mercatorExtent) > 1 {
		t.Errorf("min y: expected %.2f, got %.2f", -mercatorExtent, min[1])
	}
	if math.Abs(max[1]-mercatorExtent) > 1 {
		t.Errorf("max y: expected %.2f, got %.2f", mercatorExtent, max[1])
	}
}

func TestTileBoundsQuadrantsAtZoomOne(t *testing.T) {
	// Tile 1/0/0 is the north-west quadrant.
	min, max := TileBounds(1, 0, 0)

	if math.Abs(min[0]+mercatorExtent) > 1 || math.Abs(max[0]) > 1 {
		t.Errorf("unexpected x range: [%.2f, %.2f]", min[0], max[0])
	}
	if math.Abs(min[1]) > 1 || math.Abs(max[1]-mercatorExtent) > 1 {
		t.Errorf("unexpected y range: [%.2f, %.2f]", min[1], max[1])
	}
}

func TestWMSURL(t *testing.T) {
	cfg := &registry.MapConfig{
		ID:       "wms_map",
		MaxZoom:  20,
		TileSize: 512,
		Layers: []registry.LayerDescriptor{
			{
				Mode:        registry.ModeWMS,
				Protocol:    "https",
				Servers:     []string{"openwms.example.com"},
				URLTemplate: "skwms1/wms.kartdata",
				WMS: &registry.WMSParams{
					Layers:      "topo",
					Transparent: true,
				},
			},
		},
	}

	descs, err := Layers(cfg, 0, 0, 0)
	if err != nil {
		t.Fatalf("Layers failed: %v", err)
	}

	parsed, err := url.Parse(descs[0].URL)
	if err != nil {
		t.Fatalf("produced unparsable URL %q: %v", descs[0].URL, err)
	}

	q := parsed.Query()
	if q.Get("REQUEST") != "GetMap" || q.Get("SERVICE") != "WMS" {
		t.Errorf("missing GetMap markers in %q", descs[0].URL)
	}
	if q.Get("CRS") != "EPSG:3857" {
		t.Errorf("expected EPSG:3857, got %q", q.Get("CRS"))
	}
	if q.Get("WIDTH") != "512" || q.Get("HEIGHT") != "512" {
		t.Errorf("expected 512x512, got %sx%s", q.Get("WIDTH"), q.Get("HEIGHT"))
	}
	if q.Get("LAYERS") != "topo" {
		t.Errorf("expected layer topo, got %q", q.Get("LAYERS"))
	}
	if q.Get("TRANSPARENT") != "true" {
		t.Errorf("expected TRANSPARENT=true")
	}

	bbox := strings.Split(q.Get("BBOX"), ",")
	if len(bbox) != 4 {
		t.Fatalf("malformed BBOX %q", q.Get("BBOX"))
	}
	minX, _ := strconv.ParseFloat(bbox[0], 64)
	maxX, _ := strconv.ParseFloat(bbox[2], 64)
	if math.Abs(minX+mercatorExtent) > 1 || math.Abs(maxX-mercatorExtent) > 1 {
		t.Errorf("BBOX does not span the full extent at z=0: %q", q.Get("BBOX"))
	}
}
