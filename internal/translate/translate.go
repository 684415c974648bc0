package translate

import (
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"strings"

	"tileproxy/internal/registry"
)

// ErrConfig marks translation failures caused by the map configuration or the
// request coordinates rather than by any upstream server.
var ErrConfig = errors.New("map configuration error")

// FetchDescriptor is the resolved upstream request for one layer of one tile.
type FetchDescriptor struct {
	URL        string
	Headers    map[string]string
	LimiterTag string
}

// Layers resolves the upstream URL of every layer of a map for the requested
// tile, base first, overlays in drawing order.
func Layers(cfg *registry.MapConfig, z, x, y int) ([]FetchDescriptor, error) {
	if z < cfg.MinZoom || z > cfg.MaxZoom {
		return nil, fmt.Errorf("%w: zoom %d outside [%d,%d] for map %q",
			ErrConfig, z, cfg.MinZoom, cfg.MaxZoom, cfg.ID)
	}
	max := 1 << uint(z)
	if x < 0 || x >= max || y < 0 || y >= max {
		return nil, fmt.Errorf("%w: tile %d/%d out of range at zoom %d", ErrConfig, x, y, z)
	}

	descriptors := make([]FetchDescriptor, 0, len(cfg.Layers))
	for i := range cfg.Layers {
		layer := &cfg.Layers[i]

		rawURL, err := layerURL(cfg, layer, z, x, y)
		if err != nil {
			return nil, fmt.Errorf("layer %d of map %q: %w", i, cfg.ID, err)
		}

		descriptors = append(descriptors, FetchDescriptor{
			URL:        rawURL,
			Headers:    layer.Headers,
			LimiterTag: layer.LimiterTag,
		})
	}
	return descriptors, nil
}

func layerURL(cfg *registry.MapConfig, layer *registry.LayerDescriptor, z, x, y int) (string, error) {
	switch layer.Mode {
	case registry.ModeIdentity:
		return serverURL(layer, expandSlippy(layer.URLTemplate, z, x, y)), nil

	case registry.ModeTMS:
		flipped := flipY(z, y)
		path := strings.NewReplacer(
			"{z}", strconv.Itoa(z),
			"{x}", strconv.Itoa(x),
			"{y}", strconv.Itoa(flipped),
			"{y_tms}", strconv.Itoa(flipped),
		).Replace(layer.URLTemplate)
		return serverURL(layer, path), nil

	case registry.ModeWMTS:
		matrix, ok := matrixFor(layer, z)
		if !ok {
			return "", fmt.Errorf("%w: no tile matrix for zoom %d", ErrConfig, z)
		}
		path := strings.NewReplacer(
			"{tilematrix}", matrix,
			"{tilerow}", strconv.Itoa(y),
			"{tilecol}", strconv.Itoa(x),
		).Replace(layer.URLTemplate)
		return serverURL(layer, path), nil

	case registry.ModeWMS:
		return wmsURL(cfg, layer, z, x, y), nil

	case registry.ModeCustom:
		fn, ok := registry.CustomFunc(layer.CustomFunc)
		if !ok {
			return "", fmt.Errorf("%w: custom_func %q is not registered", ErrConfig, layer.CustomFunc)
		}
		rawURL, err := fn(z, x, y)
		if err != nil {
			return "", fmt.Errorf("%w: custom_func %q: %v", ErrConfig, layer.CustomFunc, err)
		}
		parsed, err := url.Parse(rawURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return "", fmt.Errorf("%w: custom_func %q produced malformed url %q", ErrConfig, layer.CustomFunc, rawURL)
		}
		return rawURL, nil

	default:
		return "", fmt.Errorf("%w: unknown translation mode %q", ErrConfig, layer.Mode)
	}
}

// flipY converts a slippy y index to its TMS counterpart (and back, since the
// flip is its own inverse).
func flipY(z, y int) int {
	return (1 << uint(z)) - 1 - y
}

func expandSlippy(template string, z, x, y int) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
	).Replace(template)
}

// serverURL joins the protocol, a randomly picked mirror and the expanded
// path the way the upstream definitions are written: protocol://server/path.
func serverURL(layer *registry.LayerDescriptor, path string) string {
	server := layer.Servers[0]
	if len(layer.Servers) > 1 {
		server = layer.Servers[rand.Intn(len(layer.Servers))]
	}
	return layer.Protocol + "://" + server + "/" + path
}

func matrixFor(layer *registry.LayerDescriptor, z int) (string, bool) {
	for _, entry := range layer.Matrices {
		if entry.Zoom == z {
			return entry.Identifier, true
		}
	}
	return "", false
}
