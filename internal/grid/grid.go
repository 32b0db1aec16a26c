package grid

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	geojson "github.com/paulmach/go.geojson"
	"github.com/twpayne/go-geos"

	"winddash/internal/logger"
)

//go:embed data/grid.geojson
var embeddedGrid []byte

// NoName is used for cells without a place name
const NoName = "No name"

var (
	// ErrCellNotFound is returned when no grid cell matches an id or a point
	ErrCellNotFound = errors.New("grid cell not found")
	// ErrInvalidGrid is returned when the grid GeoJSON cannot be used
	ErrInvalidGrid = errors.New("invalid grid")
)

// Cell is one 10 km grid tile
type Cell struct {
	ID        string            `json:"cell_id"`
	Name      string            `json:"name"`
	Longitude float64           `json:"longitude"`
	Latitude  float64           `json:"latitude"`
	Geometry  *geojson.Geometry `json:"-"`
}

// Grid holds the cells of the 10 km grid with their polygons
type Grid struct {
	cells []Cell
	byID  map[string]int
	geoms []*geos.Geom
}

// Parse builds a grid from a GeoJSON FeatureCollection of cell polygons
func Parse(data []byte) (*Grid, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGrid, err)
	}

	g := &Grid{byID: make(map[string]int, len(fc.Features))}
	for i, f := range fc.Features {
		id, err := f.PropertyString("KN10kmDK")
		if err != nil || id == "" {
			return nil, fmt.Errorf("%w: feature %d has no KN10kmDK id", ErrInvalidGrid, i)
		}
		if f.Geometry == nil {
			return nil, fmt.Errorf("%w: cell %s has no geometry", ErrInvalidGrid, id)
		}
		wkt, err := toWKT(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("%w: cell %s: %v", ErrInvalidGrid, id, err)
		}
		geom, err := geos.NewGeomFromWKT(wkt)
		if err != nil {
			return nil, fmt.Errorf("%w: cell %s: %v", ErrInvalidGrid, id, err)
		}

		name := f.PropertyMustString("Stednavn", "")
		if name == "" {
			name = NoName
		}
		lon, lonErr := f.PropertyFloat64("cent_lon")
		lat, latErr := f.PropertyFloat64("cent_lat")
		if lonErr != nil || latErr != nil {
			centroid := geom.Centroid()
			lon, lat = centroid.X(), centroid.Y()
		}

		if _, dup := g.byID[id]; dup {
			return nil, fmt.Errorf("%w: duplicate cell %s", ErrInvalidGrid, id)
		}
		g.byID[id] = len(g.cells)
		g.cells = append(g.cells, Cell{ID: id, Name: name, Longitude: lon, Latitude: lat, Geometry: f.Geometry})
		g.geoms = append(g.geoms, geom)
	}
	return g, nil
}

// Embedded returns the grid shipped with the binary
func Embedded() (*Grid, error) {
	return Parse(embeddedGrid)
}

// Cell looks a cell up by id
func (g *Grid) Cell(id string) (Cell, error) {
	i, ok := g.byID[id]
	if !ok {
		return Cell{}, fmt.Errorf("%w: %q", ErrCellNotFound, id)
	}
	return g.cells[i], nil
}

// Locate returns the cell containing the point. Points on a shared edge resolve
// to the cell with the lowest id.
func (g *Grid) Locate(lon, lat float64) (Cell, error) {
	point, err := geos.NewGeomFromWKT(fmt.Sprintf("POINT(%s %s)",
		strconv.FormatFloat(lon, 'f', -1, 64), strconv.FormatFloat(lat, 'f', -1, 64)))
	if err != nil {
		return Cell{}, err
	}
	for _, i := range g.order() {
		if g.geoms[i].Intersects(point) {
			return g.cells[i], nil
		}
	}
	return Cell{}, fmt.Errorf("%w: no cell at (%v, %v)", ErrCellNotFound, lon, lat)
}

// Cells returns every cell sorted by id
func (g *Grid) Cells() []Cell {
	out := make([]Cell, 0, len(g.cells))
	for _, i := range g.order() {
		out = append(out, g.cells[i])
	}
	return out
}

// FeatureCollection returns the grid as GeoJSON for the map layer
func (g *Grid) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range g.Cells() {
		f := geojson.NewFeature(c.Geometry)
		f.SetProperty("KN10kmDK", c.ID)
		f.SetProperty("Stednavn", c.Name)
		f.SetProperty("cent_lon", c.Longitude)
		f.SetProperty("cent_lat", c.Latitude)
		fc.AddFeature(f)
	}
	return fc
}

func (g *Grid) order() []int {
	idx := make([]int, len(g.cells))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return g.cells[idx[a]].ID < g.cells[idx[b]].ID })
	return idx
}

func toWKT(geom *geojson.Geometry) (string, error) {
	switch {
	case geom.IsPolygon():
		return "POLYGON" + polygonWKT(geom.Polygon), nil
	case geom.IsMultiPolygon():
		parts := make([]string, len(geom.MultiPolygon))
		for i, p := range geom.MultiPolygon {
			parts[i] = polygonWKT(p)
		}
		return "MULTIPOLYGON(" + strings.Join(parts, ",") + ")", nil
	default:
		return "", fmt.Errorf("unsupported geometry type %s", geom.Type)
	}
}

func polygonWKT(rings [][][]float64) string {
	parts := make([]string, len(rings))
	for i, ring := range rings {
		coords := make([]string, len(ring))
		for j, pt := range ring {
			coords[j] = strconv.FormatFloat(pt[0], 'f', -1, 64) + " " + strconv.FormatFloat(pt[1], 'f', -1, 64)
		}
		parts[i] = "(" + strings.Join(coords, ",") + ")"
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Loader loads the grid once, from a URL when one is configured and from the
// embedded copy otherwise
type Loader struct {
	url    string
	client *resty.Client

	once sync.Once
	grid *Grid
	err  error
}

// NewLoader creates a loader for gridURL; an empty URL selects the embedded grid
func NewLoader(gridURL string, client *resty.Client) *Loader {
	if client == nil {
		client = resty.New()
	}
	return &Loader{url: gridURL, client: client}
}

// Get returns the grid, loading it on first use. A failed load is not retried.
func (l *Loader) Get(ctx context.Context) (*Grid, error) {
	l.once.Do(func() {
		l.grid, l.err = l.load(ctx)
	})
	return l.grid, l.err
}

func (l *Loader) load(ctx context.Context) (*Grid, error) {
	log := logger.Component("grid")
	if l.url == "" {
		log.Info("using embedded grid")
		return Embedded()
	}

	log.Info("downloading grid", logger.Fields{"url": l.url})
	resp, err := l.client.R().SetContext(ctx).Get(l.url)
	if err != nil {
		return nil, fmt.Errorf("failed to download grid: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("grid download returned status %d", resp.StatusCode())
	}
	g, err := Parse(resp.Body())
	if err != nil {
		return nil, err
	}
	log.Info("grid loaded", logger.Fields{"cells": len(g.cells)})
	return g, nil
}
