package mapsurface

import "social-explore-client/internal/models"

// LayerID names a graphics layer
type LayerID string

const (
	LayerActivities      LayerID = "activities"
	LayerSelf            LayerID = "self-location"
	LayerSelection       LayerID = "selection"
	LayerRoute           LayerID = "route"
	LayerActivityHeatmap LayerID = "heatmap-activities"
	LayerUsersHeatmap    LayerID = "heatmap-users"
)

const (
	heatmapOpacity         = 0.7
	activityMarkerSize     = 16
	activityHitTolerancePx = activityMarkerSize / 2
	usersHeatmapRadiusKm   = 50
)

// baseLayers are attached for the whole life of the surface
var baseLayers = []LayerID{LayerActivities, LayerSelf, LayerSelection, LayerRoute}

// Color is RGBA with alpha in [0, 1]
type Color [4]float64

// SymbolKind distinguishes point markers from lines
type SymbolKind string

const (
	SymbolMarker SymbolKind = "marker"
	SymbolLine   SymbolKind = "line"
)

// Symbol describes how a graphic is drawn
type Symbol struct {
	Kind   SymbolKind
	Color  Color
	Size   float64 // markers
	Width  float64 // lines
	Dashed bool
}

var (
	selfSymbol      = Symbol{Kind: SymbolMarker, Color: Color{0, 120, 255, 1}, Size: 12}
	selectionSymbol = Symbol{Kind: SymbolMarker, Color: Color{255, 0, 0, 0.8}, Size: 20}
	routeSymbol     = Symbol{Kind: SymbolLine, Color: Color{0, 100, 255, 0.8}, Width: 4}
	fallbackSymbol  = Symbol{Kind: SymbolLine, Color: Color{255, 100, 0, 0.8}, Width: 4, Dashed: true}

	categoryColors = map[models.Category]Color{
		models.CategorySport:     {255, 0, 0, 1},
		models.CategoryFood:      {255, 165, 0, 1},
		models.CategoryGames:     {0, 255, 0, 1},
		models.CategoryVolunteer: {0, 0, 255, 1},
		models.CategoryOther:     {128, 128, 128, 1},
	}
)

// ActivitySymbol returns the marker used for an activity of category c
func ActivitySymbol(c models.Category) Symbol {
	color, ok := categoryColors[c]
	if !ok {
		color = categoryColors[models.CategoryOther]
	}
	return Symbol{Kind: SymbolMarker, Color: color, Size: activityMarkerSize}
}

// Graphic is a point or a polyline on a layer
type Graphic struct {
	Point  *models.Coordinate
	Paths  [][][2]float64
	Symbol Symbol
	// ActivityID links an activity marker back to its activity
	ActivityID int64
	Title      string
}

// HeatPoint is one sample of a heatmap
type HeatPoint struct {
	models.Coordinate
	Intensity float64
}

// ColorStop is one gradient stop of a heatmap renderer
type ColorStop struct {
	Ratio float64
	Color Color
}

// HeatmapRenderer describes how heat points are blended
type HeatmapRenderer struct {
	ColorStops        []ColorStop
	MinPixelIntensity float64
	MaxPixelIntensity float64
}

var defaultHeatmapRenderer = HeatmapRenderer{
	ColorStops: []ColorStop{
		{Ratio: 0, Color: Color{63, 40, 102, 0}},
		{Ratio: 0.083, Color: Color{63, 40, 102, 0.8}},
		{Ratio: 0.25, Color: Color{63, 40, 102, 0.8}},
		{Ratio: 0.5, Color: Color{17, 147, 154, 0.8}},
		{Ratio: 0.75, Color: Color{77, 193, 103, 0.8}},
		{Ratio: 1, Color: Color{255, 255, 0, 0.8}},
	},
	MaxPixelIntensity: 75,
}

// Layer is a snapshot of one layer's content
type Layer struct {
	ID         LayerID
	Opacity    float64
	Graphics   []Graphic
	HeatPoints []HeatPoint
	Renderer   *HeatmapRenderer
}

func (l *Layer) clone() Layer {
	out := Layer{ID: l.ID, Opacity: l.Opacity, Renderer: l.Renderer}
	out.Graphics = append([]Graphic(nil), l.Graphics...)
	out.HeatPoints = append([]HeatPoint(nil), l.HeatPoints...)
	return out
}

func newLayer(id LayerID) *Layer {
	l := &Layer{ID: id, Opacity: 1}
	if id == LayerActivityHeatmap || id == LayerUsersHeatmap {
		l.Opacity = heatmapOpacity
		r := defaultHeatmapRenderer
		l.Renderer = &r
	}
	return l
}

func activityGraphics(activities []models.Activity) []Graphic {
	graphics := make([]Graphic, 0, len(activities))
	for _, a := range activities {
		loc := a.Location()
		graphics = append(graphics, Graphic{
			Point:      &loc,
			Symbol:     ActivitySymbol(a.Category),
			ActivityID: a.ID,
			Title:      a.Title,
		})
	}
	return graphics
}

func activityHeatPoints(activities []models.Activity) []HeatPoint {
	points := make([]HeatPoint, 0, len(activities))
	for _, a := range activities {
		if a.Latitude == 0 || a.Longitude == 0 {
			continue
		}
		points = append(points, HeatPoint{Coordinate: a.Location(), Intensity: 1})
	}
	return points
}

func userHeatPoints(users []models.NearbyUser) []HeatPoint {
	points := make([]HeatPoint, 0, len(users))
	for i := range users {
		if loc, ok := users[i].Location(); ok {
			points = append(points, HeatPoint{Coordinate: loc, Intensity: 1})
		}
	}
	return points
}
