package object

// Validation limit constants
const (
	MaxStringLength  = 1000
	MaxURLLength     = 2048
	MaxDataURLLength = 8 << 20
	MaxPointsInPath  = 10000
	MaxCoordinate    = 1000000
	MinCoordinate    = -1000000
	MaxStrokeWidth   = 1000
	MaxFontSize      = 500
	MaxColorLength   = 50

	DefaultNoteSize = 200
)

var AllowedKinds = map[Kind]bool{
	KindShape: true,
	KindText:  true,
	KindImage: true,
	KindNote:  true,
}

// ShapeKind: primitive drawn by a shape object
type ShapeKind string

const (
	ShapeRect     ShapeKind = "rect"
	ShapeCircle   ShapeKind = "circle"
	ShapeEllipse  ShapeKind = "ellipse"
	ShapeTriangle ShapeKind = "triangle"
	ShapeLine     ShapeKind = "line"
	ShapePath     ShapeKind = "path"
)

// =============================================================================
// Common Attributes
// =============================================================================

// position, size, scale and rotation
type Geometry struct {
	Left   float64 `json:"left" validate:"min=-1000000,max=1000000"`
	Top    float64 `json:"top" validate:"min=-1000000,max=1000000"`
	Width  float64 `json:"width" validate:"min=0,max=1000000"`
	Height float64 `json:"height" validate:"min=0,max=1000000"`
	ScaleX float64 `json:"scaleX" validate:"min=0,max=1000"`
	ScaleY float64 `json:"scaleY" validate:"min=0,max=1000"`
	Angle  float64 `json:"angle,omitempty" validate:"min=-360,max=360"`
}

//  common styling properties
type Style struct {
	Fill        string  `json:"fill,omitempty" validate:"omitempty,max=50"`
	Stroke      string  `json:"stroke,omitempty" validate:"omitempty,max=50"`
	StrokeWidth float64 `json:"strokeWidth,omitempty" validate:"min=0,max=1000"`
	Opacity     float64 `json:"opacity" validate:"min=0,max=1"`
}

//  single point in a path or line
type Point struct {
	X float64 `json:"x" validate:"min=-1000000,max=1000000"`
	Y float64 `json:"y" validate:"min=-1000000,max=1000000"`
}

// =============================================================================
// Payloads
// =============================================================================

type ShapeData struct {
	Shape  ShapeKind `json:"shape" validate:"required,oneof=rect circle ellipse triangle line path"`
	Radius float64   `json:"radius,omitempty" validate:"min=0,max=1000000"`
	Points []Point   `json:"points,omitempty" validate:"omitempty,max=10000,dive"`
}

type TextData struct {
	Text       string  `json:"text" validate:"required,max=1000"`
	FontSize   float64 `json:"fontSize,omitempty" validate:"omitempty,min=1,max=500"`
	FontFamily string  `json:"fontFamily,omitempty" validate:"omitempty,max=100"`
	Bold       bool    `json:"bold,omitempty"`
	Italic     bool    `json:"italic,omitempty"`
	Underline  bool    `json:"underline,omitempty"`
}

type ImageData struct {
	Src    string `json:"src" validate:"required"`
	Prompt string `json:"prompt,omitempty" validate:"omitempty,max=1000"`
}

// sticky note
type NoteData struct {
	Text  string `json:"text" validate:"max=1000"`
	Color string `json:"color,omitempty" validate:"omitempty,max=50"`
}
