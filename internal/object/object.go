package object

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Kind tags which payload an Object carries
type Kind string

const (
	KindShape Kind = "shape"
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindNote  Kind = "note"
)

var (
	ErrUnknownKind     = errors.New("unknown object kind")
	ErrPayloadMismatch = errors.New("object payload does not match its kind")
)

// Object: a visual element on the canvas. Exactly one payload is set, chosen by Kind.
type Object struct {
	ID       string   `json:"id" validate:"required,max=128"`
	Kind     Kind     `json:"kind" validate:"required"`
	Geometry Geometry `json:"geometry"`
	Style    Style    `json:"style"`
	UserID   string   `json:"userId,omitempty" validate:"omitempty,max=128"`

	Shape *ShapeData `json:"shape,omitempty"`
	Text  *TextData  `json:"text,omitempty"`
	Image *ImageData `json:"image,omitempty"`
	Note  *NoteData  `json:"note,omitempty"`
}

// NewShape, NewText, NewImage, NewNote build objects with default geometry
func NewShape(shape ShapeKind, left, top, width, height float64) *Object {
	return newObject(KindShape, left, top, width, height, func(o *Object) {
		o.Shape = &ShapeData{Shape: shape}
	})
}

func NewText(text string, left, top float64) *Object {
	return newObject(KindText, left, top, 0, 0, func(o *Object) {
		o.Text = &TextData{Text: text, FontSize: 24}
	})
}

func NewImage(src string, left, top, width, height float64) *Object {
	return newObject(KindImage, left, top, width, height, func(o *Object) {
		o.Image = &ImageData{Src: src}
	})
}

func NewNote(text, color string, left, top float64) *Object {
	return newObject(KindNote, left, top, DefaultNoteSize, DefaultNoteSize, func(o *Object) {
		o.Note = &NoteData{Text: text, Color: color}
	})
}

func newObject(kind Kind, left, top, width, height float64, payload func(*Object)) *Object {
	o := &Object{
		ID:   uuid.NewString(),
		Kind: kind,
		Geometry: Geometry{
			Left:   left,
			Top:    top,
			Width:  width,
			Height: height,
			ScaleX: 1,
			ScaleY: 1,
		},
		Style: Style{Opacity: 1},
	}
	payload(o)
	return o
}

// Validate: checks the variant is consistent (kind known, matching payload only)
func (o *Object) Validate() error {
	if !AllowedKinds[o.Kind] {
		return fmt.Errorf("%w: %q", ErrUnknownKind, o.Kind)
	}

	set := 0
	for _, present := range []bool{o.Shape != nil, o.Text != nil, o.Image != nil, o.Note != nil} {
		if present {
			set++
		}
	}
	if set != 1 || o.payloadKind() != o.Kind {
		return fmt.Errorf("%w: kind %q", ErrPayloadMismatch, o.Kind)
	}

	switch o.Kind {
	case KindShape:
		if (o.Shape.Shape == ShapeLine || o.Shape.Shape == ShapePath) && len(o.Shape.Points) < 2 {
			return fmt.Errorf("%s needs at least 2 points", o.Shape.Shape)
		}
	case KindImage:
		if !validImageSource(o.Image.Src) {
			return fmt.Errorf("image source must be an http(s) or data:image URL")
		}
	}
	return nil
}

func (o *Object) payloadKind() Kind {
	switch {
	case o.Shape != nil:
		return KindShape
	case o.Text != nil:
		return KindText
	case o.Image != nil:
		return KindImage
	case o.Note != nil:
		return KindNote
	}
	return ""
}

// Normalize: fills unset scale/opacity with their neutral values
func (o *Object) Normalize() {
	if o.Geometry.ScaleX == 0 {
		o.Geometry.ScaleX = 1
	}
	if o.Geometry.ScaleY == 0 {
		o.Geometry.ScaleY = 1
	}
	if o.Style.Opacity == 0 {
		o.Style.Opacity = 1
	}
}

// Copy: deep copy keeping the ID
func (o *Object) Copy() *Object {
	cp := *o
	if o.Shape != nil {
		shape := *o.Shape
		shape.Points = append([]Point(nil), o.Shape.Points...)
		cp.Shape = &shape
	}
	if o.Text != nil {
		text := *o.Text
		cp.Text = &text
	}
	if o.Image != nil {
		img := *o.Image
		cp.Image = &img
	}
	if o.Note != nil {
		note := *o.Note
		cp.Note = &note
	}
	return &cp
}

// Clone: deep copy with a fresh ID
func (o *Object) Clone() *Object {
	cp := o.Copy()
	cp.ID = uuid.NewString()
	return cp
}

// Offset: moves the object; path/line points move with it
func (o *Object) Offset(dx, dy float64) {
	o.Geometry.Left += dx
	o.Geometry.Top += dy
	if o.Shape != nil {
		for i := range o.Shape.Points {
			o.Shape.Points[i].X += dx
			o.Shape.Points[i].Y += dy
		}
	}
}

func (o *Object) IsImage() bool {
	return o.Kind == KindImage && o.Image != nil
}

// ImageURL: source URL for image objects, "" otherwise
func (o *Object) ImageURL() string {
	if !o.IsImage() {
		return ""
	}
	return o.Image.Src
}

// Bounds: on-canvas box after scaling
func (o *Object) Bounds() (left, top, width, height float64) {
	g := o.Geometry
	return g.Left, g.Top, g.Width * g.ScaleX, g.Height * g.ScaleY
}

// FromMap: decodes the untyped wire form of an object
func FromMap(data map[string]interface{}) (*Object, error) {
	obj := &Object{}
	if err := mapToStruct(data, obj); err != nil {
		return nil, err
	}
	obj.Normalize()
	return obj, nil
}

// ToMap: untyped wire form, used for broadcasts
func (o *Object) ToMap() (map[string]interface{}, error) {
	raw, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal object: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal object: %w", err)
	}
	return out, nil
}

func validImageSource(src string) bool {
	switch {
	case strings.HasPrefix(src, "data:image/"):
		return len(src) <= MaxDataURLLength
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return len(src) <= MaxURLLength
	}
	return false
}
