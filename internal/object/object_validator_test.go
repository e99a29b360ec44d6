package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_SanitizesText(t *testing.T) {
	v := NewValidator()

	obj := NewText("<script>alert(1)</script>hello <b>world</b>", 0, 0)
	clean, err := v.ValidateAndSanitize(obj)
	require.NoError(t, err)

	assert.Equal(t, "hello world", clean.Text.Text)
	// input untouched
	assert.Contains(t, obj.Text.Text, "<script>")
}

func TestValidator_SanitizesNoteAndPrompt(t *testing.T) {
	v := NewValidator()

	note, err := v.ValidateAndSanitize(NewNote("<i>buy milk</i>", "#ffeb3b", 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "buy milk", note.Note.Text)

	img := NewImage("https://cdn.example.com/a.png", 0, 0, 10, 10)
	img.Image.Prompt = "<img src=x onerror=alert(1)>a cat"
	cleanImg, err := v.ValidateAndSanitize(img)
	require.NoError(t, err)
	assert.Equal(t, "a cat", cleanImg.Image.Prompt)
}

func TestValidator_Rejects(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name   string
		mutate func(*Object)
		msg    string
	}{
		{
			name:   "coordinate out of range",
			mutate: func(o *Object) { o.Geometry.Left = MaxCoordinate * 2 },
			msg:    "out of allowed range",
		},
		{
			name:   "opacity above one",
			mutate: func(o *Object) { o.Style.Opacity = 1.5 },
			msg:    "out of allowed range",
		},
		{
			name:   "unknown shape",
			mutate: func(o *Object) { o.Shape.Shape = "star" },
			msg:    "must be one of",
		},
		{
			name:   "missing id",
			mutate: func(o *Object) { o.ID = "" },
			msg:    "is required",
		},
		{
			name:   "payload mismatch",
			mutate: func(o *Object) { o.Kind = KindText },
			msg:    "does not match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := NewShape(ShapeRect, 0, 0, 10, 10)
			tt.mutate(obj)

			_, err := v.ValidateAndSanitize(obj)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestValidator_NilObject(t *testing.T) {
	_, err := NewValidator().ValidateAndSanitize(nil)
	assert.Error(t, err)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("<b>abc</b>"))
}
