package actions

import (
	"context"
	"fmt"

	"canvas/internal/generation"
	"canvas/internal/object"
)

// GenerateVariation sends the first selected image to the generator and places each
// result to the right of it, as one history entry. On any failure the scene is untouched.
func (a *Actions) GenerateVariation(ctx context.Context, prompt string, outputs int) ([]*object.Object, error) {
	images := a.scene.SelectedImages()
	if len(images) == 0 {
		return nil, ErrNoImageSelected
	}
	if a.gen == nil {
		return nil, generation.ErrDisabled
	}

	src := images[0]
	outputs = clampOutputs(outputs)

	resp, err := a.gen.Generate(ctx, generation.Request{
		Image:   src.ImageURL(),
		Outputs: outputs,
		Prompt:  prompt,
	})
	if err != nil {
		a.log.Error("Actions", "Generate variation failed", map[string]interface{}{
			"error":  err,
			"source": src.ID,
		})
		return nil, err
	}

	left, top, width, _ := src.Bounds()
	objs := make([]*object.Object, 0, len(resp.Multiplies))
	for _, v := range resp.Multiplies {
		slot := len(objs) + 1
		obj := object.NewImage(v.URL, left+float64(slot)*(width+VariationGap), top, src.Geometry.Width, src.Geometry.Height)
		obj.Geometry.ScaleX = src.Geometry.ScaleX
		obj.Geometry.ScaleY = src.Geometry.ScaleY
		obj.Image.Prompt = v.Prompt
		obj.UserID = src.UserID
		if err := obj.Validate(); err != nil {
			a.log.Warn("Actions", "Dropping unusable variation", map[string]interface{}{
				"error":  err,
				"source": src.ID,
			})
			continue
		}
		objs = append(objs, obj)
	}
	if len(objs) == 0 {
		err := fmt.Errorf("%w: no usable image URL", generation.ErrEmptyResult)
		a.log.Error("Actions", "Generate variation failed", map[string]interface{}{
			"error":  err,
			"source": src.ID,
		})
		return nil, err
	}

	if err := a.history.Batch(func() error { return a.scene.Add(objs...) }); err != nil {
		a.log.Error("Actions", "Failed to insert variations", map[string]interface{}{"error": err})
		return nil, err
	}

	a.log.Info("Actions", "Inserted variations", map[string]interface{}{
		"source": src.ID,
		"count":  len(objs),
	})
	return objs, nil
}

// GenerateVariationAsync runs GenerateVariation off the caller's goroutine
func (a *Actions) GenerateVariationAsync(ctx context.Context, prompt string, outputs int, done func([]*object.Object, error)) {
	go func() {
		objs, err := a.GenerateVariation(ctx, prompt, outputs)
		if done != nil {
			done(objs, err)
		}
	}()
}

func clampOutputs(n int) int {
	switch {
	case n < 1:
		return 1
	case n > MaxOutputs:
		return MaxOutputs
	}
	return n
}
