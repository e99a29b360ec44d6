package handlers

import (
	"context"
	"fmt"
	"time"

	"canvas/internal/actions"
	"canvas/internal/logger"
	"canvas/internal/object"
	"canvas/internal/room"
	"canvas/internal/user"
)

const (
	exportTimeout    = 30 * time.Second
	variationTimeout = 2 * time.Minute
)

// EditorHandler: selection, history and composed actions
type EditorHandler struct {
	broadcaster  Broadcaster
	synchronizer Synchronizer
	log          logger.ILogger
}

func NewEditorHandler(broadcaster Broadcaster, synchronizer Synchronizer, log logger.ILogger) *EditorHandler {
	return &EditorHandler{
		broadcaster:  broadcaster,
		synchronizer: synchronizer,
		log:          log,
	}
}

// HandleSelect: select messages carry the full new selection as objectIds
func (h *EditorHandler) HandleSelect(rm *room.Room, u *user.User, data map[string]interface{}) error {
	raw, _ := data["objectIds"].([]interface{})
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		id, ok := v.(string)
		if !ok {
			return fmt.Errorf("invalid object id in selection")
		}
		ids = append(ids, id)
	}

	if err := rm.Editor.Scene.Select(ids...); err != nil {
		return err
	}
	return h.broadcastSelection(rm, u)
}

// HandleUndo and HandleRedo resync the whole room: a restore replaces every object
func (h *EditorHandler) HandleUndo(rm *room.Room, u *user.User) error {
	if err := rm.Editor.History.Undo(); err != nil {
		return replyError(u, "undo", err)
	}
	return h.synchronizer.SyncAll(rm)
}

func (h *EditorHandler) HandleRedo(rm *room.Room, u *user.User) error {
	if err := rm.Editor.History.Redo(); err != nil {
		return replyError(u, "redo", err)
	}
	return h.synchronizer.SyncAll(rm)
}

func (h *EditorHandler) HandleDuplicate(rm *room.Room, u *user.User) error {
	clones, err := rm.Editor.Actions.Duplicate()
	if err != nil {
		return replyError(u, "duplicate", err)
	}
	if len(clones) == 0 {
		return nil
	}
	return h.synchronizer.SyncAll(rm)
}

// HandleExport replies with the exported files as data URLs
func (h *EditorHandler) HandleExport(ctx context.Context, rm *room.Room, u *user.User) error {
	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()

	artifacts, err := rm.Editor.Actions.Export(ctx)
	if err != nil {
		return replyError(u, "export", err)
	}

	files := make([]map[string]interface{}, 0, len(artifacts))
	for _, art := range artifacts {
		files = append(files, map[string]interface{}{
			"name":        art.Name,
			"contentType": art.ContentType,
			"data":        art.DataURL(),
		})
	}

	return reply(u, map[string]interface{}{
		"type":  "export",
		"files": files,
	})
}

// HandleGenerateVariation runs in the background; the read loop keeps serving the user
// while the generation service works. The result reaches everyone as a room sync.
func (h *EditorHandler) HandleGenerateVariation(ctx context.Context, rm *room.Room, u *user.User, data map[string]interface{}) error {
	if len(rm.Editor.Scene.SelectedImages()) == 0 {
		return replyError(u, "generateVariation", actions.ErrNoImageSelected)
	}

	prompt, _ := data["prompt"].(string)
	prompt = object.SanitizeString(prompt)
	outputs := 1
	if n, ok := data["outputs"].(float64); ok {
		outputs = int(n)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), variationTimeout)
	rm.Editor.Actions.GenerateVariationAsync(ctx, prompt, outputs, func(objs []*object.Object, err error) {
		defer cancel()

		if err != nil {
			if sendErr := sendError(u, "generateVariation", err); sendErr != nil {
				h.log.Warn("EditorHandler", "Failed to report variation error", map[string]interface{}{
					"user_id": u.ID,
					"error":   sendErr.Error(),
				})
			}
			return
		}

		if err := h.synchronizer.SyncAll(rm); err != nil {
			h.log.Error("EditorHandler", "Failed to sync variations", map[string]interface{}{"error": err})
		}
	})

	return reply(u, map[string]interface{}{
		"type":    "generationStarted",
		"outputs": outputs,
	})
}

func (h *EditorHandler) broadcastSelection(rm *room.Room, u *user.User) error {
	selected := rm.Editor.Scene.Selected()
	ids := make([]string, 0, len(selected))
	images := make([]string, 0)
	for _, obj := range selected {
		ids = append(ids, obj.ID)
		if obj.IsImage() {
			images = append(images, obj.ImageURL())
		}
	}

	if err := broadcast(h.broadcaster, rm, map[string]interface{}{
		"type":           "selection",
		"objectIds":      ids,
		"selectedImages": images,
		"userId":         u.ID,
	}, nil); err != nil {
		return err
	}
	return h.synchronizer.HistoryState(rm)
}
