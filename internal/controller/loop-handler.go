package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sharetube/looper/internal/service/loop"
	"github.com/sharetube/looper/pkg/rest"
	"github.com/sharetube/looper/pkg/ytid"
)

func (c controller) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, loop.ErrLoopNotFound):
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "loop not found"})
	case errors.Is(err, loop.ErrInvalidLoop):
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
	default:
		c.logger.ErrorContext(r.Context(), "loop service failed", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal server error"})
	}
}

func (c controller) loopParams(r *http.Request) *loop.LoopParams {
	return &loop.LoopParams{
		UserID: c.getUserIDFromCtx(r.Context()),
		LoopID: chi.URLParam(r, "loop-id"),
	}
}

type createLoopRequest struct {
	Video       string `json:"video" validate:"required,ytid"`
	StartTime   int    `json:"start_time" validate:"gte=0"`
	EndTime     *int   `json:"end_time" validate:"omitempty,gte=0"`
	Title       string `json:"title" validate:"max=200"`
	Description string `json:"description" validate:"max=5000"`
	IsPublic    bool   `json:"is_public"`
}

func (c controller) createLoop(w http.ResponseWriter, r *http.Request) {
	var req createLoopRequest

	if err := rest.ReadJSON(r, &req); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		c.logger.DebugContext(r.Context(), "validation failed", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	l, err := c.loopService.CreateLoop(r.Context(), &loop.CreateLoopParams{
		UserID:      c.getUserIDFromCtx(r.Context()),
		Video:       req.Video,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Title:       req.Title,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": l})
}

func (c controller) listLoops(w http.ResponseWriter, r *http.Request) {
	loops, err := c.loopService.ListLoops(r.Context(), c.getUserIDFromCtx(r.Context()))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": loops})
}

func (c controller) listTrash(w http.ResponseWriter, r *http.Request) {
	loops, err := c.loopService.ListTrash(r.Context(), c.getUserIDFromCtx(r.Context()))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": loops})
}

func (c controller) getLoop(w http.ResponseWriter, r *http.Request) {
	l, err := c.loopService.GetLoop(r.Context(), c.loopParams(r))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": l})
}

func (c controller) deleteLoop(w http.ResponseWriter, r *http.Request) {
	if err := c.loopService.DeleteLoop(r.Context(), c.loopParams(r)); err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c controller) restoreLoop(w http.ResponseWriter, r *http.Request) {
	l, err := c.loopService.RestoreLoop(r.Context(), c.loopParams(r))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": l})
}

func (c controller) purgeLoop(w http.ResponseWriter, r *http.Request) {
	if err := c.loopService.PurgeLoop(r.Context(), c.loopParams(r)); err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c controller) playLoop(w http.ResponseWriter, r *http.Request) {
	l, err := c.loopService.PlayLoop(r.Context(), c.loopParams(r))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": l})
}

type resolveResponse struct {
	VideoID string `json:"video_id"`
}

func (c controller) resolve(w http.ResponseWriter, r *http.Request) {
	videoID, err := ytid.Resolve(r.URL.Query().Get("input"))
	if err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": resolveResponse{VideoID: videoID}})
}
