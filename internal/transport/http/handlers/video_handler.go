package handlers

import (
	"errors"
	"net/http"

	mediasvc "github.com/ivankudzin/vidshare/internal/services/media"
	videossvc "github.com/ivankudzin/vidshare/internal/services/videos"
	"github.com/ivankudzin/vidshare/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/vidshare/internal/transport/http/errors"
	"github.com/ivankudzin/vidshare/internal/transport/http/upload"
)

type VideoHandler struct {
	service *videossvc.Service
	staging *upload.Staging
}

func NewVideoHandler(service *videossvc.Service, staging *upload.Staging) *VideoHandler {
	return &VideoHandler{service: service, staging: staging}
}

// Publish accepts a multipart form with title and description fields plus the
// video and thumbnail files, both required.
func (h *VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	if h.service == nil || h.staging == nil {
		writeInternal(w, "VIDEO_SERVICE_UNAVAILABLE", "video service is unavailable")
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	formLimit := h.staging.MaxVideoSize() + h.staging.MaxImageSize() + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, formLimit)
	if err := r.ParseMultipartForm(formLimit); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	videoPath, err := h.staging.Video(r, "video")
	if err != nil {
		handleStagingError(w, err, "video")
		return
	}

	thumbnailPath, err := h.staging.Image(r, "thumbnail")
	if err != nil {
		removeStaged(videoPath)
		handleStagingError(w, err, "thumbnail")
		return
	}

	video, err := h.service.Publish(r.Context(), identity.UserID, videossvc.PublishInput{
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		VideoPath:     videoPath,
		ThumbnailPath: thumbnailPath,
	})
	if err != nil {
		handleVideoError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, videoResponse(video))
}

func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "VIDEO_SERVICE_UNAVAILABLE", "video service is unavailable")
		return
	}

	id, ok := idParam(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid video id")
		return
	}

	video, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleVideoError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, videoResponse(video))
}

// Update takes the same multipart shape as Publish minus the video file; the
// thumbnail is optional and replaces the current one when present.
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.service == nil || h.staging == nil {
		writeInternal(w, "VIDEO_SERVICE_UNAVAILABLE", "video service is unavailable")
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	id, ok := idParam(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid video id")
		return
	}

	formLimit := h.staging.MaxImageSize() + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, formLimit)
	if err := r.ParseMultipartForm(formLimit); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	thumbnailPath, err := h.staging.OptionalImage(r, "thumbnail")
	if err != nil {
		handleStagingError(w, err, "thumbnail")
		return
	}

	video, err := h.service.Update(r.Context(), identity.UserID, id, videossvc.UpdateInput{
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		ThumbnailPath: thumbnailPath,
	})
	if err != nil {
		handleVideoError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, videoResponse(video))
}

func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "VIDEO_SERVICE_UNAVAILABLE", "video service is unavailable")
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	id, ok := idParam(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid video id")
		return
	}

	if err := h.service.Delete(r.Context(), identity.UserID, id); err != nil {
		handleVideoError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DeleteVideoResponse{OK: true})
}

func handleVideoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, videossvc.ErrValidation), errors.Is(err, mediasvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, videossvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "video is owned by another user")
	case errors.Is(err, videossvc.ErrNotFound):
		writeNotFound(w, "VIDEO_NOT_FOUND", "video not found")
	case errors.Is(err, mediasvc.ErrUploadFailed):
		writeInternal(w, "UPLOAD_FAILED", "uploading media failed")
	case errors.Is(err, mediasvc.ErrPersistenceFailed):
		writeInternal(w, "PERSISTENCE_FAILED", "saving the record failed, uploads were rolled back")
	default:
		writeInternal(w, "INTERNAL_ERROR", "video operation failed")
	}
}

func videoResponse(video videossvc.Video) dto.VideoResponse {
	return dto.VideoResponse{
		ID:           video.ID,
		OwnerID:      video.OwnerID,
		Title:        video.Title,
		Description:  video.Description,
		VideoURL:     video.VideoURL,
		ThumbnailURL: video.ThumbnailURL,
		Duration:     video.Duration,
		Views:        video.Views,
		IsPublished:  video.IsPublished,
		CreatedAt:    video.CreatedAt,
	}
}
