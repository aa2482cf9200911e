package handlers

import (
	"errors"
	"net/http"
	"os"

	mediasvc "github.com/ivankudzin/vidshare/internal/services/media"
	userssvc "github.com/ivankudzin/vidshare/internal/services/users"
	"github.com/ivankudzin/vidshare/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/vidshare/internal/transport/http/errors"
	"github.com/ivankudzin/vidshare/internal/transport/http/upload"
)

type UserHandler struct {
	service *userssvc.Service
	staging *upload.Staging
}

func NewUserHandler(service *userssvc.Service, staging *upload.Staging) *UserHandler {
	return &UserHandler{service: service, staging: staging}
}

// Register accepts a multipart form: username, email, fullname and password
// fields plus a required avatar file and an optional coverImg file. The files
// are staged locally; the service owns every staged file from the moment it
// is called and removes them on all outcomes.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.service == nil || h.staging == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	formLimit := 2*h.staging.MaxImageSize() + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, formLimit)
	if err := r.ParseMultipartForm(formLimit); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	avatarPath, err := h.staging.Image(r, "avatar")
	if err != nil {
		handleStagingError(w, err, "avatar")
		return
	}

	coverPath, err := h.staging.OptionalImage(r, "coverImg")
	if err != nil {
		removeStaged(avatarPath)
		handleStagingError(w, err, "coverImg")
		return
	}

	profile, err := h.service.Register(r.Context(), userssvc.RegisterInput{
		Username:   r.FormValue("username"),
		Email:      r.FormValue("email"),
		Fullname:   r.FormValue("fullname"),
		Password:   r.FormValue("password"),
		AvatarPath: avatarPath,
		CoverPath:  coverPath,
	})
	if err != nil {
		handleUserError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, userResponse(profile))
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	profile, err := h.service.Get(r.Context(), identity.UserID)
	if err != nil {
		handleUserError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, userResponse(profile))
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	id, ok := idParam(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	profile, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleUserError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, userResponse(profile))
}

func (h *UserHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req dto.UpdateUserDetailsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		writeRequestErrors(w, err)
		return
	}

	profile, err := h.service.UpdateDetails(r.Context(), identity.UserID, req.Fullname, req.Email)
	if err != nil {
		handleUserError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, userResponse(profile))
}

func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar")
}

func (h *UserHandler) UpdateCover(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "coverImg")
}

func (h *UserHandler) replaceImage(w http.ResponseWriter, r *http.Request, field string) {
	if h.service == nil || h.staging == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	formLimit := h.staging.MaxImageSize() + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, formLimit)
	if err := r.ParseMultipartForm(formLimit); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	path, err := h.staging.Image(r, field)
	if err != nil {
		handleStagingError(w, err, field)
		return
	}

	var profile userssvc.Profile
	if field == "coverImg" {
		profile, err = h.service.UpdateCover(r.Context(), identity.UserID, path)
	} else {
		profile, err = h.service.UpdateAvatar(r.Context(), identity.UserID, path)
	}
	if err != nil {
		handleUserError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, userResponse(profile))
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		writeRequestErrors(w, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		handleUserError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, struct {
		OK bool `json:"ok"`
	}{OK: true})
}

func handleUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, userssvc.ErrValidation), errors.Is(err, mediasvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, userssvc.ErrInvalidCredentials):
		writeUnauthorized(w, "INVALID_CREDENTIALS", "invalid credentials")
	case errors.Is(err, userssvc.ErrNotFound):
		writeNotFound(w, "USER_NOT_FOUND", "user not found")
	case errors.Is(err, userssvc.ErrConflict):
		writeConflict(w, "USER_EXISTS", "username or email already taken")
	case errors.Is(err, mediasvc.ErrUploadFailed):
		writeInternal(w, "UPLOAD_FAILED", "uploading media failed")
	case errors.Is(err, mediasvc.ErrPersistenceFailed):
		writeInternal(w, "PERSISTENCE_FAILED", "saving the record failed, uploads were rolled back")
	default:
		writeInternal(w, "INTERNAL_ERROR", "user operation failed")
	}
}

func handleStagingError(w http.ResponseWriter, err error, field string) {
	switch {
	case errors.Is(err, http.ErrMissingFile):
		writeBadRequest(w, "VALIDATION_ERROR", field+" file is required")
	case errors.Is(err, upload.ErrFileTooLarge):
		writePayloadTooLarge(w, "FILE_TOO_LARGE", field+" file exceeds the size limit")
	default:
		writeBadRequest(w, "VALIDATION_ERROR", "invalid "+field+" file")
	}
}

func removeStaged(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		_ = os.Remove(path)
	}
}

func userResponse(profile userssvc.Profile) dto.UserResponse {
	return dto.UserResponse{
		ID:        profile.ID,
		Username:  profile.Username,
		Email:     profile.Email,
		Fullname:  profile.Fullname,
		AvatarURL: profile.AvatarURL,
		CoverURL:  profile.CoverURL,
		CreatedAt: profile.CreatedAt,
	}
}
