package handlers

import (
	"errors"
	"net/http"

	tweetssvc "github.com/ivankudzin/vidshare/internal/services/tweets"
	"github.com/ivankudzin/vidshare/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/vidshare/internal/transport/http/errors"
)

type TweetHandler struct {
	service *tweetssvc.Service
}

func NewTweetHandler(service *tweetssvc.Service) *TweetHandler {
	return &TweetHandler{service: service}
}

func (h *TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "TWEET_SERVICE_UNAVAILABLE", "tweet service is unavailable")
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req dto.CreateTweetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		writeRequestErrors(w, err)
		return
	}

	tweet, err := h.service.Create(r.Context(), identity.UserID, req.Content)
	if err != nil {
		handleTweetError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, tweetResponse(tweet))
}

func (h *TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "TWEET_SERVICE_UNAVAILABLE", "tweet service is unavailable")
		return
	}

	ownerID, ok := idParam(r, "userID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	tweets, err := h.service.ListByOwner(r.Context(), ownerID)
	if err != nil {
		handleTweetError(w, err)
		return
	}

	items := make([]dto.TweetResponse, 0, len(tweets))
	for _, tweet := range tweets {
		items = append(items, tweetResponse(tweet))
	}

	httperrors.Write(w, http.StatusOK, dto.TweetsListResponse{Items: items})
}

func (h *TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "TWEET_SERVICE_UNAVAILABLE", "tweet service is unavailable")
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	id, ok := idParam(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid tweet id")
		return
	}

	var req dto.UpdateTweetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		writeRequestErrors(w, err)
		return
	}

	tweet, err := h.service.Update(r.Context(), identity.UserID, id, req.Content)
	if err != nil {
		handleTweetError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, tweetResponse(tweet))
}

func (h *TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "TWEET_SERVICE_UNAVAILABLE", "tweet service is unavailable")
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	id, ok := idParam(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid tweet id")
		return
	}

	if err := h.service.Delete(r.Context(), identity.UserID, id); err != nil {
		handleTweetError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DeleteTweetResponse{OK: true})
}

func handleTweetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tweetssvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, tweetssvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "tweet is owned by another user")
	case errors.Is(err, tweetssvc.ErrNotFound):
		writeNotFound(w, "TWEET_NOT_FOUND", "tweet not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "tweet operation failed")
	}
}

func tweetResponse(tweet tweetssvc.Tweet) dto.TweetResponse {
	return dto.TweetResponse{
		ID:        tweet.ID,
		OwnerID:   tweet.OwnerID,
		Content:   tweet.Content,
		CreatedAt: tweet.CreatedAt,
		UpdatedAt: tweet.UpdatedAt,
	}
}
