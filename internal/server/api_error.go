package server

import (
	"net/http"

	"github.com/go-chi/render"
)

// apiError is the JSON error shape for the request/response endpoints.
type apiError struct {
	StatusCode int    `json:"-"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

var (
	errInvalidJoinBody = &apiError{
		StatusCode: http.StatusBadRequest,
		Status:     "invalid_request",
		Message:    "body must be JSON with a non-empty room_id",
	}
	errRoomNotProvided = &apiError{
		StatusCode: http.StatusBadRequest,
		Status:     "invalid_request",
		Message:    "room query parameter is required",
	}
	errRoomNotFound = &apiError{
		StatusCode: http.StatusNotFound,
		Status:     "room_not_found",
		Message:    "check the room id and try again",
	}
	errRoomFull = &apiError{
		StatusCode: http.StatusConflict,
		Status:     "room_full",
		Message:    "the room is at capacity",
	}
)

func (e *apiError) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}
