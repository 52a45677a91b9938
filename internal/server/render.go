package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"codeberg.org/pixsplit/pixsplit/configs"
	"codeberg.org/pixsplit/pixsplit/pkg/img"
	"codeberg.org/pixsplit/pixsplit/pkg/parallel"
)

// Message is used by the server's Message() method.
type Message struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Render converts any value to JSON and sends the response.
func (s *Server) Render(w http.ResponseWriter, r *http.Request, status int, value interface{}) {
	b := &bytes.Buffer{}
	enc := json.NewEncoder(b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		s.Log(r).WithError(err).Error()
		http.Error(w, http.StatusText(500), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if status >= 100 {
		w.WriteHeader(status)
	}
	w.Write(b.Bytes())
}

// Message sends a JSON formatted message response.
func (s *Server) Message(w http.ResponseWriter, r *http.Request, message *Message) {
	s.Render(w, r, message.Status, message)

	// Log errors only in dev mode
	if message.Status >= 400 && configs.Config.Main.DevMode {
		s.Log(r).WithField("message", message).Warn(message.Message)
	}
}

// TextMessage sends a JSON formatted message response with a status and a message.
func (s *Server) TextMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.Message(w, r, &Message{
		Status:  status,
		Message: msg,
	})
}

// Error sends an error response. Request and image errors are sent
// back to the client, anything else is logged and sent as an HTTP 500.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	var decodeErr *img.DecodeError
	switch {
	case errors.Is(err, parallel.ErrInvalidArgument):
		s.TextMessage(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrBodyTooLarge):
		s.TextMessage(w, r, http.StatusRequestEntityTooLarge, err.Error())
	case errors.As(err, &decodeErr):
		s.TextMessage(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		s.Log(r).WithError(err).Error("server error")
		s.TextMessage(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}
