package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// userHandler is a handler that runs for an authenticated user.
type userHandler func(w http.ResponseWriter, r *http.Request, user core.User)

// requireUser resolves the bearer token to a user or answers 401.
func (s *Server) requireUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, r, core.Fail(core.ErrUnauthorized, "Authentication required", nil))
			return
		}
		user, err := s.ledger.Users.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		logger := log.FromContext(r.Context()).With(log.FieldUserID, user.ID)
		next(w, r.WithContext(log.NewContext(r.Context(), logger)), user)
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if err := core.ValidateRegistration(username, email, req.Password); err != nil {
		writeError(w, r, core.Invalid(err))
		return
	}

	session, err := s.ledger.Users.Register(r.Context(), username, email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, session)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := s.ledger.Users.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, session)
}

// handleLogout clears the device's current-user pointer. Tokens stay valid
// until they expire.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, _ core.User) {
	if err := s.ledger.Users.Logout(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeDone(w, "Logged out")
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user core.User) {
	writeData(w, http.StatusOK, user)
}
