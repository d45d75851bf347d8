package api

import (
	"net/http"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/auth"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/cm360"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/db"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/middleware"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/models"
	"go.uber.org/zap"
)

type loginRequest struct {
	Token     string `json:"token"`
	ProfileID string `json:"profileId,omitempty"`
}

type userView struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture,omitempty"`
}

type sessionView struct {
	State     auth.State `json:"state"`
	SessionID string     `json:"sessionId,omitempty"`
	ProfileID string     `json:"profileId,omitempty"`
	AccountID string     `json:"accountId,omitempty"`
	User      *userView  `json:"user,omitempty"`
}

func viewOf(sess db.Session, state auth.State) sessionView {
	if state != auth.Connected {
		return sessionView{State: auth.Disconnected}
	}
	return sessionView{
		State:     state,
		SessionID: sess.ID,
		ProfileID: sess.ProfileID,
		AccountID: sess.AccountID,
		User:      &userView{Name: sess.UserName, Email: sess.Email, Picture: sess.Picture},
	}
}

func (s *Server) sessionID(r *http.Request) string {
	return middleware.SessionID(r, s.Config.SessionCookie)
}

func (s *Server) setCookie(w http.ResponseWriter, r *http.Request, id string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.Config.SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// LoginHandler validates a bearer token and opens a session.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	prev := s.sessionID(r)
	sess, err := s.Auth.Login(r.Context(), prev, req.Token, req.ProfileID)
	if prev != "" {
		s.Workspaces.Drop(prev)
	}
	if err != nil {
		if auth.Reason(err) == "error" {
			s.logger(r).Error("login failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, auth.Message(err))
			return
		}
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorDetail{Message: auth.Message(err), Reason: auth.Reason(err)}})
		return
	}

	s.setCookie(w, r, sess.ID, int(s.Config.SessionTTL.Seconds()))
	writeJSON(w, http.StatusOK, viewOf(sess, auth.Connected))
}

// CurrentSessionHandler reports the connection state.
func (s *Server) CurrentSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, state, err := s.Auth.Current(r.Context(), s.sessionID(r))
	if err != nil {
		s.logger(r).Error("load session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "session store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess, state))
}

// LogoutHandler forgets the session and its workspace unconditionally.
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(r)
	if sess, state, err := s.Auth.Current(r.Context(), id); err == nil && state == auth.Connected {
		s.Gateway.Forget(sess.Token)
	}
	if err := s.Auth.Logout(r.Context(), id); err != nil {
		s.logger(r).Warn("logout", zap.Error(err))
	}
	if id != "" {
		s.Workspaces.Drop(id)
	}
	s.setCookie(w, r, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// scope is what a handler acting for a connected operator needs.
type scope struct {
	session db.Session
	ws      *models.Workspace
	gw      *cm360.Session
	log     *zap.Logger
}

type scopedHandler func(w http.ResponseWriter, r *http.Request, sc scope)

// scoped rejects requests without a live session and hands the handler the
// operator's workspace and gateway.
func (s *Server) scoped(h scopedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, state, err := s.Auth.Current(r.Context(), s.sessionID(r))
		if err != nil {
			s.logger(r).Error("load session", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "session store unavailable")
			return
		}
		if state != auth.Connected {
			writeError(w, http.StatusUnauthorized, "not connected to Campaign Manager 360")
			return
		}
		h(w, r, scope{
			session: sess,
			ws:      s.Workspaces.Get(sess.ID),
			gw:      s.Gateway.Session(sess.Token, sess.ProfileID, sess.AccountID),
			log:     s.logger(r),
		})
	}
}
