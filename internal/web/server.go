// Package web serves the chat page and its form handler.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ram70099/ChatBot/internal/chat"
	"github.com/ram70099/ChatBot/internal/history"
	"github.com/ram70099/ChatBot/internal/logger"
)

// SessionCookie carries the chat session id.
const SessionCookie = "chat_session"

// Server is the HTTP presentation layer over chat sessions.
type Server struct {
	sessions *chat.Manager
	title    string
}

// New returns a Server rendering pages under title.
func New(sessions *chat.Manager, title string) *Server {
	return &Server{sessions: sessions, title: title}
}

// Handler returns the routed mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":   true,
			"time": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
	return mux
}

// session resolves the caller's session, issuing a cookie for new ones.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*chat.Session, bool) {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}
	sess, err := s.sessions.Open(id)
	if err != nil {
		logger.L.Error("open session failed", "error", err)
		http.Error(w, "failed to load chat history", http.StatusInternalServerError)
		return nil, false
	}
	if sess.ID() != id {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID(),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess, true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	h := sess.History()
	data := pageData{Title: s.title, Exchanges: make([]exchangeView, 0, len(h)+1)}
	for _, e := range h {
		data.Exchanges = append(data.Exchanges, exchangeView{User: e.User, AI: e.AI})
	}
	if flash, ok := sess.TakeFlash(); ok {
		data.Exchanges = append(data.Exchanges, exchangeView{User: flash.User, AI: flash.AI, Transient: true})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		logger.L.Error("render page failed", "session", sess.ID(), "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	// A submission runs to completion even if the browser goes away.
	_, err := sess.Submit(context.WithoutCancel(r.Context()), r.PostForm.Get("message"))
	switch {
	case err == nil, errors.Is(err, chat.ErrEmptyInput):
	default:
		http.Error(w, "failed to save chat history", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Session string          `json:"session"`
		History history.History `json:"history"`
	}{sess.ID(), sess.History()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.L.Warn("write json failed", "error", err)
	}
}
