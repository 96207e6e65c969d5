package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/roach88/shareserver/internal/envelope"
	"github.com/roach88/shareserver/internal/rpc"
	"github.com/roach88/shareserver/internal/session"
)

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess := s.resolveSession(r)
	if !s.limiter.allow(rateLimitKey(r, sess), time.Now()) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	codec := envelope.ForContentType(r.Header.Get("Content-Type"))

	r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "read request body", http.StatusBadRequest)
		return
	}

	p, err := codec.DecodeParams(body)
	if err != nil {
		s.logger.Debug("undecodable request body", "error", err)
		s.writeEnvelope(w, codec, envelope.NewFailureResult("malformed request body", envelope.CodeParameter, err))
		return
	}

	call := rpc.NewCall(r.PathValue("service"), r.PathValue("procedure"), sess, p)
	s.writeEnvelope(w, codec, s.dispatcher.Dispatch(r.Context(), call))
}

func (s *Server) writeEnvelope(w http.ResponseWriter, codec envelope.Codec, env envelope.Envelope) {
	data, err := codec.Encode(env)
	if err != nil {
		// Payloads that cannot be encoded still yield an envelope.
		s.logger.Error("encode envelope", "error", err)
		data, err = codec.Encode(envelope.NewFailureResult("internal error", envelope.CodeUnknown, err))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", codec.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			status, code = "unavailable", http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", envelope.ContentTypeJSON)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// resolveSession maps the bearer token to a session. Missing or unknown
// tokens yield the anonymous session.
func (s *Server) resolveSession(r *http.Request) session.Session {
	token := bearerToken(r)
	if token == "" || s.sessions == nil {
		return session.Anonymous()
	}
	if resolved, ok := s.sessions.Resolve(token); ok {
		return resolved
	}
	return session.Anonymous()
}

func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) > len("bearer ") && strings.EqualFold(auth[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	return ""
}
