package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/prontoville/crust/internal/config"
	"github.com/prontoville/crust/internal/memory"
	"github.com/prontoville/crust/internal/observability"
	"github.com/prontoville/crust/internal/protocol"
)

// ChatService is the turn-handling surface the API exposes.
type ChatService interface {
	EnsureSession(ctx context.Context, token string) error
	Associate(ctx context.Context, token, identity string) error
	HandleTurn(ctx context.Context, token, message string) (string, error)
	History(ctx context.Context, token string) ([]memory.Turn, error)
}

type Server struct {
	cfg      config.Config
	chat     ChatService
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, chat ChatService, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		chat:    chat,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin unless explicitly opened up. Non-browser clients
				// omit Origin and are allowed.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat/session", s.handleCreateSession)
	r.Post("/v1/chat/session/{token}/associate", s.handleAssociate)
	r.Post("/v1/chat/message", s.handleMessage)
	r.Get("/v1/chat/history", s.handleHistory)
	r.Get("/v1/chat/ws", s.handleChatWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

type createSessionRequest struct {
	SessionToken string `json:"session_token"`
	Identity     string `json:"identity"`
}

type createSessionResponse struct {
	SessionToken string `json:"session_token"`
	CreatedAt    string `json:"created_at"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	token := strings.TrimSpace(req.SessionToken)
	if token == "" {
		token = uuid.NewString()
	}
	if err := s.chat.EnsureSession(r.Context(), token); err != nil {
		respondError(w, http.StatusInternalServerError, "session_error", err.Error())
		return
	}
	if identity := strings.TrimSpace(req.Identity); identity != "" {
		if err := s.chat.Associate(r.Context(), token, identity); err != nil {
			respondError(w, http.StatusInternalServerError, "associate_error", err.Error())
			return
		}
	}
	s.metrics.SessionEvents.WithLabelValues("created").Inc()

	respondJSON(w, http.StatusCreated, createSessionResponse{
		SessionToken: token,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	})
}

type associateRequest struct {
	Identity string `json:"identity"`
}

func (s *Server) handleAssociate(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(chi.URLParam(r, "token"))
	if token == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_token", "missing session token")
		return
	}

	var req associateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Identity) == "" {
		respondError(w, http.StatusBadRequest, "invalid_identity", "identity is required")
		return
	}

	if err := s.chat.Associate(r.Context(), token, strings.TrimSpace(req.Identity)); err != nil {
		respondError(w, http.StatusInternalServerError, "associate_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "associated"})
}

type messageRequest struct {
	SessionToken string `json:"session_token"`
	Message      string `json:"message"`
}

type messageResponse struct {
	SessionToken string `json:"session_token"`
	Reply        string `json:"reply"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	token := strings.TrimSpace(req.SessionToken)
	message := strings.TrimSpace(req.Message)
	if token == "" || message == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "session_token and message are required")
		return
	}

	reply, err := s.chat.HandleTurn(r.Context(), token, message)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "turn_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{SessionToken: token, Reply: reply})
}

type historyResponse struct {
	SessionToken string        `json:"session_token"`
	Turns        []memory.Turn `json:"turns"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("session_token"))
	if token == "" {
		respondError(w, http.StatusBadRequest, "missing_session_token", "query parameter session_token is required")
		return
	}

	turns, err := s.chat.History(r.Context(), token)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "history_error", err.Error())
		return
	}
	if turns == nil {
		turns = []memory.Turn{}
	}
	respondJSON(w, http.StatusOK, historyResponse{SessionToken: token, Turns: turns})
}

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("session_token"))
	if token == "" {
		respondError(w, http.StatusBadRequest, "missing_session_token", "query parameter session_token is required")
		return
	}
	if err := s.chat.EnsureSession(r.Context(), token); err != nil {
		respondError(w, http.StatusInternalServerError, "session_error", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	outbound := make(chan any, 64)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
				if t, ok := messageTypeOf(msg); ok {
					s.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
				}
			}
		}
	}()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			s.sendWS(ctx, outbound, protocol.ErrorEvent{
				Type:         protocol.TypeErrorEvent,
				SessionToken: token,
				Code:         "invalid_client_message",
				Retryable:    false,
				Detail:       err.Error(),
			})
			continue
		}
		if t, ok := messageTypeOf(parsed); ok {
			s.metrics.WSMessages.WithLabelValues("inbound", string(t)).Inc()
		}

		switch msg := parsed.(type) {
		case protocol.ClientMessage:
			reply, err := s.chat.HandleTurn(ctx, token, msg.Text)
			if err != nil {
				s.sendWS(ctx, outbound, protocol.ErrorEvent{
					Type:         protocol.TypeErrorEvent,
					SessionToken: token,
					Code:         "turn_error",
					Retryable:    true,
					Detail:       err.Error(),
				})
				continue
			}
			s.sendWS(ctx, outbound, protocol.AssistantReply{
				Type:         protocol.TypeAssistantReply,
				SessionToken: token,
				Text:         reply,
				TSMs:         time.Now().UnixMilli(),
			})
		case protocol.ClientControl:
			s.handleWSControl(ctx, token, msg, outbound)
		}
	}

	cancel()
	close(outbound)
	<-writerDone
	s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()
}

func (s *Server) handleWSControl(ctx context.Context, token string, msg protocol.ClientControl, outbound chan<- any) {
	switch msg.Action {
	case "associate":
		if err := s.chat.Associate(ctx, token, msg.Identity); err != nil {
			s.sendWS(ctx, outbound, protocol.ErrorEvent{
				Type:         protocol.TypeErrorEvent,
				SessionToken: token,
				Code:         "associate_error",
				Retryable:    true,
				Detail:       err.Error(),
			})
			return
		}
		s.sendWS(ctx, outbound, protocol.SystemEvent{
			Type:         protocol.TypeSystemEvent,
			SessionToken: token,
			Code:         "associated",
		})
	case "ping":
		s.sendWS(ctx, outbound, protocol.SystemEvent{
			Type:         protocol.TypeSystemEvent,
			SessionToken: token,
			Code:         "pong",
		})
	default:
		s.sendWS(ctx, outbound, protocol.ErrorEvent{
			Type:         protocol.TypeErrorEvent,
			SessionToken: token,
			Code:         "unsupported_action",
			Retryable:    false,
			Detail:       msg.Action,
		})
	}
}

// sendWS keeps websocket writes single-threaded; drops when the outbound
// queue is saturated rather than blocking the read loop.
func (s *Server) sendWS(ctx context.Context, outbound chan<- any, msg any) {
	select {
	case <-ctx.Done():
	case outbound <- msg:
	default:
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.ClientMessage:
		return m.Type, true
	case protocol.ClientControl:
		return m.Type, true
	case protocol.AssistantReply:
		return m.Type, true
	case protocol.SystemEvent:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
