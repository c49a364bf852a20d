package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/kyiku/arith-quiz-back/internal/middleware"
	"github.com/kyiku/arith-quiz-back/internal/model"
	"github.com/kyiku/arith-quiz-back/internal/quiz"
	"github.com/kyiku/arith-quiz-back/internal/response"
	wsmsg "github.com/kyiku/arith-quiz-back/internal/websocket"
)

var errRateLimited = errors.New("answer rate limit exceeded")

// AnswerLimiter limits answer submissions per client key.
type AnswerLimiter interface {
	Allow(key string) bool
}

// WebSocketHandler handles WebSocket connections.
type WebSocketHandler struct {
	store    SessionStoreInterface
	quiz     *QuizHandler
	limiter  AnswerLimiter
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(store SessionStoreInterface, q *QuizHandler, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		store: store,
		quiz:  q,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.AllowedOrigin(origin, allowedOrigins)
			},
		},
	}
}

// SetAnswerLimiter limits "answer" messages with the same keys as the HTTP
// answer route.
func (h *WebSocketHandler) SetAnswerLimiter(l AnswerLimiter) {
	h.limiter = l
}

// ValidateSession returns the player for the request's session cookie.
func (h *WebSocketHandler) ValidateSession(c echo.Context) (*model.Player, error) {
	cookie, err := c.Cookie(middleware.SessionCookieName)
	if err != nil || cookie == nil {
		return nil, errors.New("no session cookie")
	}

	player, ok := h.store.Get(cookie.Value)
	if !ok {
		return nil, errors.New("invalid session")
	}

	return player, nil
}

// Connect upgrades the request and serves the player's socket until it closes.
// A newer connection for the same player replaces the older one.
func (h *WebSocketHandler) Connect(c echo.Context) error {
	player, err := h.ValidateSession(c)
	if err != nil {
		return response.SessionNotFound(c)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.quiz.logger.Warn().Err(err).Str("player", player.ID).Msg("websocket upgrade failed")
		return nil
	}

	if prev := player.SetConn(conn); prev != nil {
		_ = prev.Close()
	}
	h.quiz.logger.Info().Str("player", player.ID).Msg("websocket connected")

	defer func() {
		player.ClearConn(conn)
		_ = conn.Close()
		h.quiz.logger.Info().Str("player", player.ID).Msg("websocket disconnected")
	}()

	if err := h.quiz.SendState(player); err != nil {
		return nil
	}

	dispatcher := h.newDispatcher(player)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil
		}
		if err := dispatcher.Dispatch(data); err != nil {
			h.sendError(player, err)
		}
	}
}

func (h *WebSocketHandler) newDispatcher(player *model.Player) *wsmsg.Dispatcher {
	d := wsmsg.NewDispatcher(player)
	d.On(wsmsg.TypeAnswer, func(msg wsmsg.ClientMessage) error {
		if h.limiter != nil && !h.limiter.Allow(middleware.SessionKey(player.SessionID)) {
			return errRateLimited
		}
		_, err := h.quiz.Submit(player, msg.Answer)
		return err
	})
	d.On(wsmsg.TypeAdvance, func(wsmsg.ClientMessage) error {
		_, err := h.quiz.AdvanceRound(player)
		return err
	})
	d.On(wsmsg.TypeState, func(wsmsg.ClientMessage) error {
		return h.quiz.SendState(player)
	})
	return d
}

func (h *WebSocketHandler) sendError(player *model.Player, err error) {
	code := response.CodeInvalidRequest
	message := "メッセージを処理できませんでした"
	switch {
	case errors.Is(err, quiz.ErrInvalidPhase):
		code = response.CodeInvalidPhase
		message = "現在の状態ではこの操作はできません"
	case errors.Is(err, errRateLimited):
		code = response.CodeRateLimited
		message = "リクエストが多すぎます。しばらく待ってから再試行してください。"
	}
	_ = player.Send(map[string]interface{}{
		"type":    "error",
		"code":    code,
		"message": message,
		"phase":   player.Snapshot().Phase,
	})
}
