// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kyiku/arith-quiz-back/internal/ai"
	"github.com/kyiku/arith-quiz-back/internal/card"
	"github.com/kyiku/arith-quiz-back/internal/game"
	"github.com/kyiku/arith-quiz-back/internal/middleware"
	"github.com/kyiku/arith-quiz-back/internal/model"
	"github.com/kyiku/arith-quiz-back/internal/quiz"
	"github.com/kyiku/arith-quiz-back/internal/response"
	"github.com/kyiku/arith-quiz-back/internal/stage"
	wsmsg "github.com/kyiku/arith-quiz-back/internal/websocket"
)

// SessionStoreInterface defines the interface for session storage.
type SessionStoreInterface interface {
	Create() (*model.Player, string)
	Get(sessionID string) (*model.Player, bool)
}

// ReportArchiver stores finished reports.
type ReportArchiver interface {
	Save(playerID string, report quiz.FinalReport, finishedAt time.Time) (string, error)
}

// Commenter writes a comment on a finished report.
type Commenter interface {
	CommentOnReport(report quiz.FinalReport) (string, error)
}

// QuizHandler serves the quiz API. Every session change goes through apply,
// which re-arms the player's timers and pushes the change to its socket.
type QuizHandler struct {
	store     SessionStoreInterface
	engine    *quiz.Engine
	scheduler *game.Scheduler
	notifier  *stage.Notifier
	renderer  *card.Renderer
	archive   ReportArchiver
	coach     Commenter
	now       func() time.Time
	logger    zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(store SessionStoreInterface, engine *quiz.Engine, scheduler *game.Scheduler) *QuizHandler {
	return &QuizHandler{
		store:     store,
		engine:    engine,
		scheduler: scheduler,
		notifier:  stage.NewNotifier(engine),
		renderer:  card.NewRenderer(3),
		now:       time.Now,
		logger:    log.Logger,
	}
}

// SetArchive sets the archive finished reports are written to.
func (h *QuizHandler) SetArchive(archive ReportArchiver) {
	h.archive = archive
}

// SetCoach sets the commenter used by Report.
func (h *QuizHandler) SetCoach(coach Commenter) {
	h.coach = coach
}

// SetClock sets the clock used for engine calls.
func (h *QuizHandler) SetClock(now func() time.Time) {
	h.now = now
}

// SetLogger sets the logger.
func (h *QuizHandler) SetLogger(logger zerolog.Logger) {
	h.logger = logger
}

// StartRequest represents the start request.
type StartRequest struct {
	Mode string `json:"mode"`
}

// AnswerRequest represents the answer request. The answer may be a JSON
// string or number.
type AnswerRequest struct {
	Answer json.RawMessage `json:"answer"`
}

// Start begins a new quiz, creating a session cookie when there is none.
func (h *QuizHandler) Start(c echo.Context) error {
	var req StartRequest
	if err := c.Bind(&req); err != nil {
		return response.ErrorWithCode(c, http.StatusBadRequest, response.CodeInvalidRequest, "リクエストの解析に失敗しました")
	}

	mode, err := quiz.ParseMode(req.Mode)
	if err != nil {
		return response.ErrorWithCode(c, http.StatusBadRequest, response.CodeInvalidMode, "不明なモードです")
	}

	player, ok := h.playerFromCookie(c)
	if !ok {
		var sessionID string
		player, sessionID = h.store.Create()
		c.SetCookie(&http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    sessionID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	next, err := h.apply(player, func(s quiz.Session) (quiz.Session, error) {
		return h.engine.Start(mode), nil
	})
	if err != nil {
		return h.failure(c, player, err)
	}

	return response.Success(c, map[string]interface{}{
		"state": stage.BuildState(h.engine, next, h.now()),
	})
}

// State returns the current state snapshot, recording an expired round first.
func (h *QuizHandler) State(c echo.Context) error {
	player, ok := h.playerFromCookie(c)
	if !ok {
		return response.SessionNotFound(c)
	}

	return response.Success(c, map[string]interface{}{
		"state": stage.BuildState(h.engine, h.Refresh(player), h.now()),
	})
}

// Answer submits the player's answer for the open round.
func (h *QuizHandler) Answer(c echo.Context) error {
	player, ok := h.playerFromCookie(c)
	if !ok {
		return response.SessionNotFound(c)
	}

	var req AnswerRequest
	if err := c.Bind(&req); err != nil {
		return response.ErrorWithCode(c, http.StatusBadRequest, response.CodeInvalidRequest, "リクエストの解析に失敗しました")
	}
	answer, err := wsmsg.AnswerText(req.Answer)
	if err != nil {
		return response.ErrorWithCode(c, http.StatusBadRequest, response.CodeInvalidRequest, "回答は文字列か数値で送信してください")
	}

	next, err := h.Submit(player, answer)
	if err != nil {
		return h.failure(c, player, err)
	}

	data := map[string]interface{}{
		"state": stage.BuildState(h.engine, next, h.now()),
	}
	if last, ok := next.LastRound(); ok {
		data["result"] = stage.ResultOf(last)
	}
	return response.Success(c, data)
}

// Advance leaves the result screen.
func (h *QuizHandler) Advance(c echo.Context) error {
	player, ok := h.playerFromCookie(c)
	if !ok {
		return response.SessionNotFound(c)
	}

	next, err := h.AdvanceRound(player)
	if err != nil {
		return h.failure(c, player, err)
	}

	return response.Success(c, map[string]interface{}{
		"state": stage.BuildState(h.engine, next, h.now()),
	})
}

// Report returns the final report with a comment. The first call for a
// finished session also archives the report.
func (h *QuizHandler) Report(c echo.Context) error {
	player, ok := h.playerFromCookie(c)
	if !ok {
		return response.SessionNotFound(c)
	}

	report, err := h.engine.Report(player.Snapshot())
	if err != nil {
		return h.failure(c, player, err)
	}

	comment := ai.GradeMessage(report.Grade)
	if h.coach != nil {
		if text, err := h.coach.CommentOnReport(report); err != nil {
			h.logger.Warn().Err(err).Str("player", player.ID).Msg("coach comment failed")
		} else {
			comment = text
		}
	}

	data := map[string]interface{}{
		"report":    report,
		"comment":   comment,
		"timed_out": report.TimedOutCount(),
	}

	if h.archive != nil && player.MarkArchived() {
		key, err := h.archive.Save(player.ID, report, h.now())
		if err != nil {
			h.logger.Error().Err(err).Str("player", player.ID).Msg("failed to archive report")
		} else {
			h.logger.Info().Str("player", player.ID).Str("key", key).Msg("report archived")
			data["archive_key"] = key
		}
	}

	return response.Success(c, data)
}

// Reset discards the session and returns to mode selection.
func (h *QuizHandler) Reset(c echo.Context) error {
	player, ok := h.playerFromCookie(c)
	if !ok {
		return response.SessionNotFound(c)
	}

	next, err := h.apply(player, func(quiz.Session) (quiz.Session, error) {
		return h.engine.Reset(), nil
	})
	if err != nil {
		return h.failure(c, player, err)
	}

	return response.Success(c, map[string]interface{}{
		"state": stage.BuildState(h.engine, next, h.now()),
	})
}

// ProblemImage renders the open problem as a PNG card.
func (h *QuizHandler) ProblemImage(c echo.Context) error {
	player, ok := h.playerFromCookie(c)
	if !ok {
		return response.SessionNotFound(c)
	}

	s := h.Refresh(player)
	problem, ok := s.CurrentProblem()
	if !ok || s.Phase != quiz.PhaseAwaitingAnswer {
		return response.InvalidPhase(c, string(s.Phase))
	}

	remaining := h.engine.Remaining(s, h.now())
	fraction := float64(remaining) / float64(h.engine.Config().TimeLimit)

	barColor := card.OKBar
	switch stage.UrgencyFor(remaining) {
	case stage.UrgencyWarn:
		barColor = card.WarnBar
	case stage.UrgencyDanger:
		barColor = card.DangerBar
	}

	data, err := h.renderer.EncodePNG(problem, fraction, barColor)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to render problem card")
		return response.Error(c, http.StatusInternalServerError, "画像の生成に失敗しました")
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, "image/png", data)
}

// Submit records an answer for the player.
func (h *QuizHandler) Submit(player *model.Player, answer string) (quiz.Session, error) {
	now := h.now()
	return h.apply(player, func(s quiz.Session) (quiz.Session, error) {
		return h.engine.Submit(s, answer, now)
	})
}

// AdvanceRound moves the player from the result screen to the next round.
func (h *QuizHandler) AdvanceRound(player *model.Player) (quiz.Session, error) {
	now := h.now()
	return h.apply(player, func(s quiz.Session) (quiz.Session, error) {
		return h.engine.Advance(s, now)
	})
}

// Refresh records a timeout whose timer has not fired yet and returns the
// player's current session.
func (h *QuizHandler) Refresh(player *model.Player) quiz.Session {
	now := h.now()
	// On errUnchanged apply returns the current session.
	s, _ := h.apply(player, func(s quiz.Session) (quiz.Session, error) {
		if next, expired := h.engine.CheckTimeout(s, now); expired {
			return next, nil
		}
		return s, errUnchanged
	})
	return s
}

// Announce pushes a session change to the player's socket. It is the
// scheduler's change callback for timer-driven changes.
func (h *QuizHandler) Announce(player *model.Player, prev, next quiz.Session) {
	h.logChange(player, prev, next)
	if err := h.notifier.Announce(player, prev, next, h.now()); err != nil {
		h.logger.Warn().Err(err).Str("player", player.ID).Msg("failed to push state")
	}
}

// SendState pushes the current state to the player's socket.
func (h *QuizHandler) SendState(player *model.Player) error {
	return player.Send(stage.BuildState(h.engine, h.Refresh(player), h.now()))
}

var errUnchanged = errors.New("session unchanged")

// apply runs fn against the player's session and, on success, re-arms the
// timers and announces the change.
func (h *QuizHandler) apply(player *model.Player, fn func(quiz.Session) (quiz.Session, error)) (quiz.Session, error) {
	prev, next, err := player.Update(fn)
	if err != nil {
		return prev, err
	}

	h.scheduler.Sync(player)
	h.Announce(player, prev, next)
	return next, nil
}

func (h *QuizHandler) logChange(player *model.Player, prev, next quiz.Session) {
	event := h.logger.Debug()
	if prev.Phase != next.Phase {
		event = h.logger.Info()
	}
	event.
		Str("player", player.ID).
		Str("from", string(prev.Phase)).
		Str("to", string(next.Phase)).
		Int("round", next.CurrentIndex).
		Int("score", next.Score).
		Msg("session changed")
}

func (h *QuizHandler) failure(c echo.Context, player *model.Player, err error) error {
	if errors.Is(err, quiz.ErrInvalidPhase) {
		return response.InvalidPhase(c, string(player.Snapshot().Phase))
	}
	h.logger.Error().Err(err).Str("player", player.ID).Msg("quiz operation failed")
	return response.Error(c, http.StatusInternalServerError, "サーバーエラーが発生しました")
}

func (h *QuizHandler) playerFromCookie(c echo.Context) (*model.Player, bool) {
	cookie, err := c.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	return h.store.Get(cookie.Value)
}
