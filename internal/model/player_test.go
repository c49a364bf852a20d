package model

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyiku/arith-quiz-back/internal/quiz"
	"github.com/kyiku/arith-quiz-back/internal/testutil"
)

func TestPlayer_NewPlayer(t *testing.T) {
	player := NewPlayer()

	_, err := uuid.Parse(player.ID)
	assert.NoError(t, err, "IDはUUID形式であるべき")
	assert.False(t, player.JoinedAt.IsZero())
	assert.Equal(t, quiz.PhaseNotStarted, player.Snapshot().Phase)
	assert.Nil(t, player.Conn())
}

func TestPlayer_Update(t *testing.T) {
	engine := quiz.NewEngine(quiz.DefaultConfig())

	tests := []struct {
		name      string
		fn        func(quiz.Session) (quiz.Session, error)
		wantErr   bool
		wantPhase quiz.Phase
	}{
		{
			name: "正常系: 開始",
			fn: func(quiz.Session) (quiz.Session, error) {
				return engine.Start(quiz.ModeAddition), nil
			},
			wantPhase: quiz.PhaseAwaitingAnswer,
		},
		{
			name: "異常系: エラー時は変更しない",
			fn: func(s quiz.Session) (quiz.Session, error) {
				return engine.Submit(s, "1", time.Now())
			},
			wantErr:   true,
			wantPhase: quiz.PhaseNotStarted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			player := NewPlayer()

			prev, next, err := player.Update(tt.fn)

			if tt.wantErr {
				assert.True(t, errors.Is(err, quiz.ErrInvalidPhase))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, quiz.PhaseNotStarted, prev.Phase)
			assert.Equal(t, tt.wantPhase, next.Phase)
			assert.Equal(t, tt.wantPhase, player.Snapshot().Phase)
		})
	}
}

func TestPlayer_MarkArchived(t *testing.T) {
	engine := quiz.NewEngine(quiz.DefaultConfig())
	player := NewPlayer()

	assert.False(t, player.MarkArchived(), "未終了のセッションはアーカイブしない")

	_, _, err := player.Update(func(quiz.Session) (quiz.Session, error) {
		s := engine.Start(quiz.ModeAddition)
		for s.Phase != quiz.PhaseFinished {
			s, _ = engine.CheckTimeout(s, s.Deadline)
		}
		return s, nil
	})
	require.NoError(t, err)

	assert.True(t, player.MarkArchived())
	assert.False(t, player.MarkArchived(), "2回目はfalse")

	_, _, err = player.Update(func(quiz.Session) (quiz.Session, error) {
		return engine.Reset(), nil
	})
	require.NoError(t, err)
	assert.False(t, player.MarkArchived())
}

func TestPlayer_Conn(t *testing.T) {
	player := NewPlayer()
	first := testutil.NewMockWebSocketConn()
	second := testutil.NewMockWebSocketConn()

	assert.NoError(t, player.Send(map[string]string{"type": "state"}), "接続なしでもエラーにならない")

	assert.Nil(t, player.SetConn(first))
	assert.Equal(t, first, player.SetConn(second))

	require.NoError(t, player.Send(map[string]string{"type": "state"}))
	assert.Len(t, second.GetMessages(), 1)
	assert.Empty(t, first.GetMessages())

	player.ClearConn(first)
	assert.Equal(t, second, player.Conn(), "古い接続のクリアは無視される")

	player.ClearConn(second)
	assert.Nil(t, player.Conn())
}
