package websocket

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyiku/arith-quiz-back/internal/model"
	"github.com/kyiku/arith-quiz-back/internal/testutil"
)

func newConnectedPlayer() (*model.Player, *testutil.MockWebSocketConn) {
	player := model.NewPlayer()
	conn := testutil.NewMockWebSocketConn()
	player.SetConn(conn)
	return player, conn
}

func TestParseClientMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ClientMessage
		wantErr bool
	}{
		{
			name:  "正常系: 文字列の回答",
			input: `{"type":"answer","answer":" 75 "}`,
			want:  ClientMessage{Type: TypeAnswer, Answer: " 75 "},
		},
		{
			name:  "正常系: 数値の回答",
			input: `{"type":"answer","answer":52}`,
			want:  ClientMessage{Type: TypeAnswer, Answer: "52"},
		},
		{
			name:  "正常系: 回答なし",
			input: `{"type":"answer"}`,
			want:  ClientMessage{Type: TypeAnswer, Answer: ""},
		},
		{
			name:  "正常系: nullの回答",
			input: `{"type":"answer","answer":null}`,
			want:  ClientMessage{Type: TypeAnswer, Answer: ""},
		},
		{
			name:  "正常系: typeは小文字に正規化",
			input: `{"type":"ADVANCE"}`,
			want:  ClientMessage{Type: TypeAdvance},
		},
		{
			name:    "異常系: 不正なJSON",
			input:   `invalid`,
			wantErr: true,
		},
		{
			name:    "異常系: typeなし",
			input:   `{"answer":"1"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClientMessage([]byte(tt.input))

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPingHandler_HandlePing(t *testing.T) {
	tests := []struct {
		name        string
		inputMsg    map[string]interface{}
		wantHandled bool
	}{
		{
			name:        "pingメッセージを処理",
			inputMsg:    map[string]interface{}{"type": "ping"},
			wantHandled: true,
		},
		{
			name:        "ping以外のメッセージは無視",
			inputMsg:    map[string]interface{}{"type": "answer", "answer": "1"},
			wantHandled: false,
		},
		{
			name:        "typeフィールドがないメッセージ",
			inputMsg:    map[string]interface{}{"data": "test"},
			wantHandled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			player, conn := newConnectedPlayer()
			handler := NewPingHandler(player)

			msgBytes, _ := json.Marshal(tt.inputMsg)
			handled := handler.Handle(msgBytes)

			assert.Equal(t, tt.wantHandled, handled)
			if tt.wantHandled {
				pong := conn.GetLastMessageAsMap()
				require.NotNil(t, pong)
				assert.Equal(t, "pong", pong["type"])
			} else {
				assert.Empty(t, conn.GetMessages())
			}
			assert.False(t, conn.Closed())
		})
	}
}

func TestDispatcher_Dispatch(t *testing.T) {
	player, conn := newConnectedPlayer()
	d := NewDispatcher(player)

	var answers []string
	advanced := 0
	d.On(TypeAnswer, func(msg ClientMessage) error {
		answers = append(answers, msg.Answer)
		return nil
	})
	d.On(TypeAdvance, func(ClientMessage) error {
		advanced++
		return errors.New("advance failed")
	})

	t.Run("正常系: answerをルーティング", func(t *testing.T) {
		require.NoError(t, d.Dispatch([]byte(`{"type":"answer","answer":"75"}`)))
		require.NoError(t, d.Dispatch([]byte(`{"type":"answer","answer":""}`)))
		assert.Equal(t, []string{"75", ""}, answers)
	})

	t.Run("正常系: pingはハンドラなしでpong", func(t *testing.T) {
		require.NoError(t, d.Dispatch([]byte(`{"type":"ping"}`)))
		assert.Len(t, conn.MessagesOfType("pong"), 1)
	})

	t.Run("異常系: ハンドラのエラーを返す", func(t *testing.T) {
		err := d.Dispatch([]byte(`{"type":"advance"}`))
		assert.EqualError(t, err, "advance failed")
		assert.Equal(t, 1, advanced)
	})

	t.Run("異常系: 未登録のtype", func(t *testing.T) {
		err := d.Dispatch([]byte(`{"type":"state"}`))
		assert.ErrorIs(t, err, ErrUnknownMessage)
	})

	t.Run("異常系: 不正なJSON", func(t *testing.T) {
		err := d.Dispatch([]byte(`invalid`))
		assert.ErrorIs(t, err, ErrInvalidMessage)
	})
}

func TestAnswerText(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "正常系: 文字列", raw: `"  12 "`, want: "  12 "},
		{name: "正常系: 数値", raw: `-7`, want: "-7"},
		{name: "正常系: 空", raw: ``, want: ""},
		{name: "正常系: null", raw: `null`, want: ""},
		{name: "異常系: オブジェクト", raw: `{"v":1}`, wantErr: true},
		{name: "異常系: 配列", raw: `[1]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AnswerText(json.RawMessage(tt.raw))

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
