package storage

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyiku/arith-quiz-back/internal/quiz"
	"github.com/kyiku/arith-quiz-back/internal/testutil"
)

var finishedAt = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func sampleReport() quiz.FinalReport {
	answer := 75
	return quiz.FinalReport{
		Mode:       quiz.ModeAddition,
		Score:      7,
		Total:      quiz.RoundCount,
		Percentage: 70,
		Grade:      quiz.GradeExcellent,
		Rounds: []quiz.RoundRecord{
			{
				Index:           0,
				Problem:         quiz.Problem{First: 51, Second: 24, Operator: quiz.OpAdd, Answer: 75},
				SubmittedAnswer: &answer,
				Correct:         true,
				Elapsed:         2 * time.Second,
			},
		},
	}
}

func TestReportArchive_Save(t *testing.T) {
	tests := []struct {
		name       string
		prefix     string
		playerID   string
		putErr     error
		wantErr    bool
		wantPrefix string
	}{
		{
			name:       "正常系: レポート保存",
			prefix:     "reports",
			playerID:   "player-1",
			wantPrefix: "reports/2026-03-14/",
		},
		{
			name:       "正常系: プレフィックスの前後のスラッシュを除去",
			prefix:     "/quiz/reports/",
			playerID:   "player-1",
			wantPrefix: "quiz/reports/2026-03-14/",
		},
		{
			name:       "正常系: 空のプレフィックスはデフォルト",
			prefix:     "",
			playerID:   "player-1",
			wantPrefix: "reports/2026-03-14/",
		},
		{
			name:     "異常系: プレイヤーIDなし",
			prefix:   "reports",
			playerID: "",
			wantErr:  true,
		},
		{
			name:     "異常系: アップロード失敗",
			prefix:   "reports",
			playerID: "player-1",
			putErr:   errors.New("access denied"),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockS3 := testutil.NewMockS3Client()
			mockS3.PutErr = tt.putErr
			archive := NewReportArchive(mockS3, tt.prefix)

			key, err := archive.Save(tt.playerID, sampleReport(), finishedAt)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, 0, mockS3.UploadCount())
				return
			}

			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(key, tt.wantPrefix), key)
			assert.True(t, strings.HasSuffix(key, ".json"))
			assert.Contains(t, mockS3.UploadedData, key)
		})
	}
}

func TestReportArchive_RoundTrip(t *testing.T) {
	mockS3 := testutil.NewMockS3Client()
	archive := NewReportArchive(mockS3, "reports")

	key, err := archive.Save("player-1", sampleReport(), finishedAt)
	require.NoError(t, err)

	doc, err := archive.Load(key)
	require.NoError(t, err)

	assert.Equal(t, "player-1", doc.PlayerID)
	assert.Equal(t, finishedAt, doc.FinishedAt)
	assert.Equal(t, sampleReport(), doc.Report)

	keys, err := archive.ListKeys(finishedAt)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)
}

func TestReportArchive_LoadErrors(t *testing.T) {
	mockS3 := testutil.NewMockS3Client()
	mockS3.Objects["reports/broken.json"] = []byte("{not json")
	archive := NewReportArchive(mockS3, "reports")

	_, err := archive.Load("reports/missing.json")
	assert.Error(t, err)

	_, err = archive.Load("reports/broken.json")
	assert.Error(t, err)
}
