package main

import (
	"fmt"
	"io"
	"time"

	"github.com/kyiku/arith-quiz-back/internal/quiz"
	"github.com/kyiku/arith-quiz-back/internal/storage"
)

const dayLayout = "2006-01-02"

// ReportReader is the read side of storage.ReportArchive.
type ReportReader interface {
	ListKeys(day time.Time) ([]string, error)
	Load(key string) (*storage.ArchivedReport, error)
}

// printDay writes one summary line per report archived on day.
func printDay(w io.Writer, archive ReportReader, day time.Time) error {
	keys, err := archive.ListKeys(day)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintf(w, "%s: no reports\n", day.Format(dayLayout))
		return nil
	}

	for _, key := range keys {
		doc, err := archive.Load(key)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		r := doc.Report
		fmt.Fprintf(w, "%s  %s  %-11s %2d/%-2d %5.1f%%  %s  %s\n",
			doc.FinishedAt.Format("15:04:05"), doc.PlayerID, r.Mode, r.Score, r.Total, r.Percentage, r.Grade, key)
	}
	fmt.Fprintf(w, "%d reports\n", len(keys))
	return nil
}

// printReport writes every round of one archived report.
func printReport(w io.Writer, archive ReportReader, key string) error {
	doc, err := archive.Load(key)
	if err != nil {
		return err
	}
	r := doc.Report
	fmt.Fprintf(w, "%s %s %s\n", doc.ID, doc.PlayerID, doc.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "mode=%s score=%d/%d (%.0f%%) grade=%s\n", r.Mode, r.Score, r.Total, r.Percentage, r.Grade)
	for _, round := range r.Rounds {
		fmt.Fprintf(w, "%2d. %s = %d  %s\n", round.Index+1, round.Problem, round.Problem.Answer, roundOutcome(round))
	}
	return nil
}

func roundOutcome(r quiz.RoundRecord) string {
	switch {
	case r.TimedOut:
		return "timeout"
	case r.Correct:
		return "correct"
	case r.SubmittedAnswer == nil:
		return "no answer"
	default:
		return fmt.Sprintf("wrong (%d)", *r.SubmittedAnswer)
	}
}
