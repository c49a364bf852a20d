// Package storage provides S3 storage integration.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kyiku/arith-quiz-back/internal/quiz"
)

// S3ClientInterface defines the interface for S3 operations.
type S3ClientInterface interface {
	GetObject(key string) ([]byte, error)
	PutObject(key string, data []byte) error
	ListObjects(prefix string) ([]string, error)
}

// ArchivedReport is the JSON document written for a finished session.
type ArchivedReport struct {
	ID         string           `json:"id"`
	PlayerID   string           `json:"player_id"`
	FinishedAt time.Time        `json:"finished_at"`
	Report     quiz.FinalReport `json:"report"`
}

// ReportArchive writes finished reports to S3 and reads them back for
// inspection. It never restores a report into a session.
type ReportArchive struct {
	client S3ClientInterface
	prefix string
}

// NewReportArchive creates a new ReportArchive storing under prefix.
func NewReportArchive(client S3ClientInterface, prefix string) *ReportArchive {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "reports"
	}
	return &ReportArchive{
		client: client,
		prefix: prefix,
	}
}

// Save uploads the report and returns its object key.
func (a *ReportArchive) Save(playerID string, report quiz.FinalReport, finishedAt time.Time) (string, error) {
	if playerID == "" {
		return "", errors.New("player id is required")
	}

	doc := ArchivedReport{
		ID:         uuid.New().String(),
		PlayerID:   playerID,
		FinishedAt: finishedAt.UTC(),
		Report:     report,
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	key := fmt.Sprintf("%s/%s/%s.json", a.prefix, doc.FinishedAt.Format("2006-01-02"), doc.ID)
	if err := a.client.PutObject(key, data); err != nil {
		return "", fmt.Errorf("failed to upload report: %w", err)
	}

	return key, nil
}

// Load fetches an archived report by key.
func (a *ReportArchive) Load(key string) (*ArchivedReport, error) {
	data, err := a.client.GetObject(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var doc ArchivedReport
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &doc, nil
}

// ListKeys returns the keys of reports archived on the given day, sorted.
func (a *ReportArchive) ListKeys(day time.Time) ([]string, error) {
	keys, err := a.client.ListObjects(fmt.Sprintf("%s/%s/", a.prefix, day.UTC().Format("2006-01-02")))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}
