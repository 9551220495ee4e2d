// Package ledger records runs, file outcomes and offenses in a database.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/oxhq/rubric/db"
	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/internal/report"
	"github.com/oxhq/rubric/internal/runner"
	"github.com/oxhq/rubric/models"
)

var log = commonlog.GetLogger("rubric.ledger")

// ErrRunNotFound is returned by Get for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Ledger stores run history.
type Ledger struct {
	db *gorm.DB
}

// Open connects to dsn; see db.Connect.
func Open(dsn string, opts db.Options) (*Ledger, error) {
	gdb, err := db.Connect(dsn, opts)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	return &Ledger{db: gdb}, nil
}

// New wraps an already migrated connection.
func New(gdb *gorm.DB) *Ledger { return &Ledger{db: gdb} }

func (l *Ledger) Close() error { return db.Close(l.db) }

// Run describes a finished run to record.
type Run struct {
	Started     time.Time
	Finished    time.Time
	Autocorrect bool
	Cops        []string
	Results     []*runner.FileResult
}

// Record stores run in one transaction and returns its id.
func (l *Ledger) Record(ctx context.Context, run Run) (string, error) {
	cops, err := json.Marshal(run.Cops)
	if err != nil {
		return "", err
	}
	summary := report.Summarize(run.Results)
	finished := run.Finished
	rec := &models.Run{
		ID:          uuid.NewString(),
		StartedAt:   run.Started,
		FinishedAt:  &finished,
		ToolVersion: model.ToolVersion,
		Autocorrect: run.Autocorrect,
		Status:      string(worst(run.Results)),
		Files:       summary.InspectedFiles,
		Offenses:    summary.Offenses,
		Corrected:   summary.Corrected,
		Failed:      summary.Failed,
		Cops:        datatypes.JSON(cops),
	}
	for _, res := range run.Results {
		outcome, err := fileOutcome(res)
		if err != nil {
			return "", err
		}
		rec.Outcomes = append(rec.Outcomes, outcome)
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(rec).Error
	})
	if err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}
	log.Debugf("recorded run %s (%d files)", rec.ID, rec.Files)
	return rec.ID, nil
}

func fileOutcome(res *runner.FileResult) (models.FileOutcome, error) {
	fr := report.FileReport(res, false)
	out := models.FileOutcome{
		Path:        fr.File,
		Status:      fr.Status,
		Passes:      fr.Passes,
		ErrorCode:   string(fr.ErrorCode),
		Error:       fr.Error,
		BaseDigest:  fr.OriginalSHA1,
		AfterDigest: fr.ModifiedSHA1,
	}
	for _, o := range fr.Offenses {
		edits, err := json.Marshal(o.Changes)
		if err != nil {
			return out, err
		}
		out.Offenses = append(out.Offenses, models.OffenseRecord{
			Cop:         o.Cop,
			Severity:    o.Severity.String(),
			Message:     o.Message,
			StartLine:   o.Location.StartLine,
			StartColumn: o.Location.StartColumn,
			LastLine:    o.Location.LastLine,
			LastColumn:  o.Location.LastColumn,
			StartOffset: o.Location.Start,
			EndOffset:   o.Location.End,
			Corrected:   o.Corrected,
			Reason:      o.Reason,
			Edits:       datatypes.JSON(edits),
		})
	}
	return out, nil
}

var statusRank = map[runner.Status]int{
	runner.StatusClean:          0,
	runner.StatusCorrected:      1,
	runner.StatusOffenses:       2,
	runner.StatusNonConvergence: 3,
	runner.StatusFailed:         4,
}

func worst(results []*runner.FileResult) runner.Status {
	out := runner.StatusClean
	for _, res := range results {
		if statusRank[res.Status] > statusRank[out] {
			out = res.Status
		}
	}
	return out
}

// Recent returns the latest n runs, newest first, without their outcomes.
func (l *Ledger) Recent(ctx context.Context, n int) ([]models.Run, error) {
	var runs []models.Run
	err := l.db.WithContext(ctx).Order("started_at DESC").Limit(n).Find(&runs).Error
	return runs, err
}

// Get loads a run with its outcomes and offenses.
func (l *Ledger) Get(ctx context.Context, id string) (*models.Run, error) {
	var run models.Run
	err := l.db.WithContext(ctx).
		Preload("Outcomes", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Preload("Outcomes.Offenses", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Edits decodes the edits stored with an offense.
func Edits(rec models.OffenseRecord) ([]model.Change, error) {
	if len(rec.Edits) == 0 {
		return nil, nil
	}
	var out []model.Change
	err := json.Unmarshal(rec.Edits, &out)
	return out, err
}
