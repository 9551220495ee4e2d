// Package models holds the gorm models of the run ledger.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Run is one invocation of the engine over a set of files.
type Run struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)"`
	StartedAt  time.Time `gorm:"index"`
	FinishedAt *time.Time

	ToolVersion string `gorm:"type:varchar(32)"`
	Autocorrect bool
	// Status is the worst file status of the run.
	Status string `gorm:"type:varchar(20);index"`

	Files     int
	Offenses  int
	Corrected int
	Failed    int

	// Cops lists the cop names that ran.
	Cops datatypes.JSON

	Outcomes []FileOutcome `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// FileOutcome is the result of one file within a run.
type FileOutcome struct {
	ID     uint   `gorm:"primaryKey"`
	RunID  string `gorm:"type:varchar(36);index;not null"`
	Path   string `gorm:"type:text;not null"`
	Status string `gorm:"type:varchar(20)"`
	Passes int

	ErrorCode string `gorm:"type:varchar(32)"`
	Error     string `gorm:"type:text"`

	// Digests of the text before and after autocorrection.
	BaseDigest  string `gorm:"type:varchar(40)"`
	AfterDigest string `gorm:"type:varchar(40)"`

	Offenses []OffenseRecord `gorm:"foreignKey:OutcomeID;constraint:OnDelete:CASCADE"`
}

// OffenseRecord is one offense and its fate.
type OffenseRecord struct {
	ID        uint   `gorm:"primaryKey"`
	OutcomeID uint   `gorm:"index;not null"`
	Cop       string `gorm:"type:varchar(100);index"`
	Severity  string `gorm:"type:varchar(16)"`
	Message   string `gorm:"type:text"`

	StartLine   int
	StartColumn int
	LastLine    int
	LastColumn  int
	StartOffset int
	EndOffset   int

	Corrected bool
	Reason    string `gorm:"type:varchar(32)"`
	// Edits holds the applied edits as a JSON array of model.Change.
	Edits datatypes.JSON
}

func (Run) TableName() string           { return "runs" }
func (FileOutcome) TableName() string   { return "file_outcomes" }
func (OffenseRecord) TableName() string { return "offenses" }
