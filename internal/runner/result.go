package runner

import (
	"github.com/oxhq/rubric/internal/cop"
	"github.com/oxhq/rubric/internal/corrector"
	"github.com/oxhq/rubric/internal/source"
)

// Status is the outcome of one file.
type Status string

const (
	StatusClean          Status = "clean"
	StatusOffenses       Status = "offenses"
	StatusCorrected      Status = "corrected"
	StatusNonConvergence Status = "non_convergence"
	StatusFailed         Status = "failed"
)

// Reason explains why an offense was left unfixed by autocorrection.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonNotCorrectable Reason = "not correctable"
	ReasonConflict       Reason = "conflict"
	ReasonNoChange       Reason = "no change"
	ReasonNonConvergence Reason = "did not converge"
	ReasonSyntax         Reason = "correction broke syntax"
	ReasonCanceled       Reason = "canceled"
	ReasonWriteFailed    Reason = "write failed"
)

// TrackedOffense is an offense followed across autocorrect passes. Range,
// Start and End locate it in the buffer of the pass that first found it:
// the original text for pass 1.
type TrackedOffense struct {
	cop.Offense

	Start source.Position
	End   source.Position
	Pass  int

	Corrected bool
	Reason    Reason
	// Edits are the edits applied on behalf of this offense, in the
	// coordinates of the pass they were applied in.
	Edits []corrector.Edit

	current  source.Range
	live     *cop.Offense
	accepted bool
	deferred bool
}

// FileResult is everything the engine learned about one file.
type FileResult struct {
	Path     string
	Status   Status
	Original *source.Buffer
	Final    *source.Buffer
	Offenses []*TrackedOffense
	// Passes counts the corrective passes that were applied.
	Passes int
	// Err is the failure that ended processing early, if any.
	Err       error
	CopErrors []error
}

// Changed reports whether autocorrection rewrote the file.
func (r *FileResult) Changed() bool {
	return r.Original != nil && r.Final != nil && r.Original.Text() != r.Final.Text()
}

// Unfixed counts offenses that remain in the final text.
func (r *FileResult) Unfixed() int {
	n := 0
	for _, o := range r.Offenses {
		if !o.Corrected {
			n++
		}
	}
	return n
}

// CorrectedCount counts offenses fixed by autocorrection.
func (r *FileResult) CorrectedCount() int {
	return len(r.Offenses) - r.Unfixed()
}
