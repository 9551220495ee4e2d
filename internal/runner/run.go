package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/oxhq/rubric/internal/cop"
	"github.com/oxhq/rubric/internal/corrector"
	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/internal/source"
)

// Run inspects one file and, with autocorrection on, rewrites it until no
// correctable offense is left. The result is never nil. The returned error
// is the result's Err: a parse failure, a correction that broke the syntax,
// non-convergence or cancellation. ctx is only checked between passes.
func (r *Runner) Run(ctx context.Context, path string, text []byte) (*FileResult, error) {
	buf := source.NewBuffer(path, text)
	res := &FileResult{Path: path, Original: buf, Final: buf}

	tree, err := r.parser.Parse(ctx, buf)
	if err != nil {
		log.Warningf("%s", err)
		res.Status, res.Err = StatusFailed, err
		return res, err
	}

	log.Debugf("%s: pass 1", path)
	found, copErrs := r.comm.Investigate(path, tree)
	res.CopErrors = append(res.CopErrors, copErrs...)
	t := &tracker{buf: buf}
	t.record(found, 1)

	if r.autocorrect {
		r.correct(ctx, res, t, buf)
	}

	res.Offenses = t.all
	res.Status = status(res)
	return res, res.Err
}

// correct runs the pass loop from buf. It fills res.Final, res.Passes and
// res.Err, and settles the fate of every tracked offense.
func (r *Runner) correct(ctx context.Context, res *FileResult, t *tracker, buf *source.Buffer) {
	path := res.Path
	stop := ReasonNone
	for {
		candidates := t.candidates(r.fixable)
		if len(candidates) == 0 {
			break
		}
		if res.Passes >= r.maxIterations {
			log.Warningf("%s: autocorrection did not converge after %d passes", path, res.Passes)
			res.Err = fmt.Errorf("%s: %w after %d passes", path, model.ErrNonConvergence, res.Passes)
			stop = ReasonNonConvergence
			break
		}
		if err := ctx.Err(); err != nil {
			res.Err = err
			stop = ReasonCanceled
			break
		}

		corrections := make([]corrector.Correction, len(candidates))
		for i, o := range candidates {
			corrections[i] = *o.live.Correction
		}
		set, deferred := corrector.Merge(corrections)
		t.mark(candidates, deferred)
		if len(deferred) > 0 {
			log.Debugf("%s: pass %d defers %d conflicting corrections", path, res.Passes+1, len(deferred))
		}

		next, err := set.Apply(buf)
		if err != nil {
			// Merge only accepts disjoint edits; this is a corrupt correction.
			res.Err = fmt.Errorf("%s: %w", path, err)
			stop = ReasonConflict
			break
		}
		if next.Text() == buf.Text() {
			stop = ReasonNoChange
			break
		}

		tree, err := r.parser.Parse(ctx, next)
		if err != nil {
			log.Warningf("%s: discarding pass %d: %s", path, res.Passes+1, err)
			res.Err = fmt.Errorf("%s: %w: %w", path, model.ErrCorrectionSyntax, err)
			stop = ReasonSyntax
			break
		}

		if err := r.sink.Commit(path, next.Bytes()); err != nil {
			res.Err = commitError(path, err)
			stop = ReasonWriteFailed
			break
		}
		res.Passes++
		log.Debugf("%s: committed pass %d (%d edits)", path, res.Passes, set.Len())

		t.advance(set, next)
		buf = next
		res.Final = next

		log.Debugf("%s: pass %d", path, res.Passes+1)
		found, copErrs := r.comm.Investigate(path, tree)
		res.CopErrors = append(res.CopErrors, copErrs...)
		t.rematch(found, res.Passes+1)
	}
	t.settle(r.fixable, stop)
}

func commitError(path string, err error) error {
	var werr *model.WriteError
	if errors.Is(err, model.ErrWriteRace) || errors.As(err, &werr) {
		return err
	}
	return &model.WriteError{Path: path, Err: err}
}

func status(res *FileResult) Status {
	switch {
	case errors.Is(res.Err, model.ErrParseFailure) && !errors.Is(res.Err, model.ErrCorrectionSyntax):
		return StatusFailed
	case errors.Is(res.Err, model.ErrNonConvergence):
		return StatusNonConvergence
	case len(res.Offenses) == 0:
		return StatusClean
	case res.Unfixed() == 0:
		return StatusCorrected
	default:
		return StatusOffenses
	}
}

// tracker follows offenses from pass to pass.
type tracker struct {
	buf *source.Buffer
	all []*TrackedOffense
	// current holds the offenses found by the latest pass, in commissioner order.
	current []*TrackedOffense
}

func (t *tracker) record(found []cop.Offense, pass int) {
	t.current = t.current[:0]
	for i := range found {
		t.current = append(t.current, t.add(found[i], pass))
	}
}

func (t *tracker) add(o cop.Offense, pass int) *TrackedOffense {
	tr := &TrackedOffense{
		Offense: o,
		Start:   t.buf.Position(o.Range.Start),
		End:     t.buf.Position(o.Range.End),
		Pass:    pass,
		current: o.Range,
	}
	tr.live = &tr.Offense
	t.all = append(t.all, tr)
	return tr
}

// candidates are the offenses of the latest pass whose corrections may apply.
func (t *tracker) candidates(fixable map[string]bool) []*TrackedOffense {
	var out []*TrackedOffense
	for _, o := range t.current {
		if o.live != nil && o.live.Correctable() && fixable[o.Cop] {
			out = append(out, o)
		}
	}
	return out
}

func (t *tracker) mark(candidates []*TrackedOffense, deferred []int) {
	skip := make(map[int]bool, len(deferred))
	for _, i := range deferred {
		skip[i] = true
	}
	for i, o := range candidates {
		o.deferred = skip[i]
		o.accepted = !skip[i]
		if o.accepted {
			o.Edits = append(o.Edits, o.live.Correction.Edits()...)
		}
	}
}

// advance maps every pending offense into the buffer produced by set.
func (t *tracker) advance(set *corrector.EditSet, next *source.Buffer) {
	t.buf = next
	for _, o := range t.all {
		if o.Corrected {
			continue
		}
		o.current = set.MapRange(o.current)
		o.live = nil
	}
}

// rematch pairs the offenses found in a new pass with pending ones by cop
// and overlapping range. Pending offenses that are not found again were
// corrected; unmatched new offenses are appended.
func (t *tracker) rematch(found []cop.Offense, pass int) {
	pending := make([]*TrackedOffense, 0, len(t.all))
	for _, o := range t.all {
		if !o.Corrected {
			pending = append(pending, o)
		}
	}

	t.current = t.current[:0]
	for i := range found {
		f := found[i]
		var match *TrackedOffense
		for _, p := range pending {
			if p.live == nil && p.Cop == f.Cop && sameSpot(p.current, f.Range) {
				match = p
				break
			}
		}
		if match == nil {
			t.current = append(t.current, t.add(f, pass))
			continue
		}
		match.current = f.Range
		match.live = &f
		match.accepted, match.deferred = false, false
		t.current = append(t.current, match)
	}

	for _, p := range pending {
		if p.live == nil {
			p.Corrected = true
			p.Reason = ReasonNone
		}
	}
}

func sameSpot(a, b source.Range) bool {
	return a == b || a.Overlaps(b) || (a.Empty() && b.Contains(a.Start)) || (b.Empty() && a.Contains(b.Start))
}

// settle gives every offense still present a reason.
func (t *tracker) settle(fixable map[string]bool, stop Reason) {
	for _, o := range t.all {
		if o.Corrected {
			continue
		}
		switch {
		case o.live == nil || !o.live.Correctable() || !fixable[o.Cop]:
			o.Reason = ReasonNotCorrectable
		case o.deferred && stop != ReasonNonConvergence:
			o.Reason = ReasonConflict
		case stop != ReasonNone:
			o.Reason = stop
		default:
			o.Reason = ReasonNotCorrectable
		}
	}
}
