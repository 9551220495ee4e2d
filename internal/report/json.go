package report

import (
	"encoding/json"
	"io"

	"github.com/oxhq/rubric/internal/runner"
)

// JSON prints model.Report, indented.
type JSON struct {
	opts Options
}

func (f *JSON) Format(w io.Writer, results []*runner.FileResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Build(results, f.opts))
}
