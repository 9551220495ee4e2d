package model

// Machine-readable output shared by the JSON report and the run ledger.

const CurrentSchemaVersion = 1

// ToolVersion is overridden at build time with -ldflags "-X ...".
var ToolVersion = "0.1.0-dev"

// Report is the document printed by "--format json".
type Report struct {
	SchemaVersion int          `json:"schema_version"`
	ToolVersion   string       `json:"tool_version"`
	Files         []FileReport `json:"files"`
	Summary       Summary      `json:"summary"`
}

// Summary totals a run.
type Summary struct {
	InspectedFiles int `json:"inspected_file_count"`
	Offenses       int `json:"offense_count"`
	Corrected      int `json:"corrected_count"`
	Failed         int `json:"failed_file_count"`
}

// FileReport holds the outcome of processing a single file.
type FileReport struct {
	File         string          `json:"file"`
	Status       string          `json:"status"`
	Passes       int             `json:"passes"`
	Changed      bool            `json:"changed"`
	Error        string          `json:"error,omitempty"`
	ErrorCode    ErrorCode       `json:"error_code,omitempty"`
	OriginalSHA1 string          `json:"original_sha1,omitempty"`
	ModifiedSHA1 string          `json:"modified_sha1,omitempty"`
	Offenses     []OffenseReport `json:"offenses"`
	Diff         string          `json:"diff,omitempty"`
}

// OffenseReport is one offense with its fate.
type OffenseReport struct {
	Cop         string   `json:"cop_name"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	Correctable bool     `json:"correctable"`
	Corrected   bool     `json:"corrected"`
	Reason      string   `json:"reason,omitempty"`
	Location    Location `json:"location"`
	Changes     []Change `json:"changes,omitempty"`
}

// Location spans an offense in the text it was found in.
type Location struct {
	StartLine   int `json:"start_line"`
	StartColumn int `json:"start_column"`
	LastLine    int `json:"last_line"`
	LastColumn  int `json:"last_column"`
	Start       int `json:"start"` // byte offsets
	End         int `json:"end"`
}

// Change represents a single edit applied for an offense. Offsets are in
// the text of the pass that applied it.
type Change struct {
	Operation string `json:"operation"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	New       string `json:"new"`
}
