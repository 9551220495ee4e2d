package runner

// Sink receives the text of every pass that reparsed cleanly.
type Sink interface {
	Commit(path string, text []byte) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(path string, text []byte) error

func (f SinkFunc) Commit(path string, text []byte) error { return f(path, text) }

type discard struct{}

func (discard) Commit(string, []byte) error { return nil }
