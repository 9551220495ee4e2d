package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/rubric/internal/config"
	"github.com/oxhq/rubric/internal/cop"
	"github.com/oxhq/rubric/internal/cop/coptest"
	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/internal/runner"
)

func newCop(t *testing.T) cop.Cop {
	t.Helper()
	c, err := NewSingleLineBlockParams(config.CopConfig{
		Enabled:     true,
		AutoCorrect: true,
		Options: map[string]any{
			"Methods": []any{
				map[string]any{"reduce": []any{"a", "e"}},
				map[string]any{"test": []any{"x", "y"}},
			},
		},
	})
	require.NoError(t, err)
	return c
}

func TestSingleLineBlockParamsCallForms(t *testing.T) {
	c := newCop(t)
	src := coptest.Dedent(`
		def m
		  [0, 1].reduce { |c, d| c + d }
		                  ^^^^^^ Name ` + "`reduce`" + ` block params ` + "`|a, e|`" + `.
		  [0, 1].reduce{ |c, d| c + d }
		                 ^^^^^^ Name ` + "`reduce`" + ` block params ` + "`|a, e|`" + `.
		  [0, 1].reduce(5) { |c, d| c + d }
		                     ^^^^^^ Name ` + "`reduce`" + ` block params ` + "`|a, e|`" + `.
		  [0, 1].reduce(5){ |c, d| c + d }
		                    ^^^^^^ Name ` + "`reduce`" + ` block params ` + "`|a, e|`" + `.
		  [0, 1].reduce (5) { |c, d| c + d }
		                      ^^^^^^ Name ` + "`reduce`" + ` block params ` + "`|a, e|`" + `.
		  ala.test { |x, z| bala }
		             ^^^^^^ Name ` + "`test`" + ` block params ` + "`|x, y|`" + `.
		end
	`)

	coptest.ExpectOffense(t, c, src)
	coptest.ExpectCorrection(t, c, src, coptest.Dedent(`
		def m
		  [0, 1].reduce { |a, e| a + e }
		  [0, 1].reduce{ |a, e| a + e }
		  [0, 1].reduce(5) { |a, e| a + e }
		  [0, 1].reduce(5){ |a, e| a + e }
		  [0, 1].reduce (5) { |a, e| a + e }
		  ala.test { |x, y| bala }
		end
	`))
}

func TestSingleLineBlockParamsNoOffenses(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"proper names", "[0, 1].reduce { |a, e| a + e }"},
		{"proper names without space", "[0, 1].reduce{ |a, e| a + e }"},
		{"proper names with arguments", "[0, 1].reduce(5) { |a, e| a + e }"},
		{"proper names for second method", "ala.test { |x, y| bala }"},
		{"leading underscore marks unused", "File.foreach(filename).reduce(0) { |a, _e| a + 1 }"},
		{"do end block", "def m\n  [0, 1].reduce do |c, d|\n    c + d\n  end\nend\n"},
		{"single-line do end block", "[0, 1].reduce do |c, d| c + d end"},
		{"symbol argument", "def m\n  call_method(:reduce) { |a, b| a + b}\nend\n"},
		{"destructuring", "def m\n  test.reduce { |a, (id, _)| a + id}\nend\n"},
		{"no block arguments", "def m\n  test.reduce { true }\nend\n"},
		{"no receiver", "reduce { |c, d| c + d }"},
		{"unconfigured method", "[0, 1].map { |c| c }"},
		{"optional parameter", "[0, 1].reduce { |c, d = 1| c + d }"},
		{"splat parameter", "[0, 1].reduce { |c, *d| c }"},
		{"block parameter", "[0, 1].reduce { |c, &d| c }"},
		{"multi-line brace block", "[0, 1].reduce { |c, d|\n  c + d\n}\n"},
		{"lambda", "->(c, d) { c + d }"},
		{"fewer params than configured", "[0, 1].reduce { |a| a }"},
		{"extra params keep their names", "[0, 1].reduce { |a, e, z| a + e + z }"},
	}

	c := newCop(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coptest.ExpectNoOffenses(t, c, tt.src)
		})
	}
}

func TestSingleLineBlockParamsLeadingUnderscores(t *testing.T) {
	c := newCop(t)
	src := coptest.Dedent(`
		File.foreach(filename).reduce(0) { |_x, _y| }
		                                   ^^^^^^^^ Name ` + "`reduce`" + ` block params ` + "`|_a, _e|`" + `.
	`)

	coptest.ExpectOffense(t, c, src)
	coptest.ExpectCorrection(t, c, src, "File.foreach(filename).reduce(0) { |_a, _e| }\n")
}

func TestSingleLineBlockParamsSafeNavigation(t *testing.T) {
	c := newCop(t)
	src := coptest.Dedent(`
		xs&.reduce { |c, d| c + d }
		             ^^^^^^ Name ` + "`reduce`" + ` block params ` + "`|a, e|`" + `.
	`)

	coptest.ExpectOffense(t, c, src)
	coptest.ExpectCorrection(t, c, src, "xs&.reduce { |a, e| a + e }\n")
}

func TestSingleLineBlockParamsExtraParams(t *testing.T) {
	c := newCop(t)
	src := coptest.Dedent(`
		xs.reduce { |c, d, z| c + d + z }
		            ^^^^^^^^^ Name ` + "`reduce`" + ` block params ` + "`|a, e, z|`" + `.
	`)

	coptest.ExpectOffense(t, c, src)
	coptest.ExpectCorrection(t, c, src, "xs.reduce { |a, e, z| a + e + z }\n")
}

func TestSingleLineBlockParamsShadowing(t *testing.T) {
	c := newCop(t)
	src := "xs.reduce { |c, d| c + ys.map { |c| c * d }.sum }\n"

	res := coptest.ExpectCorrection(t, c, src, "xs.reduce { |a, e| a + ys.map { |c| c * e }.sum }\n")
	assert.Equal(t, runner.StatusCorrected, res.Status)
}

func TestSingleLineBlockParamsCorrectionIsIdempotent(t *testing.T) {
	c := newCop(t)
	fixed := "[0, 1].reduce { |a, e| a + e }\n"

	res := coptest.ExpectCorrection(t, c, "[0, 1].reduce { |c, d| c + d }\n", fixed)
	assert.Equal(t, 1, res.Passes)
	require.Len(t, res.Offenses, 1)
	assert.True(t, res.Offenses[0].Corrected)

	coptest.ExpectNoOffenses(t, c, fixed)
}

func TestSingleLineBlockParamsOffenseRangeIsParamList(t *testing.T) {
	c := newCop(t)
	src := "foo.reduce { |left, right| left }"
	offenses := coptest.Investigate(t, c, src)

	require.Len(t, offenses, 1)
	assert.Equal(t, "|left, right|", src[offenses[0].Range.Start:offenses[0].Range.End])
	assert.True(t, offenses[0].Correctable())
	assert.Equal(t, SingleLineBlockParamsName, offenses[0].Cop)
	assert.Equal(t, model.SeverityConvention, offenses[0].Severity)
}

func TestSingleLineBlockParamsDefaults(t *testing.T) {
	e, ok := cop.Lookup(SingleLineBlockParamsName)
	require.True(t, ok)
	assert.True(t, e.Defaults.Enabled)

	c, err := e.Factory(e.Defaults)
	require.NoError(t, err)

	src := coptest.Dedent(`
		items.inject { |sum, n| sum + n }
		               ^^^^^^^^ Name ` + "`inject`" + ` block params ` + "`|acc, elem|`" + `.
	`)
	coptest.ExpectOffense(t, c, src)
	coptest.ExpectCorrection(t, c, src, "items.inject { |acc, elem| acc + elem }\n")
}

func TestParseMethodsErrors(t *testing.T) {
	tests := []struct {
		name    string
		methods any
		path    string
	}{
		{"not a list", "reduce", "Style/SingleLineBlockParams.Methods"},
		{"entry not a mapping", []any{"reduce"}, "Style/SingleLineBlockParams.Methods[0]"},
		{"two keys in one entry", []any{map[string]any{"a": []any{"x"}, "b": []any{"y"}}}, "Style/SingleLineBlockParams.Methods[0]"},
		{"empty method name", []any{map[string]any{"": []any{"x"}}}, "Style/SingleLineBlockParams.Methods[0]"},
		{"empty params", []any{map[string]any{"reduce": []any{}}}, "Style/SingleLineBlockParams.Methods[0]"},
		{"params not a list", []any{map[string]any{"reduce": "acc"}}, "Style/SingleLineBlockParams.Methods[0]"},
		{"invalid identifier", []any{map[string]any{"reduce": []any{"Acc"}}}, "Style/SingleLineBlockParams.Methods[0]"},
		{"non-string param", []any{map[string]any{"reduce": []any{1}}}, "Style/SingleLineBlockParams.Methods[0]"},
		{
			"duplicate method",
			[]any{map[string]any{"reduce": []any{"a"}}, map[string]any{"reduce": []any{"b"}}},
			"Style/SingleLineBlockParams.Methods[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSingleLineBlockParams(config.CopConfig{Options: map[string]any{"Methods": tt.methods}})
			require.Error(t, err)

			var cerr *model.ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.path, cerr.Path)
		})
	}
}

func TestPreferredNames(t *testing.T) {
	tests := []struct {
		names, want, preferred []string
		differs                bool
	}{
		{[]string{"c", "d"}, []string{"a", "e"}, []string{"a", "e"}, true},
		{[]string{"a", "_e"}, []string{"a", "e"}, []string{"a", "_e"}, false},
		{[]string{"__a"}, []string{"a", "e"}, []string{"_a"}, false},
		{[]string{"a", "e", "q"}, []string{"a", "e"}, []string{"a", "e", "q"}, false},
		{[]string{"_x"}, []string{"_acc"}, []string{"_acc"}, true},
	}

	for _, tt := range tests {
		preferred, differs := preferredNames(tt.names, tt.want)
		assert.Equal(t, tt.preferred, preferred, "names %v", tt.names)
		assert.Equal(t, tt.differs, differs, "names %v", tt.names)
	}
}
