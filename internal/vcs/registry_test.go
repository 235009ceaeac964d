package vcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	kind       Kind
	precedence int
	extra      []string
}

func (s *stubAdapter) Kind() Kind { return s.kind }
func (s *stubAdapter) Markers() []Marker {
	return []Marker{{Name: "." + string(s.kind), Type: MarkerDir, Kind: s.kind, Precedence: s.precedence}}
}
func (s *stubAdapter) BuildOperation(repoPath string) Operation {
	return Operation{Dir: repoPath, Program: string(s.kind), Args: append([]string{"pull"}, s.extra...)}
}
func (s *stubAdapter) Classify(int, string, string) Status { return StatusUnknown }
func (s *stubAdapter) WithExtraArgs(args []string) Adapter {
	return &stubAdapter{kind: s.kind, precedence: s.precedence, extra: args}
}

func TestRegistry_RejectsDuplicatesAndReservedKinds(t *testing.T) {
	r := NewRegistry(&stubAdapter{kind: "a", precedence: 1})

	require.Error(t, r.Register(&stubAdapter{kind: "a", precedence: 2}))
	require.Error(t, r.Register(&stubAdapter{kind: KindUnknown}))
	require.Error(t, r.Register(nil))
}

func TestRegistry_ListAndMarkersFollowPrecedence(t *testing.T) {
	r := NewRegistry(
		&stubAdapter{kind: "late", precedence: 50},
		&stubAdapter{kind: "early", precedence: 5},
	)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, Kind("early"), list[0].Kind())
	assert.Equal(t, Kind("late"), list[1].Kind())

	markers := r.Markers()
	require.Len(t, markers, 2+len(UnsupportedMarkers))
	assert.Equal(t, ".early", markers[0].Name)
	assert.Equal(t, KindUnknown, markers[len(markers)-1].Kind)
}

func TestRegistry_WithExtraArgs(t *testing.T) {
	r := NewRegistry(&stubAdapter{kind: "a", precedence: 1}, &stubAdapter{kind: "b", precedence: 2})

	configured, err := r.WithExtraArgs(map[Kind][]string{"a": {"--quiet"}})
	require.NoError(t, err)

	a, ok := configured.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, []string{"pull", "--quiet"}, a.BuildOperation("/r").Args)

	b, ok := configured.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, []string{"pull"}, b.BuildOperation("/r").Args)

	// The source registry is unchanged.
	orig, _ := r.Lookup("a")
	assert.Equal(t, []string{"pull"}, orig.BuildOperation("/r").Args)

	_, err = r.WithExtraArgs(map[Kind][]string{"missing": {"-v"}})
	require.Error(t, err)
}

func TestOperation_Succeeded(t *testing.T) {
	op := Operation{}
	assert.True(t, op.Succeeded(0))
	assert.False(t, op.Succeeded(1))

	op.SuccessCodes = []int{0, 1}
	assert.True(t, op.Succeeded(1))
	assert.False(t, op.Succeeded(2))
}

func TestParseKindAndStatus(t *testing.T) {
	k, err := ParseKind(" Mercurial ")
	require.NoError(t, err)
	assert.Equal(t, KindHg, k)
	_, err = ParseKind("perforce")
	require.Error(t, err)

	s, err := ParseStatus("timed_out")
	require.NoError(t, err)
	assert.Equal(t, StatusTimedOut, s)
	s, err = ParseStatus("canceled")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, s)
	_, err = ParseStatus("exploded")
	require.Error(t, err)
}
