package vcs

import (
	"io/fs"
	"os"
	"path/filepath"
)

type MarkerType int

const (
	// MarkerDir requires the marker entry to be a directory.
	MarkerDir MarkerType = iota
	// MarkerFile requires a regular file.
	MarkerFile
	// MarkerAny accepts either (git uses a .git file for worktrees and submodules).
	MarkerAny
)

func (t MarkerType) String() string {
	switch t {
	case MarkerDir:
		return "dir"
	case MarkerFile:
		return "file"
	default:
		return "any"
	}
}

// Marker is a characteristic entry that identifies a working copy root.
type Marker struct {
	Name string
	Type MarkerType
	Kind Kind
	// Precedence breaks ties when several markers are present in the same
	// directory. Lower wins.
	Precedence int
}

// Precedence values for the built-in kinds. The order git > hg > svn > bzr is
// a policy choice; markers of unsupported systems always lose.
const (
	PrecedenceGit         = 10
	PrecedenceHg          = 20
	PrecedenceSvn         = 30
	PrecedenceBzr         = 40
	PrecedenceUnsupported = 100
)

// UnsupportedMarkers identify working copies of systems without an adapter.
// They are detected as KindUnknown so they show up in reports.
var UnsupportedMarkers = []Marker{
	{Name: "CVS", Type: MarkerDir, Kind: KindUnknown, Precedence: PrecedenceUnsupported},
	{Name: "_darcs", Type: MarkerDir, Kind: KindUnknown, Precedence: PrecedenceUnsupported + 1},
	{Name: ".fslckout", Type: MarkerFile, Kind: KindUnknown, Precedence: PrecedenceUnsupported + 2},
	{Name: "_FOSSIL_", Type: MarkerFile, Kind: KindUnknown, Precedence: PrecedenceUnsupported + 3},
	{Name: ".pijul", Type: MarkerDir, Kind: KindUnknown, Precedence: PrecedenceUnsupported + 4},
}

// Detect reports which kind of working copy dir is the root of, looking only
// at the immediate entries of dir. A directory without any marker yields
// ("", false). It never returns an error: unreadable markers count as absent.
func Detect(dir string, markers []Marker) (Kind, bool) {
	var best *Marker
	for i := range markers {
		m := &markers[i]
		if best != nil && !m.before(best) {
			continue
		}
		if present(dir, *m) {
			best = m
		}
	}
	if best == nil {
		return "", false
	}
	return best.Kind, true
}

// IsMarkerName reports whether name is one of the markers' entry names.
func IsMarkerName(name string, markers []Marker) bool {
	for _, m := range markers {
		if m.Name == name {
			return true
		}
	}
	return false
}

func (m *Marker) before(other *Marker) bool {
	if m.Precedence != other.Precedence {
		return m.Precedence < other.Precedence
	}
	return m.Name < other.Name
}

func present(dir string, m Marker) bool {
	p := filepath.Join(dir, m.Name)
	info, err := os.Lstat(p)
	if err != nil {
		return false
	}
	mode := info.Mode()
	if mode&fs.ModeSymlink != 0 {
		// Resolve once; a dangling or looping link is not a marker.
		info, err = os.Stat(p)
		if err != nil {
			return false
		}
		mode = info.Mode()
	}
	switch m.Type {
	case MarkerDir:
		return mode.IsDir()
	case MarkerFile:
		return mode.IsRegular()
	default:
		return mode.IsDir() || mode.IsRegular()
	}
}
