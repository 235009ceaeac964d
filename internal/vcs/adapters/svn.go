package adapters

import "updaterepos/internal/vcs"

type Svn struct {
	cmd command
}

func NewSvn() *Svn {
	return &Svn{cmd: command{program: "svn", args: []string{"update", "--non-interactive"}}}
}

func (s *Svn) Kind() vcs.Kind { return vcs.KindSvn }

func (s *Svn) Markers() []vcs.Marker {
	return []vcs.Marker{{Name: ".svn", Type: vcs.MarkerDir, Kind: vcs.KindSvn, Precedence: vcs.PrecedenceSvn}}
}

func (s *Svn) BuildOperation(repoPath string) vcs.Operation {
	return s.cmd.operation(repoPath)
}

func (s *Svn) WithExtraArgs(args []string) vcs.Adapter {
	return &Svn{cmd: s.cmd.withExtraArgs(args)}
}

// svn error codes that need an operator (locked working copy, unfinished
// previous operation, format upgrade, obstructed paths).
var svnNeedsAttention = []string{
	"E155004",
	"E155037",
	"E155036",
	"E155000",
	"E155015",
	"run 'svn cleanup'",
}

// Classify: with --non-interactive, conflicts are postponed and the update
// still exits 0, so the conflict summary is checked before the revision line.
func (s *Svn) Classify(exitCode int, stdout, stderr string) vcs.Status {
	out := vcs.Output(stdout, stderr)
	if exitCode != 0 {
		if vcs.ContainsAny(out, svnNeedsAttention...) {
			return vcs.StatusNeedsAttention
		}
		return vcs.StatusFailed
	}
	switch {
	case vcs.ContainsAny(out, "Summary of conflicts", "Text conflicts:", "Tree conflicts:", "Property conflicts:"):
		return vcs.StatusNeedsAttention
	case vcs.ContainsAny(out, "Updated to revision"):
		return vcs.StatusUpdated
	case vcs.ContainsAny(out, "At revision"):
		return vcs.StatusAlreadyCurrent
	default:
		return vcs.StatusUnknown
	}
}
