package adapters

import "updaterepos/internal/vcs"

type Bzr struct {
	cmd command
}

func NewBzr() *Bzr {
	return &Bzr{cmd: command{program: "bzr", args: []string{"pull"}}}
}

func (b *Bzr) Kind() vcs.Kind { return vcs.KindBzr }

func (b *Bzr) Markers() []vcs.Marker {
	return []vcs.Marker{{Name: ".bzr", Type: vcs.MarkerDir, Kind: vcs.KindBzr, Precedence: vcs.PrecedenceBzr}}
}

func (b *Bzr) BuildOperation(repoPath string) vcs.Operation {
	return b.cmd.operation(repoPath)
}

func (b *Bzr) WithExtraArgs(args []string) vcs.Adapter {
	return &Bzr{cmd: b.cmd.withExtraArgs(args)}
}

func (b *Bzr) Classify(exitCode int, stdout, stderr string) vcs.Status {
	out := vcs.Output(stdout, stderr)
	if exitCode != 0 {
		if vcs.ContainsAny(out, "have diverged", "uncommitted changes", "Working tree is out of date", "conflicts") {
			return vcs.StatusNeedsAttention
		}
		return vcs.StatusFailed
	}
	switch {
	case vcs.ContainsAny(out, "No revisions or tags to pull", "No revisions to pull"):
		return vcs.StatusAlreadyCurrent
	case vcs.ContainsAny(out, "conflicts"):
		return vcs.StatusNeedsAttention
	case vcs.ContainsAny(out, "Now on revision", "All changes applied successfully"):
		return vcs.StatusUpdated
	default:
		return vcs.StatusUnknown
	}
}
