package adapters

import "updaterepos/internal/vcs"

// Git updates with a fast-forward only pull so that a diverged branch is
// reported instead of merged.
type Git struct {
	cmd command
}

func NewGit() *Git {
	return &Git{cmd: command{program: "git", args: []string{"pull", "--ff-only"}}}
}

func (g *Git) Kind() vcs.Kind { return vcs.KindGit }

func (g *Git) Markers() []vcs.Marker {
	return []vcs.Marker{{Name: ".git", Type: vcs.MarkerAny, Kind: vcs.KindGit, Precedence: vcs.PrecedenceGit}}
}

func (g *Git) BuildOperation(repoPath string) vcs.Operation {
	return g.cmd.operation(repoPath)
}

func (g *Git) WithExtraArgs(args []string) vcs.Adapter {
	return &Git{cmd: g.cmd.withExtraArgs(args)}
}

var gitNeedsAttention = []string{
	"Your local changes to the following files would be overwritten",
	"Please commit your changes or stash them",
	"untracked working tree files would be overwritten",
	"Not possible to fast-forward",
	"have diverged",
	"divergent branches",
	"CONFLICT",
	"There is no tracking information for the current branch",
	"You are not currently on a branch",
	"You have unstaged changes",
	"unmerged files",
	"You have not concluded your merge",
	"cannot pull with rebase",
}

func (g *Git) Classify(exitCode int, stdout, stderr string) vcs.Status {
	out := vcs.Output(stdout, stderr)
	if exitCode != 0 {
		if vcs.ContainsAny(out, gitNeedsAttention...) {
			return vcs.StatusNeedsAttention
		}
		return vcs.StatusFailed
	}
	switch {
	case vcs.ContainsAny(out, "Already up to date", "Already up-to-date"):
		return vcs.StatusAlreadyCurrent
	case vcs.ContainsAny(out, "Fast-forward", "Updating ", "Successfully rebased", "Merge made by", "file changed", "files changed"):
		return vcs.StatusUpdated
	default:
		return vcs.StatusUnknown
	}
}
