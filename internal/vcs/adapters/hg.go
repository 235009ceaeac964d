package adapters

import "updaterepos/internal/vcs"

type Hg struct {
	cmd command
}

func NewHg() *Hg {
	return &Hg{cmd: command{program: "hg", args: []string{"pull", "--update"}}}
}

func (h *Hg) Kind() vcs.Kind { return vcs.KindHg }

func (h *Hg) Markers() []vcs.Marker {
	return []vcs.Marker{{Name: ".hg", Type: vcs.MarkerDir, Kind: vcs.KindHg, Precedence: vcs.PrecedenceHg}}
}

func (h *Hg) BuildOperation(repoPath string) vcs.Operation {
	return h.cmd.operation(repoPath)
}

func (h *Hg) WithExtraArgs(args []string) vcs.Adapter {
	return &Hg{cmd: h.cmd.withExtraArgs(args)}
}

// Printed by a successful pull whose update step was refused.
var hgUpdateRefused = []string{
	"not updating",
	"run 'hg heads' to see heads",
	"'hg merge' to merge",
	"crosses branches",
}

var hgAbortNeedsAttention = []string{
	"uncommitted changes",
	"outstanding uncommitted",
	"unresolved merge conflicts",
	"unfinished",
}

// Classify: hg pull exits 0 even when the update step was refused, so the
// "not updating" family is checked before success markers. Exit 1 means the
// update left unresolved files.
func (h *Hg) Classify(exitCode int, stdout, stderr string) vcs.Status {
	out := vcs.Output(stdout, stderr)
	switch exitCode {
	case 0:
		switch {
		case vcs.ContainsAny(out, "no changes found"):
			return vcs.StatusAlreadyCurrent
		case vcs.ContainsAny(out, hgUpdateRefused...):
			return vcs.StatusNeedsAttention
		case vcs.ContainsAny(out, "added ", "files updated", "files merged"):
			return vcs.StatusUpdated
		default:
			return vcs.StatusUnknown
		}
	case 1:
		return vcs.StatusNeedsAttention
	default:
		if vcs.ContainsAny(out, hgAbortNeedsAttention...) {
			return vcs.StatusNeedsAttention
		}
		return vcs.StatusFailed
	}
}
