package output

import (
	"updaterepos/internal/outcome"
	"updaterepos/internal/vcs"
)

// collector keeps what aggregate (JSON) sinks write on Close. When the engine
// delivered a final summary that wins; otherwise one is rebuilt from the
// records seen (e.g. a run that ended early).
type collector struct {
	outcomes []outcome.Outcome
	errs     []outcome.DiscoveryError
	summary  *outcome.Summary
}

func (c *collector) add(v any) {
	switch t := v.(type) {
	case outcome.Outcome:
		c.outcomes = append(c.outcomes, t)
	case outcome.DiscoveryError:
		c.errs = append(c.errs, t)
	case outcome.Summary:
		c.summary = &t
	}
}

func (c *collector) final() outcome.Summary {
	if c.summary != nil {
		return *c.summary
	}
	s := outcome.Summary{
		Counts:          make(map[vcs.Status]int),
		Outcomes:        append([]outcome.Outcome{}, c.outcomes...),
		DiscoveryErrors: c.errs,
	}
	outcome.SortByIndex(s.Outcomes)
	for _, o := range s.Outcomes {
		s.Counts[o.Status]++
	}
	s.Total = len(s.Outcomes)
	return s
}
