package manifest

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hlop3z/seqgen/internal/alerr"
)

// Comparison is the result of comparing two manifests.
type Comparison struct {
	Match   bool
	OldRoot string
	NewRoot string
	Added   []string // in cur only
	Changed []string // in both, different checksum
	Removed []string // in old only
}

// Diff compares old against cur. A nil manifest counts as empty.
func Diff(old, cur *Manifest) *Comparison {
	if old == nil {
		old = &Manifest{}
	}
	if cur == nil {
		cur = &Manifest{}
	}

	c := &Comparison{OldRoot: old.Root, NewRoot: cur.Root}
	oldSums := old.Checksums()
	newSums := cur.Checksums()

	for name, sum := range newSums {
		prev, ok := oldSums[name]
		switch {
		case !ok:
			c.Added = append(c.Added, name)
		case prev != sum:
			c.Changed = append(c.Changed, name)
		}
	}
	for name := range oldSums {
		if _, ok := newSums[name]; !ok {
			c.Removed = append(c.Removed, name)
		}
	}

	slices.Sort(c.Added)
	slices.Sort(c.Changed)
	slices.Sort(c.Removed)

	c.Match = len(c.Added) == 0 && len(c.Changed) == 0 && len(c.Removed) == 0
	return c
}

// Err returns an ErrDrift error listing the differences, or nil on a match.
func (c *Comparison) Err() error {
	if c.Match {
		return nil
	}
	err := alerr.Newf(alerr.ErrDrift, "generated models are out of date (%d added, %d changed, %d removed)",
		len(c.Added), len(c.Changed), len(c.Removed))
	if len(c.Added) > 0 {
		err.With("added", strings.Join(c.Added, ", "))
	}
	if len(c.Changed) > 0 {
		err.With("changed", strings.Join(c.Changed, ", "))
	}
	if len(c.Removed) > 0 {
		err.With("removed", strings.Join(c.Removed, ", "))
	}
	return err.WithHelp("run 'seqgen generate' to update the models")
}

// Format renders c for terminal output.
func (c *Comparison) Format() string {
	var b strings.Builder

	if c.Match {
		b.WriteString("Models are up to date\n")
		fmt.Fprintf(&b, "  Root: %s\n", truncateHash(c.NewRoot))
		return b.String()
	}

	b.WriteString("Model drift detected\n\n")
	fmt.Fprintf(&b, "  Expected root: %s\n", truncateHash(c.NewRoot))
	fmt.Fprintf(&b, "  Actual root:   %s\n", truncateHash(c.OldRoot))

	section := func(title, sign string, names []string) {
		if len(names) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n  %s:\n", title)
		for _, n := range names {
			fmt.Fprintf(&b, "    %s %s\n", sign, n)
		}
	}
	section("Missing files", "+", c.Added)
	section("Modified files", "~", c.Changed)
	section("Stale files", "-", c.Removed)

	return b.String()
}

func truncateHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
