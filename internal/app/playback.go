package app

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Playback replays the delta between two committed code versions as a
// sequence of display frames. Unchanged text appears instantly, inserted
// text one rune per step, removed text never appears. The caller drives the
// stepping (the TUI does it from a timer) and owns cancellation: a playback
// that is superseded is simply never stepped again.
type Playback struct {
	target   string
	segs     []diffmatchpatch.Diff
	seg      int
	runes    []rune
	pos      int
	revealed strings.Builder
	done     bool
}

// NewPlayback diffs previous against target at character level. Both empty
// strings are valid: an empty previous types out the whole target, an empty
// target completes on the first step.
func NewPlayback(previous, target string) *Playback {
	dmp := diffmatchpatch.New()
	return &Playback{
		target: target,
		segs:   dmp.DiffMain(previous, target, false),
	}
}

// Step advances the playback by one unit of work and returns the complete
// frame to display. Every frame is a valid prefix-consistent code string.
// Once done, the frame is exactly the target (defensive against drift) and
// further calls keep returning it.
func (p *Playback) Step() (string, bool) {
	if p.done {
		return p.target, true
	}
	for p.seg < len(p.segs) {
		d := p.segs[p.seg]
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			// Unchanged context appears in one step, folded into the
			// next revealed frame.
			p.revealed.WriteString(d.Text)
			p.seg++
		case diffmatchpatch.DiffDelete:
			// Deletion by omission: the removed text never appears.
			p.seg++
		case diffmatchpatch.DiffInsert:
			if p.runes == nil {
				p.runes = []rune(d.Text)
				p.pos = 0
			}
			if p.pos < len(p.runes) {
				p.revealed.WriteRune(p.runes[p.pos])
				p.pos++
				if p.pos == len(p.runes) {
					p.seg++
					p.runes = nil
				}
				return p.revealed.String(), false
			}
			p.seg++
			p.runes = nil
		}
	}
	p.done = true
	return p.target, true
}

// Done reports whether the playback has reached its target.
func (p *Playback) Done() bool {
	return p.done
}

// Target returns the committed code this playback reveals.
func (p *Playback) Target() string {
	return p.target
}
