package folio

import (
	"sync"
	"time"

	"github.com/devemco/folio/blog"
)

// FeaturedCount is how many of the newest posts take turns in the featured slot.
const FeaturedCount = 6

// Rotator advances the featured index of one profile. It moves only while
// the index page is being viewed: each view or poll advances at most one
// step, and after an idle gap the current item is shown again instead of
// catching up on missed steps.
type Rotator struct {
	mu       sync.Mutex
	interval time.Duration
	idle     time.Duration
	index    int
	lastStep time.Time
	lastView time.Time
}

// NewRotator returns a rotator stepping every interval. Views further apart
// than three intervals count as an idle gap.
func NewRotator(interval time.Duration) *Rotator {
	return &Rotator{interval: interval, idle: 3 * interval}
}

// Tick records a view at now and returns the index to show.
func (r *Rotator) Tick(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.lastView.IsZero() || now.Sub(r.lastView) > r.idle:
		r.lastStep = now
	case now.Sub(r.lastStep) >= r.interval-r.interval/10:
		// Polls land a little early or late; allow a tenth of slack.
		r.index++
		r.lastStep = now
	}
	r.lastView = now
	return r.index
}

// Current returns the index without recording a view.
func (r *Rotator) Current() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index
}

// Featured picks the post to show from posts for rotation index i.
func Featured(posts []blog.Post, i int) (blog.Post, bool) {
	recent := blog.Recent(posts, FeaturedCount)
	if len(recent) == 0 {
		return blog.Post{}, false
	}
	if i < 0 {
		i = -i
	}
	return recent[i%len(recent)], true
}
