package animation

import (
	"math"

	"github.com/raterudder/powerflow/pkg/types"
)

// Session is the animation state carried from one update to the next. The
// zero value is a session that has rendered nothing yet.
type Session struct {
	Rates types.AnimationRateSet `json:"rates,omitempty"`
}

// Advance moves the session to the next rate set. elapsed holds how far, in
// seconds, each line's marker has travelled under the previous rate; the
// returned map holds the positions rescaled by new/old so that markers keep
// their fractional progress instead of jumping. Lines that were not animated
// before, or are not animated now, restart at 0.
func (s Session) Advance(next types.AnimationRateSet, elapsed map[types.Flow]float64) (Session, map[types.Flow]float64) {
	out := make(map[types.Flow]float64, len(next))
	for flow, rate := range next {
		if !rate.Animated {
			continue
		}
		prev, ok := s.Rates[flow]
		if !ok || !prev.Animated || prev.Seconds <= 0 {
			out[flow] = 0
			continue
		}
		// markers loop, only the position within the current pass matters
		e := math.Mod(math.Max(elapsed[flow], 0), prev.Seconds)
		out[flow] = Rescale(e, prev.Seconds, rate.Seconds)
	}

	cp := make(types.AnimationRateSet, len(next))
	for k, v := range next {
		cp[k] = v
	}
	return Session{Rates: cp}, out
}

// Rescale converts elapsed time under oldRate to the same fractional
// position under newRate.
func Rescale(elapsed, oldRate, newRate float64) float64 {
	if oldRate <= 0 {
		return 0
	}
	return elapsed * (newRate / oldRate)
}
