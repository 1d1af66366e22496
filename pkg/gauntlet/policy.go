package gauntlet

import "github.com/jordiqui/nnue-gauntlet/pkg/matchtool"

// ShouldPromote reports whether the candidate's point margin clears the
// threshold. The comparison is strictly greater-than: a candidate exactly at
// the threshold stays out, and with a zero threshold a dead-even match is
// still not enough.
func ShouldPromote(outcome matchtool.Outcome, threshold float64) bool {
	return outcome.Margin() > threshold
}
