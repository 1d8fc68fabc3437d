package extract

import "fmt"

// PickFrameResult merges the results of one run per frame: the first
// successful one wins, otherwise the failure with the longest debug text is
// returned with the frame count appended.
func PickFrameResult(results []Result) Result {
	for _, r := range results {
		if r.OK {
			return r
		}
	}
	if len(results) == 0 {
		return Result{OK: false, Error: "Capture failed: no frame results"}
	}
	best := results[0]
	for _, r := range results[1:] {
		if len(r.Debug) > len(best.Debug) {
			best = r
		}
	}
	extra := fmt.Sprintf("frames=%d", len(results))
	if best.Debug != "" {
		best.Debug = best.Debug + "; " + extra
	} else {
		best.Debug = extra
	}
	return best
}
