package output

import "reviewkit/internal/review"

// DetermineExitCode returns an exit code based on the review result:
// 2 = high severity issues present or nil result, 1 = medium issues present, 0 otherwise
func DetermineExitCode(result *review.ReviewResult) int {
	if result == nil {
		return 2
	}
	if result.HighCount > 0 {
		return 2
	}
	if result.MediumCount > 0 {
		return 1
	}
	return 0
}
