// Package banpolicy decides reapplication eligibility from an account's
// cumulative rejection count. Rejections count across all institutions.
package banpolicy

// MaxRejections is the number of rejections after which an account is banned for good.
const MaxRejections = 3

// Decision is the outcome of evaluating a rejection count.
type Decision struct {
	// CanReapplyAllowed reports whether a super admin may still grant reapplication.
	CanReapplyAllowed bool
	Banned            bool
}

// Evaluate is pure; callers must not recompute ban state any other way.
func Evaluate(rejectionCount int) Decision {
	banned := rejectionCount >= MaxRejections
	return Decision{
		CanReapplyAllowed: !banned,
		Banned:            banned,
	}
}

// Remaining returns how many more rejections the account can absorb before the ban.
func Remaining(rejectionCount int) int {
	return max(MaxRejections-rejectionCount, 0)
}
