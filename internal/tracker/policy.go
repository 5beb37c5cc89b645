package tracker

import (
	"github.com/rxtech-lab/argo-msri/pkg/errors"
)

// SingularityPolicy decides what Step does when mu lands exactly on ±1.
type SingularityPolicy string

const (
	// SingularityPropagate records the non-finite indicator and carries on.
	SingularityPropagate SingularityPolicy = "propagate"
	// SingularityReject refuses the step and leaves the tracker untouched.
	SingularityReject SingularityPolicy = "reject"
)

// AllSingularityPolicies lists every accepted policy, in schema enum form.
var AllSingularityPolicies = []any{
	SingularityPropagate,
	SingularityReject,
}

// ParseSingularityPolicy converts a config string into a SingularityPolicy.
// An empty string selects SingularityPropagate.
func ParseSingularityPolicy(s string) (SingularityPolicy, error) {
	switch SingularityPolicy(s) {
	case "", SingularityPropagate:
		return SingularityPropagate, nil
	case SingularityReject:
		return SingularityReject, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidPolicy, "unknown singularity policy %q", s)
	}
}
