package metrics

import "errors"

var (
	// ErrEmptyGroup indicates a group with no matching rows or no total weight.
	ErrEmptyGroup = errors.New("group has no matching rows")
	// ErrUndefinedRatio indicates a ratio metric whose denominator is zero.
	ErrUndefinedRatio = errors.New("ratio undefined: privileged favorable rate is zero")
	// ErrUnknownAttribute indicates a predicate naming an attribute that is not protected.
	ErrUnknownAttribute = errors.New("unknown protected attribute")
	// ErrOverlappingGroups indicates a row that belongs to both groups.
	ErrOverlappingGroups = errors.New("privileged and unprivileged groups overlap")
	// ErrInvalidGroup indicates a group with no predicates or an empty predicate.
	ErrInvalidGroup = errors.New("invalid group definition")
)
