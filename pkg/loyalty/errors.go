package loyalty

import "errors"

var (
	ErrMemberNotFound     = errors.New("member not found")
	ErrRewardUnavailable  = errors.New("reward is not available")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrInvalidPoints      = errors.New("points must be positive")
)
