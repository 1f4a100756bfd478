package validator

import (
	"errors"
	"fmt"

	"github.com/0xPuncker/jobcount-watcher/pkg/types"
)

// ErrInvalidInput is returned when a pair of counts cannot be summed.
var ErrInvalidInput = errors.New("invalid input")

type Validator interface {
	Validate(a, b types.JobCount) error
}

// PresenceValidator requires both counts to be present and non-negative.
// It does not know about the license limit.
type PresenceValidator struct{}

func NewPresenceValidator() *PresenceValidator {
	return &PresenceValidator{}
}

func (v *PresenceValidator) Validate(a, b types.JobCount) error {
	for i, c := range []types.JobCount{a, b} {
		if !c.Present {
			return fmt.Errorf("%w: job count %d is absent", ErrInvalidInput, i+1)
		}
		if c.Count < 0 {
			return fmt.Errorf("%w: job count %d is negative (%d)", ErrInvalidInput, i+1, c.Count)
		}
	}
	return nil
}
