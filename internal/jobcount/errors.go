package jobcount

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingData means a fetcher reported an absent count.
	ErrMissingData = errors.New("missing job count data")
	// ErrLicenseExceeded means the combined count is over the license limit.
	ErrLicenseExceeded = errors.New("license limit exceeded")
)

// LicenseExceededError carries the offending total. It matches ErrLicenseExceeded.
type LicenseExceededError struct {
	Total int64
	Limit int64
}

func (e *LicenseExceededError) Error() string {
	return fmt.Sprintf("job count %d exceeds license limit (%d)", e.Total, e.Limit)
}

func (e *LicenseExceededError) Is(target error) bool {
	return target == ErrLicenseExceeded
}
