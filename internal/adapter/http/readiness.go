package http

import (
	"context"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// ReadinessChecks reports ready only when every check passes. Nil entries
// are skipped.
type ReadinessChecks []sharedobs.ReadinessChecker

// CheckReadiness returns the first failing check's error.
func (c ReadinessChecks) CheckReadiness(ctx context.Context) error {
	for _, check := range c {
		if check == nil {
			continue
		}
		if err := check.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
