// Package identifier allocates the human-facing numbers of the system:
// 6-digit school numbers and student IDs of the form
// <school number><4 random digits>. Candidates are drawn at random and
// checked against the persisted uniqueness index; the check is advisory
// only, the database unique constraint remains the single authority, so a
// racing insert can still fail with a duplicate error and the caller is
// expected to re-run allocation.
package identifier

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// ErrExhausted is returned when no free candidate was found within the
// retry budget. With 9*10^5 school numbers and 9*10^3 suffixes per school
// this practically never happens before the namespace is genuinely full.
var ErrExhausted = errors.New("identifier space exhausted")

// maxAttempts bounds the collision-retry loop so a full (or unreachable)
// uniqueness index cannot spin the allocator forever.
const maxAttempts = 1000

// ExistsFunc reports whether a candidate identifier is already taken.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Allocator produces unique school numbers and student IDs. Both exists
// checks are injected so the allocator stays independent of the storage
// layer and tests can drive it with an in-memory set.
type Allocator struct {
	schoolExists  ExistsFunc
	studentExists ExistsFunc
}

// New constructs an Allocator from the two uniqueness probes.
func New(schoolExists, studentExists ExistsFunc) *Allocator {
	if schoolExists == nil || studentExists == nil {
		panic("nil exists func passed to identifier.New")
	}
	return &Allocator{schoolExists: schoolExists, studentExists: studentExists}
}

// SchoolNumber returns a 6-digit number not currently present in the
// uniqueness index.
func (a *Allocator) SchoolNumber(ctx context.Context) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		candidate, err := randomInRange(100000, 999999)
		if err != nil {
			return "", err
		}
		taken, err := a.schoolExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}

// StudentID returns schoolNumber concatenated with 4 random digits, not
// currently present in the uniqueness index. Student IDs are unique across
// all schools because the school-number prefix already namespaces them.
func (a *Allocator) StudentID(ctx context.Context, schoolNumber string) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		suffix, err := randomInRange(1000, 9999)
		if err != nil {
			return "", err
		}
		candidate := schoolNumber + suffix
		taken, err := a.studentExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}

// randomInRange draws a uniformly random integer in [lo, hi] and formats it
// in decimal. Both bounds have the same digit count at every call site, so
// the result never needs zero padding.
func randomInRange(lo, hi int64) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(hi-lo+1))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+lo), nil
}
