package identifier

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func never(ctx context.Context, candidate string) (bool, error)  { return false, nil }
func always(ctx context.Context, candidate string) (bool, error) { return true, nil }

func TestSchoolNumberFormat(t *testing.T) {
	a := New(never, never)
	for i := 0; i < 200; i++ {
		n, err := a.SchoolNumber(context.Background())
		if err != nil {
			t.Fatalf("SchoolNumber: %v", err)
		}
		if len(n) != 6 {
			t.Fatalf("school number %q has length %d, want 6", n, len(n))
		}
		if n[0] == '0' {
			t.Fatalf("school number %q has a leading zero", n)
		}
		for _, r := range n {
			if r < '0' || r > '9' {
				t.Fatalf("school number %q contains non-digit %q", n, r)
			}
		}
	}
}

func TestStudentIDFormat(t *testing.T) {
	a := New(never, never)
	for i := 0; i < 200; i++ {
		id, err := a.StudentID(context.Background(), "123456")
		if err != nil {
			t.Fatalf("StudentID: %v", err)
		}
		if len(id) != 10 {
			t.Fatalf("student id %q has length %d, want 10", id, len(id))
		}
		if !strings.HasPrefix(id, "123456") {
			t.Fatalf("student id %q does not start with the school number", id)
		}
		for _, r := range id[6:] {
			if r < '0' || r > '9' {
				t.Fatalf("student id %q has non-digit suffix", id)
			}
		}
	}
}

// The allocator must skip candidates its exists check claims are taken:
// feeding every returned number back into the index must never produce a
// repeat across a long allocation history.
func TestSchoolNumberUniquenessHistory(t *testing.T) {
	taken := map[string]bool{}
	exists := func(ctx context.Context, candidate string) (bool, error) {
		return taken[candidate], nil
	}
	a := New(exists, exists)
	for i := 0; i < 10000; i++ {
		n, err := a.SchoolNumber(context.Background())
		if err != nil {
			t.Fatalf("SchoolNumber after %d allocations: %v", i, err)
		}
		if taken[n] {
			t.Fatalf("allocator returned already taken number %q", n)
		}
		taken[n] = true
	}
}

func TestStudentIDSkipsTaken(t *testing.T) {
	taken := map[string]bool{}
	exists := func(ctx context.Context, candidate string) (bool, error) {
		return taken[candidate], nil
	}
	a := New(exists, exists)
	for i := 0; i < 2000; i++ {
		id, err := a.StudentID(context.Background(), "654321")
		if err != nil {
			t.Fatalf("StudentID after %d allocations: %v", i, err)
		}
		if taken[id] {
			t.Fatalf("allocator returned already taken id %q", id)
		}
		taken[id] = true
	}
}

func TestAllocatorExhaustion(t *testing.T) {
	a := New(always, always)
	if _, err := a.SchoolNumber(context.Background()); !errors.Is(err, ErrExhausted) {
		t.Fatalf("SchoolNumber err = %v, want ErrExhausted", err)
	}
	if _, err := a.StudentID(context.Background(), "100000"); !errors.Is(err, ErrExhausted) {
		t.Fatalf("StudentID err = %v, want ErrExhausted", err)
	}
}

func TestAllocatorPropagatesCheckError(t *testing.T) {
	boom := errors.New("db down")
	failing := func(ctx context.Context, candidate string) (bool, error) { return false, boom }
	a := New(failing, failing)
	if _, err := a.SchoolNumber(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("SchoolNumber err = %v, want the check error", err)
	}
}
