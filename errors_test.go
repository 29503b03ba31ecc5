package tarantool_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lattice-db/tarantool-go"
)

func TestErrorsIsSentinels(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("dial: %w", tarantool.ErrTimeout)
	if !errors.Is(wrapped, tarantool.ErrTimeout) {
		t.Fatal("expected errors.Is to match ErrTimeout through wrapping")
	}
	if errors.Is(wrapped, tarantool.ErrClosed) {
		t.Fatal("did not expect ErrTimeout to match ErrClosed")
	}
}

func TestServerErrorAs(t *testing.T) {
	t.Parallel()

	var err error = &tarantool.ServerError{Message: "Duplicate key exists"}
	var target *tarantool.ServerError
	if !errors.As(err, &target) {
		t.Fatal("expected errors.As to match ServerError")
	}
	if target.Message != "Duplicate key exists" {
		t.Fatalf("got message %q", target.Message)
	}
}

func TestNotResolvedErrorAs(t *testing.T) {
	t.Parallel()

	var err error = &tarantool.NotResolvedError{Kind: "space", Name: "examples"}
	var target *tarantool.NotResolvedError
	if !errors.As(err, &target) {
		t.Fatal("expected errors.As to match NotResolvedError")
	}
	if target.Kind != "space" || target.Name != "examples" {
		t.Fatalf("got %+v", target)
	}
}

func TestIoErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := &tarantool.IoError{Op: "read", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to unwrap IoError to its cause")
	}
}
