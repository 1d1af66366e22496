package main

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCodeForError(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "plain error", err: base, want: 1},
		{name: "coded error", err: withExitCode(base, 2), want: 2},
		{name: "zero code falls back", err: exitError{code: 0, err: base}, want: 1},
		{name: "wrapped coded error", err: fmt.Errorf("context: %w", withExitCode(base, 2)), want: 2},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCodeForError(tc.err); got != tc.want {
				t.Fatalf("exitCodeForError(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestWithExitCodeNil(t *testing.T) {
	t.Parallel()

	if err := withExitCode(nil, 2); err != nil {
		t.Fatalf("withExitCode(nil, 2) = %v, want nil", err)
	}
}

func TestExitErrorUnwrap(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	err := withExitCode(base, 2)
	if !errors.Is(err, base) {
		t.Fatalf("expected the coded error to wrap the original")
	}
	if err.Error() != "boom" {
		t.Fatalf("Error() = %q, want %q", err.Error(), "boom")
	}
}

func TestDispatchSubcommand(t *testing.T) {
	cases := []struct {
		name        string
		args        []string
		wantHandled bool
		wantCode    int
	}{
		{name: "no args", args: nil, wantHandled: false, wantCode: 0},
		{name: "unknown command", args: []string{"bogus"}, wantHandled: true, wantCode: 1},
		{name: "unknown flag", args: []string{"--bogus"}, wantHandled: true, wantCode: 1},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			handled, code := dispatchSubcommand(tc.args)
			if handled != tc.wantHandled || code != tc.wantCode {
				t.Fatalf("dispatchSubcommand(%v) = (%v, %d), want (%v, %d)",
					tc.args, handled, code, tc.wantHandled, tc.wantCode)
			}
		})
	}
}
