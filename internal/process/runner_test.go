// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package process

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	gotArgv []string
	gotDir  string
	execFn  func(ctx context.Context, stdout, stderr io.Writer) (int, error)
}

func (m *mockExecutor) Exec(ctx context.Context, argv []string, dir string, stdout, stderr io.Writer) (int, error) {
	m.gotArgv = argv
	m.gotDir = dir
	if m.execFn != nil {
		return m.execFn(ctx, stdout, stderr)
	}
	return 0, nil
}

func TestRun(t *testing.T) {
	tests := []struct {
		name      string
		execFn    func(context.Context, io.Writer, io.Writer) (int, error)
		timeout   time.Duration
		wantCode  int
		wantOut   string
		wantExit  bool
		wantErrIs error
	}{
		{
			name: "success captures stdout",
			execFn: func(_ context.Context, stdout, _ io.Writer) (int, error) {
				io.WriteString(stdout, "saved 12 articles")
				return 0, nil
			},
			wantOut: "saved 12 articles",
		},
		{
			name: "non-zero exit is an ExitError",
			execFn: func(_ context.Context, _, stderr io.Writer) (int, error) {
				io.WriteString(stderr, "connection refused")
				return 3, nil
			},
			wantCode: 3,
			wantExit: true,
		},
		{
			name:    "timeout surfaces deadline exceeded",
			timeout: 10 * time.Millisecond,
			execFn: func(ctx context.Context, _, _ io.Writer) (int, error) {
				<-ctx.Done()
				return -1, ctx.Err()
			},
			wantCode:  -1,
			wantErrIs: context.DeadlineExceeded,
		},
		{
			name: "start failure is wrapped",
			execFn: func(context.Context, io.Writer, io.Writer) (int, error) {
				return -1, errors.New("executable file not found")
			},
			wantCode: -1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockExecutor{execFn: tt.execFn}
			r := &ExecRunner{exec: m}
			cmd := Command{Argv: []string{"scraper", "elpais"}, Dir: "extract", Timeout: tt.timeout}

			res, err := r.Run(context.Background(), cmd)
			assert.Equal(t, []string{"scraper", "elpais"}, m.gotArgv)
			assert.Equal(t, "extract", m.gotDir)
			assert.Equal(t, tt.wantCode, res.ExitCode)

			switch {
			case tt.wantExit:
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, tt.wantCode, exitErr.ExitCode)
				assert.Contains(t, exitErr.Error(), "connection refused")
				assert.Contains(t, exitErr.Error(), "scraper elpais")
			case tt.wantErrIs != nil:
				require.ErrorIs(t, err, tt.wantErrIs)
				assert.Contains(t, err.Error(), "timed out")
			case tt.wantOut != "":
				require.NoError(t, err)
				assert.Equal(t, tt.wantOut, res.Stdout)
			default:
				require.Error(t, err)
			}
		})
	}
}

func TestRunEmptyCommand(t *testing.T) {
	_, err := NewRunner().Run(context.Background(), Command{})
	require.Error(t, err)
}

func TestExitErrorTruncatesStderr(t *testing.T) {
	m := &mockExecutor{execFn: func(_ context.Context, _, stderr io.Writer) (int, error) {
		io.WriteString(stderr, strings.Repeat("x", stderrTail)+"END")
		return 1, nil
	}}
	_, err := (&ExecRunner{exec: m}).Run(context.Background(), Command{Argv: []string{"loader"}})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Len(t, exitErr.Stderr, stderrTail)
	assert.True(t, strings.HasSuffix(exitErr.Stderr, "END"))
}
