package pipeline

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/reforge-tools/reforge/internal/artifact"
)

type recordingTask struct {
	name     string
	contract Contract
	runs     int
	fail     error
	body     func(tc *Context) error
}

func (t *recordingTask) Name() string       { return t.name }
func (t *recordingTask) Contract() Contract { return t.contract }

func (t *recordingTask) Run(_ context.Context, tc *Context) error {
	t.runs++
	if t.fail != nil {
		return t.fail
	}
	if t.body != nil {
		return t.body(tc)
	}
	if tc.OutputFile() != "" {
		return os.WriteFile(tc.OutputFile(), []byte(t.name+" output"), 0o644)
	}
	return nil
}

func coord(name, version string) artifact.Coordinate {
	return artifact.Coordinate{Group: "test.group", Name: name, Version: version, Extension: "jar"}
}

func newTestStore(t *testing.T) *artifact.Store {
	t.Helper()
	return artifact.NewStoreFS(memfs.New(), "", zaptest.NewLogger(t))
}

func TestValidateRejectsMissingOutput(t *testing.T) {
	store := newTestStore(t)
	task := &recordingTask{name: "download", contract: Contract{RequiresOutput: true}}

	p := New(store, zaptest.NewLogger(t), Stage{Task: task})
	err := p.Execute(context.Background())

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "download", cfgErr.Stage)
	assert.Zero(t, task.runs, "validation failures must precede any execution")
}

func TestValidateRejectsUnknownParameter(t *testing.T) {
	store := newTestStore(t)
	task := &recordingTask{name: "remap", contract: Contract{Parameters: []string{"srg"}}}

	p := New(store, zaptest.NewLogger(t), Stage{
		Task:       task,
		Parameters: map[string]artifact.Coordinate{"mcp": coord("mcp", "1")},
	})
	err := p.Execute(context.Background())

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Reason, "mcp")
}

func TestValidateRejectsUnboundRequiredParameter(t *testing.T) {
	store := newTestStore(t)
	task := &recordingTask{name: "remap", contract: Contract{Parameters: []string{"srg"}}}

	p := New(store, zaptest.NewLogger(t), Stage{Task: task})
	err := p.Execute(context.Background())

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Reason, "srg")
}

func TestExecuteSkipsCachedStages(t *testing.T) {
	store := newTestStore(t)
	out := coord("server", "1.12.2")
	task := &recordingTask{name: "fetch", contract: Contract{RequiresOutput: true}}
	p := New(store, zaptest.NewLogger(t), Stage{Task: task, Output: &out})

	require.NoError(t, p.Execute(context.Background()))
	assert.Equal(t, 1, task.runs)
	assert.True(t, store.Exists(out))

	// Second run: served entirely from the store.
	require.NoError(t, p.Execute(context.Background()))
	assert.Equal(t, 1, task.runs, "cached stage must not re-execute")
}

func TestExecuteAbortsOnFirstFailure(t *testing.T) {
	store := newTestStore(t)
	outA, outB := coord("a", "1"), coord("b", "1")
	failing := &recordingTask{name: "boom", contract: Contract{RequiresOutput: true}, fail: errors.New("broken archive")}
	after := &recordingTask{name: "after", contract: Contract{RequiresOutput: true}}

	p := New(store, zaptest.NewLogger(t),
		Stage{Task: failing, Output: &outA},
		Stage{Task: after, Output: &outB},
	)

	err := p.Execute(context.Background())
	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "boom", execErr.Stage)
	assert.Zero(t, after.runs)
	assert.False(t, store.Exists(outA), "failed stage must not publish an artifact")
}

func TestExecuteOutputVisibleToLaterStages(t *testing.T) {
	store := newTestStore(t)
	out := coord("server", "1.12.2")

	producer := &recordingTask{name: "produce", contract: Contract{RequiresOutput: true}}
	var consumedPath string
	consumer := &recordingTask{
		name:     "consume",
		contract: Contract{RequiresInput: true},
		body: func(tc *Context) error {
			p, err := tc.InputFile()
			consumedPath = p
			return err
		},
	}

	p := New(store, zaptest.NewLogger(t),
		Stage{Task: producer, Output: &out},
		Stage{Task: consumer, Input: &out},
	)
	require.NoError(t, p.Execute(context.Background()))
	assert.NotEmpty(t, consumedPath)
}

func TestExecuteMissingInputIsExecError(t *testing.T) {
	store := newTestStore(t)
	in := coord("missing", "1")
	task := &recordingTask{
		name:     "consume",
		contract: Contract{RequiresInput: true},
		body: func(tc *Context) error {
			_, err := tc.InputFile()
			return err
		},
	}

	p := New(store, zaptest.NewLogger(t), Stage{Task: task, Input: &in})
	err := p.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, artifact.ErrNotFound)
}
