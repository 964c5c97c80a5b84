package starlark

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"

	"github.com/leapstack-labs/leapmacro/internal/testutil"
	"github.com/leapstack-labs/leapmacro/pkg/macro"
)

func TestOwner_ServesOnOneThread(t *testing.T) {
	owner := NewOwner(WithThreadName("macros"))

	var (
		mu   sync.Mutex
		seen = map[*starlark.Thread]int{}
	)
	served := make(chan error, 1)
	go func() {
		served <- owner.Serve(context.Background(), func(_ context.Context, thread *starlark.Thread, req *macro.Request) (string, error) {
			mu.Lock()
			seen[thread]++
			mu.Unlock()
			return macro.Source(macro.String(req.Macro.Export)), nil
		})
	}()

	cb := owner.Callback()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, err := cb.Call(context.Background(), &macro.Request{Macro: macro.Identity{Source: "./m", Export: "x"}})
			assert.NoError(t, err)
			assert.Equal(t, `"x"`, text)
		}()
	}
	wg.Wait()

	owner.Close()
	require.NoError(t, <-served)

	require.Len(t, seen, 1)
	assert.Equal(t, 8, seen[owner.Thread()])
	assert.Equal(t, "macros", owner.Thread().Name)
}

func TestOwner_CloseFailsCallers(t *testing.T) {
	owner := NewOwner()
	owner.Close()

	_, err := owner.Callback().Call(context.Background(), &macro.Request{})
	assert.ErrorIs(t, err, macro.ErrHandleClosed)
}

func TestOwner_PrintGoesToLogger(t *testing.T) {
	logger, buf := testutil.NewCaptureLogger()
	owner := NewOwner(WithLogger(logger))

	_, err := starlark.ExecFile(owner.Thread(), "p.star", `print("hello from macro")`, nil) //nolint:staticcheck // SA1019: will migrate to ExecFileOptions later
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "hello from macro")
}

func TestOwner_Load(t *testing.T) {
	owner := NewOwner(WithLoad(func(_ *starlark.Thread, module string) (starlark.StringDict, error) {
		return starlark.StringDict{"name": starlark.String(module)}, nil
	}))

	g, err := starlark.ExecFile(owner.Thread(), "l.star", `load("lib.star", "name")
x = name`, nil) //nolint:staticcheck // SA1019: will migrate to ExecFileOptions later
	require.NoError(t, err)
	assert.Equal(t, starlark.String("lib.star"), g["x"])
}
