package job

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/phaser/handler"
	"github.com/viant/phaser/handler/nop"
	"github.com/viant/phaser/model"
)

func newRegistry(t *testing.T, wildcard bool) *handler.Registry {
	options := []handler.Option{
		handler.WithData(nop.New("data")),
		handler.WithCommand("shell", nop.New("shell")),
	}
	if wildcard {
		options = append(options, handler.WithCommand(handler.Wildcard, nop.New("any")))
	}
	registry, err := handler.NewRegistry(options...)
	require.NoError(t, err)
	return registry
}

func TestBind(t *testing.T) {
	ectx, err := model.NewContext("b1", "f1", "x1", model.PhaseMain, map[string]string{"day": "mon"})
	require.NoError(t, err)

	testCases := []struct {
		description string
		wildcard    bool
		execution   *model.Execution
		expectLabel string
		expectErr   string
	}{
		{
			description: "command profile",
			execution:   &model.Execution{ID: "e1", Kind: model.KindCommand, Profile: "shell", Command: []string{"echo", "${day}"}},
			expectLabel: "e1@shell",
		},
		{
			description: "wildcard profile",
			wildcard:    true,
			execution:   &model.Execution{ID: "e2", Kind: model.KindCommand, Profile: "remote", Command: []string{"ls"}},
			expectLabel: "e2@any",
		},
		{
			description: "data execution ignores profile",
			execution:   &model.Execution{ID: "e3", Kind: model.KindData, Profile: "unknown", ClassName: "Stage"},
			expectLabel: "e3@data",
		},
		{
			description: "missing profile",
			execution:   &model.Execution{ID: "e4", Kind: model.KindCommand, Profile: "remote", Module: "m1"},
			expectErr:   `profile "remote" is not defined (batch=b1, flow=f1, phase=main, module=m1, id=e4)`,
		},
		{
			description: "unresolved argument",
			execution:   &model.Execution{ID: "e5", Kind: model.KindCommand, Profile: "shell", Command: []string{"${month}"}},
			expectErr:   "unresolved",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			j, err := Bind(newRegistry(t, tc.wildcard), ectx, tc.execution)
			if tc.expectErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.execution.ID, j.ID())
			assert.Equal(t, tc.expectLabel, j.Label())
			assert.Equal(t, tc.execution.ResourceID, j.ResourceID())
		})
	}
}

func TestBind_MissingHandler(t *testing.T) {
	ectx, err := model.NewContext("b1", "f1", "x1", model.PhaseImport, nil)
	require.NoError(t, err)
	_, err = Bind(newRegistry(t, false), ectx, &model.Execution{ID: "e1", Kind: model.KindCommand, Profile: "remote"})
	var missing *handler.MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "remote", missing.Profile)
	assert.Equal(t, model.PhaseImport, missing.Phase)
	assert.ErrorIs(t, err, handler.ErrMissingHandler)
}

func TestBind_ResolvesArguments(t *testing.T) {
	registry := newRegistry(t, false)
	ectx, err := model.NewContext("b1", "f1", "x1", model.PhaseMain, map[string]string{"day": "mon"})
	require.NoError(t, err)
	execution := &model.Execution{ID: "e1", Kind: model.KindCommand, Profile: "shell", Command: []string{"echo", "${day}"}, BlockerIDs: []string{"e0"}, ResourceID: "db"}
	j, err := Bind(registry, ectx, execution)
	require.NoError(t, err)
	assert.Equal(t, []string{"e0"}, j.BlockerIDs())
	assert.Equal(t, "db", j.ResourceID())
	require.NoError(t, j.Execute(context.Background(), nil, ectx))
	shell, _ := registry.Command("shell")
	assert.Equal(t, []string{"e1"}, shell.(*nop.Handler).Jobs(model.PhaseMain))
	assert.Equal(t, []string{"echo", "${day}"}, execution.Command)
}

func TestLifecycleJobs(t *testing.T) {
	h := nop.New("shell")
	ectx, err := model.NewContext("b1", "f1", "x1", model.PhaseSetup, nil)
	require.NoError(t, err)

	setup := Setup(h)
	assert.Equal(t, "shell", setup.ID())
	assert.Equal(t, "shell:setup", setup.Label())
	require.NoError(t, setup.Execute(context.Background(), nil, ectx))

	cleanup := Cleanup(h)
	assert.Equal(t, "shell:cleanup", cleanup.Label())
	require.NoError(t, cleanup.Execute(context.Background(), nil, ectx.WithPhase(model.PhaseCleanup)))

	calls := h.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, nop.MethodSetup, calls[0].Method)
	assert.Equal(t, nop.MethodCleanup, calls[1].Method)
}
