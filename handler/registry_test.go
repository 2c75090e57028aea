package handler_test

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

func TestRegistry_Command(t *testing.T) {
	data := nop.New("data")
	shell := nop.New("shell")
	fallback := nop.New("fallback")

	testCases := []struct {
		description string
		options     []handler.Option
		profile     string
		expectID    string
		expectFound bool
	}{
		{
			description: "direct profile",
			options:     []handler.Option{handler.WithData(data), handler.WithCommand("shell", shell), handler.WithCommand(handler.Wildcard, fallback)},
			profile:     "shell",
			expectID:    "shell",
			expectFound: true,
		},
		{
			description: "wildcard fallback",
			options:     []handler.Option{handler.WithData(data), handler.WithCommand("shell", shell), handler.WithCommand(handler.Wildcard, fallback)},
			profile:     "remote",
			expectID:    "fallback",
			expectFound: true,
		},
		{
			description: "empty profile uses wildcard",
			options:     []handler.Option{handler.WithData(data), handler.WithCommand("shell", shell), handler.WithCommand(handler.Wildcard, fallback)},
			expectID:    "fallback",
			expectFound: true,
		},
		{
			description: "missing without wildcard",
			options:     []handler.Option{handler.WithData(data), handler.WithCommand("shell", shell)},
			profile:     "remote",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			registry, err := handler.NewRegistry(tc.options...)
			require.NoError(t, err)
			actual, ok := registry.Command(tc.profile)
			assert.Equal(t, tc.expectFound, ok)
			if tc.expectFound {
				assert.Equal(t, tc.expectID, actual.ID())
			}
			assert.Equal(t, "data", registry.Data().ID())
		})
	}
}

func TestRegistry_Handlers(t *testing.T) {
	data := nop.New("data")
	shared := nop.New("shared")
	other := nop.New("other")

	registry, err := handler.NewRegistry(
		handler.WithData(data),
		handler.WithCommand("b", shared),
		handler.WithCommand("a", other),
		handler.WithCommand("c", shared),
	)
	require.NoError(t, err)

	var ids []string
	for _, h := range registry.Handlers() {
		ids = append(ids, h.ID())
	}
	assert.Equal(t, []string{"data", "other", "shared"}, ids)
	assert.Equal(t, []string{"a", "b", "c"}, registry.Profiles())
}

func TestNewRegistry_Errors(t *testing.T) {
	testCases := []struct {
		description string
		options     []handler.Option
		expect      error
	}{
		{
			description: "data handler required",
			options:     []handler.Option{handler.WithCommand("shell", nop.New("shell"))},
			expect:      handler.ErrNoDataHandler,
		},
		{
			description: "distinct handlers sharing an id",
			options:     []handler.Option{handler.WithData(nop.New("x")), handler.WithCommand("shell", nop.New("x"))},
			expect:      handler.ErrDuplicateHandler,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			_, err := handler.NewRegistry(tc.options...)
			assert.ErrorIs(t, err, tc.expect)
		})
	}
}

func TestMissingError(t *testing.T) {
	err := error(&handler.MissingError{
		Profile:     "remote",
		BatchID:     "b1",
		FlowID:      "f1",
		Phase:       model.PhaseMain,
		Module:      "m1",
		ExecutionID: "e1",
	})
	assert.Equal(t, `profile "remote" is not defined (batch=b1, flow=f1, phase=main, module=m1, id=e1)`, err.Error())
	assert.True(t, errors.Is(err, handler.ErrMissingHandler))
}

func TestFactory_New(t *testing.T) {
	factory := handler.NewFactory(map[string]handler.Constructor{"nop": nop.Constructor})
	testCases := []struct {
		description string
		config      *handler.Config
		expectID    string
		expectErr   error
	}{
		{
			description: "id defaults to kind",
			config:      &handler.Config{Kind: "nop"},
			expectID:    "nop",
		},
		{
			description: "explicit id with options",
			config:      &handler.Config{ID: "sim", Kind: "nop", Options: map[string]interface{}{"delayMs": 1}},
			expectID:    "sim",
		},
		{
			description: "unknown kind",
			config:      &handler.Config{Kind: "ftp"},
			expectErr:   handler.ErrUnknownKind,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			actual, err := factory.New(context.Background(), tc.config)
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectID, actual.ID())
		})
	}
	assert.Equal(t, []string{"nop"}, factory.Kinds())
}
