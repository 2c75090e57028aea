package dispatch

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/phaser/handler"
	"github.com/viant/phaser/handler/nop"
	"github.com/viant/phaser/model"
)

func newDelegates() map[string]handler.Handler {
	return map[string]handler.Handler{
		DefaultDelegate: nop.New("local"),
		"remote":        nop.New("remote"),
		"gpu":           nop.New("gpu"),
	}
}

func TestHandler_Resolve(t *testing.T) {
	routes := map[string]string{
		"train.main.fit": "gpu",
		"train.main.*":   "remote",
		"load.*":         "remote",
	}
	testCases := []struct {
		description string
		batchID     string
		flowID      string
		phase       model.Phase
		executionID string
		expect      string
		expectErr   bool
	}{
		{description: "execution specific", batchID: "b1", flowID: "train", phase: model.PhaseMain, executionID: "fit", expect: "gpu"},
		{description: "phase wildcard", batchID: "b1", flowID: "train", phase: model.PhaseMain, executionID: "score", expect: "remote"},
		{description: "flow wildcard", batchID: "b1", flowID: "load", phase: model.PhaseImport, executionID: "x", expect: "remote"},
		{description: "default", batchID: "b1", flowID: "train", phase: model.PhaseExport, executionID: "x", expect: "local"},
		{description: "batch without routes", batchID: "b2", flowID: "train", phase: model.PhaseMain, executionID: "fit", expect: "local"},
	}
	h, err := New("dispatch", newDelegates(), WithRoutes("b1", routes))
	require.NoError(t, err)
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			ectx, err := model.NewContext(tc.batchID, tc.flowID, "x1", tc.phase, nil)
			require.NoError(t, err)
			target, err := h.Resolve(context.Background(), ectx, tc.executionID)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, target.ID())
		})
	}
}

func TestHandler_InvalidTarget(t *testing.T) {
	h, err := New("dispatch", newDelegates(), WithRoutes("b1", map[string]string{"*": "missing"}))
	require.NoError(t, err)
	ectx, err := model.NewContext("b1", "f1", "x1", model.PhaseMain, nil)
	require.NoError(t, err)
	err = h.Execute(context.Background(), nil, ectx, &model.Execution{ID: "e1"})
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestNew_Validation(t *testing.T) {
	_, err := New("dispatch", map[string]handler.Handler{"remote": nop.New("remote")})
	assert.ErrorIs(t, err, ErrNoDefault)
	_, err = New("dispatch", newDelegates(), WithSetup("missing"))
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestHandler_Lifecycle(t *testing.T) {
	delegates := newDelegates()
	h, err := New("dispatch", delegates, WithCleanup("remote"), WithRoutes("b1", map[string]string{"f1.*": "gpu"}))
	require.NoError(t, err)
	ectx, err := model.NewContext("b1", "f1", "x1", model.PhaseSetup, nil)
	require.NoError(t, err)
	require.NoError(t, h.Setup(context.Background(), nil, ectx))
	require.NoError(t, h.Cleanup(context.Background(), nil, ectx.WithPhase(model.PhaseCleanup)))

	assert.Len(t, delegates["gpu"].(*nop.Handler).Calls(), 1)
	assert.Equal(t, nop.MethodCleanup, delegates["remote"].(*nop.Handler).Calls()[0].Method)
	assert.Empty(t, delegates[DefaultDelegate].(*nop.Handler).Calls())
}

func TestHandler_ConfURL(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	baseURL := "mem://localhost/dispatch/conf"
	err := fs.Upload(ctx, baseURL+"/b1.yaml", file.DefaultFileOsMode, bytes.NewReader([]byte("\"f1.main.*\": remote\n")))
	require.NoError(t, err)

	h, err := New("dispatch", newDelegates(), WithConfURL(fs, baseURL))
	require.NoError(t, err)
	testCases := []struct {
		description string
		batchID     string
		expect      string
	}{
		{description: "routes from file", batchID: "b1", expect: "remote"},
		{description: "missing file", batchID: "b9", expect: "local"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			ectx, err := model.NewContext(tc.batchID, "f1", "x1", model.PhaseMain, nil)
			require.NoError(t, err)
			target, err := h.Resolve(ctx, ectx, "e1")
			require.NoError(t, err)
			assert.Equal(t, tc.expect, target.ID())
		})
	}
}

func TestConstructor(t *testing.T) {
	factory := handler.NewFactory(map[string]handler.Constructor{"nop": nop.Constructor})
	factory.Register("dispatch", Constructor)
	h, err := factory.New(context.Background(), &handler.Config{
		ID:   "route",
		Kind: "dispatch",
		Options: map[string]interface{}{
			"delegates": map[string]interface{}{
				"default": map[string]interface{}{"kind": "nop"},
				"remote":  map[string]interface{}{"kind": "nop", "id": "far"},
			},
			"routes": map[string]interface{}{
				"b1": map[string]interface{}{"*": "remote"},
			},
		},
	})
	require.NoError(t, err)
	ectx, err := model.NewContext("b1", "f1", "x1", model.PhaseMain, nil)
	require.NoError(t, err)
	target, err := h.(*Handler).Resolve(context.Background(), ectx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "far", target.ID())

	ectx, err = model.NewContext("b2", "f1", "x1", model.PhaseMain, nil)
	require.NoError(t, err)
	target, err = h.(*Handler).Resolve(context.Background(), ectx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "route.default", target.ID())
}
