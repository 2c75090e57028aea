package batch_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/service/dao/batch"
)

const yamlBatch = `
id: nightly
flows:
  extract:
    main:
      - id: pull
        profile: shell
        module: etl
        command: [pull.sh, "${date}"]
        env:
          MODE: full
  load:
    blockers: extract
    phases:
      main:
        - id: aggregate
          className: com.example.Aggregate
          properties:
            level: "2"
      cleanup:
        - id: tidy
          profile: shell
          command: [tidy.sh]
`

const hclBatch = `
batch "nightly" {
  flow "extract" {
    phase "main" {
      execution "pull" {
        profile = "shell"
        module  = "etl"
        command = ["pull.sh", args.date]
        env     = { MODE = "full" }
      }
    }
  }
  flow "load" {
    blockers = ["extract"]
    phase "main" {
      execution "aggregate" {
        class_name = "com.example.Aggregate"
        properties = { level = "2" }
      }
    }
  }
}
`

func TestDecode(t *testing.T) {
	testCases := []struct {
		description   string
		URL           string
		data          string
		expectCommand []string
	}{
		{
			description:   "yaml keeps placeholders",
			URL:           "nightly.yaml",
			data:          yamlBatch,
			expectCommand: []string{"pull.sh", "${date}"},
		},
		{
			description:   "hcl evaluates arguments",
			URL:           "nightly.hcl",
			data:          hclBatch,
			expectCommand: []string{"pull.sh", "2024-01-01"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			aBatch, err := batch.Decode(tc.URL, []byte(tc.data), map[string]string{"date": "2024-01-01"})
			require.NoError(t, err)
			assert.Equal(t, "nightly", aBatch.ID)
			assert.Equal(t, tc.URL, aBatch.Source)
			assert.Equal(t, []string{"extract", "load"}, aBatch.FlowIDs())

			pull := aBatch.Flow("extract").PhaseExecutions(model.PhaseMain)
			require.Len(t, pull, 1)
			assert.Equal(t, model.KindCommand, pull[0].Kind)
			assert.Equal(t, "shell", pull[0].Profile)
			assert.Equal(t, "etl", pull[0].Module)
			assert.Equal(t, tc.expectCommand, pull[0].Command)
			assert.Equal(t, map[string]string{"MODE": "full"}, pull[0].Env)

			load := aBatch.Flow("load")
			assert.Equal(t, []string{"extract"}, load.BlockerIDs)
			aggregate := load.PhaseExecutions(model.PhaseMain)
			require.Len(t, aggregate, 1)
			assert.Equal(t, model.KindData, aggregate[0].Kind)
			assert.Equal(t, "com.example.Aggregate", aggregate[0].ClassName)
			assert.Equal(t, map[string]string{"level": "2"}, aggregate[0].Properties)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	testCases := []struct {
		description string
		URL         string
		data        string
		expectErr   error
	}{
		{description: "unsupported format", URL: "b.json", data: "{}", expectErr: batch.ErrUnsupportedFormat},
		{description: "unknown phase", URL: "b.yaml", data: "id: b\nflows:\n  A:\n    later: []\n", expectErr: model.ErrUnknownPhase},
		{description: "unknown blocker", URL: "b.yaml", data: "id: b\nflows:\n  - id: A\n    blockers: [Z]\n", expectErr: model.ErrInvalidBatch},
		{description: "missing hcl argument", URL: "b.hcl", data: hclBatch},
		{description: "two hcl batches", URL: "b.hcl", data: "batch \"a\" {}\nbatch \"b\" {}\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			_, err := batch.Decode(tc.URL, []byte(tc.data), nil)
			require.Error(t, err)
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
			}
		})
	}
}

func TestService_Batch(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	baseURL := "mem://localhost/phaser/batches"
	require.NoError(t, fs.Upload(ctx, baseURL+"/nightly.hcl", file.DefaultFileOsMode, bytes.NewReader([]byte(hclBatch))))
	require.NoError(t, fs.Upload(ctx, baseURL+"/other.yaml", file.DefaultFileOsMode, bytes.NewReader([]byte(yamlBatch))))

	srv := batch.New(batch.WithFileSystem(fs), batch.WithBaseURL(baseURL), batch.WithArguments(map[string]string{"date": "d1"}))
	aBatch, err := srv.Batch(ctx, "nightly")
	require.NoError(t, err)
	assert.Equal(t, baseURL+"/nightly.hcl", aBatch.Source)
	assert.Equal(t, []string{"pull.sh", "d1"}, aBatch.Flow("extract").PhaseExecutions(model.PhaseMain)[0].Command)

	cached, err := srv.Batch(ctx, "nightly")
	require.NoError(t, err)
	assert.Same(t, aBatch, cached)

	_, err = srv.Batch(ctx, "missing")
	assert.ErrorIs(t, err, batch.ErrNotFound)

	_, err = srv.Batch(ctx, "other")
	assert.ErrorIs(t, err, model.ErrInvalidBatch)
}
