// Package phaser runs batches of flows. A batch is a dependency graph of
// flows; every flow goes through the fixed phase sequence (setup, initialize,
// import, prologue, main, epilogue, export, finalize, cleanup) and every
// phase runs its executions through handlers bound by profile.
//
// The root Service builds handlers, job schedulers, execution locks and
// monitors from a Config and hands out tasks:
//
//	srv, _ := phaser.New(ctx, phaser.WithConfig(config))
//	defer srv.Close(ctx)
//	aTask, _ := srv.Task(map[string]string{"date": "2024-01-01"}, nil)
//	err := aTask.ExecuteBatch(ctx, "nightly")
//
// For more details see the individual sub-packages.
package phaser
