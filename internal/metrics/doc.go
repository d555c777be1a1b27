// Package metrics provides optional instrumentation for sync runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	engine := syncer.New(ctx, syncer.WithRecorder(metrics.NoopRecorder{}))
//
// To collect metrics, swap in a PrometheusRecorder. Since metasync is a
// short-lived CLI, metrics are exported by writing a node_exporter textfile
// after the run instead of serving an HTTP endpoint:
//
//	recorder := metrics.NewPrometheusRecorder(nil)
//	engine := syncer.New(ctx, syncer.WithRecorder(recorder))
//	_, _ = engine.Sync()
//	_ = recorder.WriteTextfile("/var/lib/node_exporter/metasync.prom")
package metrics
