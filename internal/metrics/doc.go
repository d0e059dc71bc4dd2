// Package metrics provides observability hooks for assignctl runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics never require nil checks at call sites:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	client, _ := forge.NewClient(forge.ClientConfig{..., Recorder: rec})
//
// assignctl is a one-shot CLI, so metrics are exported by writing the
// registry to a node_exporter textfile (WriteTextfile) once a command finishes.
package metrics
