// Package metrics provides build metrics for the generator.
//
// Components receive a Recorder at construction. NoopRecorder is the default
// so the pipeline never checks for nil; PrometheusRecorder is wired in when the
// dev server runs with --metrics and its registry is served by HTTPHandler.
package metrics
