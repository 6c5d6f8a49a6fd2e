// Package metrics provides observability hooks for template rendering and
// site builds.
//
// Components receive a Recorder through their options and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	renderer := twig.NewRenderer(cfg, bus, services, twig.WithRecorder(recorder))
//
// PrometheusRecorder forwards to a Prometheus registry; HTTPHandler exposes
// that registry for scraping (the watch command serves it when a metrics
// address is configured).
package metrics
