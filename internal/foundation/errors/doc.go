// Package errors provides the classified error primitives used across pagebuilder.
//
// Errors carry a category (config, template, plugin, content, ...), a severity
// and a free-form context map. They are built with a fluent builder:
//
//	err := errors.TemplateError("search path is not a directory").
//		WithContext("path", dir).
//		WithCause(statErr).
//		Build()
//
// Template engine failures raised while rendering are deliberately NOT wrapped
// into classified errors; callers receive the engine's error value unchanged.
package errors
