// Package errors provides the classified error primitives used across the blog builder.
//
// A ClassifiedError carries a category (what failed), a severity (how much of the
// build it takes down) and structured context for logging. Builders keep call sites
// short:
//
//	err := errors.TemplateMissing("post").
//		WithContext("path", tplPath).
//		Build()
//
// The CLI adapter turns categories into process exit codes; the HTTP adapter turns
// them into status codes for the dev server.
package errors
