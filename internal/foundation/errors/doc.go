// Package errors provides classified error primitives used across assignctl.
//
// A ClassifiedError carries a category (config, validation, forge, provision,
// reconcile, ...), a severity, an advisory retry strategy and a context map.
// Package-level sentinels are matched with the standard errors.Is; decorating a
// sentinel with WithContext returns a copy.
//
//	err := errors.ForgeError("list repositories failed").
//		WithContext("url", u).
//		WithContext("status", 502).
//		WithCause(cause).
//		Build()
package errors
