package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "assignctl.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}

		file, exists := err.Context().GetString("file")
		if !exists || file != "assignctl.yaml" {
			t.Errorf("expected context file=assignctl.yaml, got %v", file)
		}
	})

	t.Run("Error detection", func(t *testing.T) {
		err := ConfigError("test error").Build()

		if !IsClassified(err) {
			t.Error("expected error to be classified")
		}
		if !HasCategory(err, CategoryConfig) {
			t.Error("expected error to have config category")
		}
		if !HasSeverity(err, SeverityFatal) {
			t.Error("expected error to have fatal severity")
		}
		if err.ConvergesOnNextRun() {
			t.Error("expected config error to need user action")
		}
		if !err.IsFatal() {
			t.Error("expected config error to be fatal")
		}
	})

	t.Run("Detection through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", ReconcileError("write failed").Build())
		if GetCategory(err) != CategoryReconcile {
			t.Errorf("expected reconcile category, got %s", GetCategory(err))
		}
		if GetCategory(errors.New("plain")) != CategoryInternal {
			t.Error("expected unclassified errors to map to internal")
		}
	})
}

func TestSentinelDecoration(t *testing.T) {
	sentinel := ForgeError("fetch failed").Build()

	decorated := sentinel.WithContext("url", "https://example/api").WithContext("status", 500)

	if !errors.Is(decorated, sentinel) {
		t.Fatal("decorated error should match its sentinel")
	}
	if _, ok := sentinel.Context().Get("url"); ok {
		t.Fatal("decorating must not mutate the sentinel context")
	}
	status, ok := decorated.Context().GetInt("status")
	if !ok || status != 500 {
		t.Errorf("expected status=500, got %v", status)
	}

	cause := errors.New("connection reset")
	withCause := sentinel.WithCause(cause)
	if !errors.Is(withCause, cause) || !errors.Is(withCause, sentinel) {
		t.Error("expected cause and sentinel to both match")
	}
	if errors.Is(withCause, ForgeError("other").Build()) {
		t.Error("different message must not match")
	}
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Fluent API", func(t *testing.T) {
		originalErr := errors.New("original error")
		err := WrapError(originalErr, CategoryNetwork, "network failure").
			Warning().
			NextRun().
			WithContext("host", "example.com").
			WithContext("port", 443).
			Build()

		if err.Category() != CategoryNetwork {
			t.Errorf("expected category %s, got %s", CategoryNetwork, err.Category())
		}
		if err.Severity() != SeverityWarning {
			t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
		}
		if err.RetryStrategy() != RetryNextRun {
			t.Errorf("expected retry strategy %s, got %s", RetryNextRun, err.RetryStrategy())
		}
		if !errors.Is(err, originalErr) {
			t.Error("expected error to wrap original error")
		}

		host, _ := err.Context().GetString("host")
		if host != "example.com" {
			t.Errorf("expected host context 'example.com', got %s", host)
		}
	})

	t.Run("Convenience constructors", func(t *testing.T) {
		tests := []struct {
			name     string
			builder  *ErrorBuilder
			category ErrorCategory
			severity ErrorSeverity
			retry    RetryStrategy
		}{
			{"ConfigError", ConfigError("test"), CategoryConfig, SeverityFatal, RetryUserAction},
			{"ValidationError", ValidationError("test"), CategoryValidation, SeverityFatal, RetryNever},
			{"AuthError", AuthError("test"), CategoryAuth, SeverityError, RetryUserAction},
			{"NetworkError", NetworkError("test"), CategoryNetwork, SeverityError, RetryNextRun},
			{"ForgeError", ForgeError("test"), CategoryForge, SeverityError, RetryNextRun},
			{"ProvisionError", ProvisionError("test"), CategoryProvision, SeverityError, RetryNextRun},
			{"ReconcileError", ReconcileError("test"), CategoryReconcile, SeverityError, RetryNextRun},
			{"JournalError", JournalError("test"), CategoryJournal, SeverityWarning, RetryNever},
			{"InternalError", InternalError("test"), CategoryInternal, SeverityFatal, RetryNever},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.builder.Build()
				if err.Category() != tt.category {
					t.Errorf("expected category %s, got %s", tt.category, err.Category())
				}
				if err.Severity() != tt.severity {
					t.Errorf("expected severity %s, got %s", tt.severity, err.Severity())
				}
				if err.RetryStrategy() != tt.retry {
					t.Errorf("expected retry strategy %s, got %s", tt.retry, err.RetryStrategy())
				}
			})
		}
	})
}

func TestErrorContext(t *testing.T) {
	ctx1 := make(ErrorContext)
	ctx1 = ctx1.Set("key1", "value1")
	ctx1 = ctx1.Set("shared", "original")

	ctx2 := make(ErrorContext)
	ctx2 = ctx2.Set("key2", "value2")
	ctx2 = ctx2.Set("shared", "overridden")

	merged := ctx1.Merge(ctx2)

	value1, _ := merged.GetString("key1")
	value2, _ := merged.GetString("key2")
	shared, _ := merged.GetString("shared")

	if value1 != "value1" || value2 != "value2" {
		t.Errorf("expected both keys merged, got %s/%s", value1, value2)
	}
	if shared != "overridden" {
		t.Errorf("expected shared=overridden, got %s", shared)
	}
	if orig, _ := ctx1.GetString("shared"); orig != "original" {
		t.Errorf("merge must not mutate receiver, got %s", orig)
	}
}
