package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID          = "run_id"
	KeyOperation      = "operation"
	KeyAssignment     = "assignment"
	KeyRepo           = "repository"
	KeyPrincipal      = "principal"
	KeyPrincipalClass = "principal_class"
	KeyPermission     = "permission"
	KeyPrevious       = "previous"
	KeyMutation       = "mutation"
	KeyDryRun         = "dry_run"
	KeyURL            = "url"
	KeyStatus         = "status"
	KeyCount          = "count"
	KeyDurationMS     = "duration_ms"
	KeyError          = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr         { return slog.String(KeyRunID, id) }
func Operation(op string) slog.Attr     { return slog.String(KeyOperation, op) }
func Assignment(a string) slog.Attr     { return slog.String(KeyAssignment, a) }
func Repository(r string) slog.Attr     { return slog.String(KeyRepo, r) }
func Principal(p string) slog.Attr      { return slog.String(KeyPrincipal, p) }
func PrincipalClass(c string) slog.Attr { return slog.String(KeyPrincipalClass, c) }
func Permission(p string) slog.Attr     { return slog.String(KeyPermission, p) }
func Previous(p string) slog.Attr       { return slog.String(KeyPrevious, p) }
func Mutation(kind string) slog.Attr    { return slog.String(KeyMutation, kind) }
func DryRun(b bool) slog.Attr           { return slog.Bool(KeyDryRun, b) }
func URL(u string) slog.Attr            { return slog.String(KeyURL, u) }
func Status(code int) slog.Attr         { return slog.Int(KeyStatus, code) }
func Count(n int) slog.Attr             { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
