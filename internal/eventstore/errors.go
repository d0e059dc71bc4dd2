package eventstore

import (
	"git.home.luguber.info/inful/assignctl/internal/foundation/errors"
)

// Sentinel errors for journal operations. Journal failures are warnings: the
// run that produced the record continues.
var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.JournalError("could not open journal database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = errors.JournalError("failed to initialize journal schema").Build()

	// ErrEventAppendFailed indicates appending an event failed.
	ErrEventAppendFailed = errors.JournalError("failed to append event to journal").Build()

	// ErrEventQueryFailed indicates querying events failed.
	ErrEventQueryFailed = errors.JournalError("failed to query events from journal").Build()

	ErrMarshalPayloadFailed   = errors.JournalError("failed to marshal event payload").Build()
	ErrUnmarshalPayloadFailed = errors.JournalError("failed to unmarshal event payload").Build()

	// ErrRunNotFound indicates no journal entry carries the requested run id.
	ErrRunNotFound = errors.NewError(errors.CategoryNotFound, "run not found in journal").Build()
)
