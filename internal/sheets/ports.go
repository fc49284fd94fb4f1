package sheets

import (
	"context"

	"cashflow/internal/core"
)

// Ports for the spreadsheet export target.
type (
	MovementWriter interface {
		AppendMovement(ctx context.Context, m core.Movement) (rowRef string, err error)
	}

	// MovementDeleter removes the row of a journal entry. Deleting an entry
	// that has no row is not an error.
	MovementDeleter interface {
		DeleteMovement(ctx context.Context, id int64) error
	}

	// MovementReplacer rewrites the whole export from the journal.
	MovementReplacer interface {
		ReplaceMovements(ctx context.Context, ms []core.Movement) error
	}

	Target interface {
		MovementWriter
		MovementDeleter
		MovementReplacer
	}
)

// Header is the first row of every export sheet.
var Header = []string{"ID", "Date", "Description", "Amount", "Kind", "Account"}
