package issuebook

import (
	"github.com/google/uuid"
)

const (
	commandType = "IssueBook"
)

// Command represents the intent of the calling borrower to borrow a book.
// The borrower is not part of the command, it is the authenticated caller.
type Command struct {
	BookID uuid.UUID
}

// CommandType returns the type identifier for this command, used for observability.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command.
func BuildCommand(bookID uuid.UUID) Command {
	return Command{BookID: bookID}
}
