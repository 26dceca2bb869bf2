package returnbook

import (
	"github.com/google/uuid"
)

const (
	commandType = "ReturnBook"
)

// Command represents the intent of the calling borrower to return a book.
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
