package editbook

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

const (
	commandType = "EditBook"
)

// Command represents the intent of an admin to change a catalog entry.
type Command struct {
	BookID uuid.UUID
	Draft  ledger.BookDraft
}

// CommandType returns the type identifier for this command, used for observability.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand validates the admin input and creates a new Command.
func BuildCommand(bookID uuid.UUID, title, author string, publishedYear, totalCopies int) (Command, error) {
	draft, err := ledger.BuildBookDraft(title, author, publishedYear, totalCopies)
	if err != nil {
		return Command{}, err
	}

	return Command{BookID: bookID, Draft: draft}, nil
}
