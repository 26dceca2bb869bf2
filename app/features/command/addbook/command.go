package addbook

import (
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

const (
	commandType = "AddBook"
)

// Command represents the intent of an admin to add a book to the catalog.
type Command struct {
	Draft ledger.BookDraft
}

// CommandType returns the type identifier for this command, used for observability.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand validates the admin input and creates a new Command.
func BuildCommand(title, author string, publishedYear, totalCopies int) (Command, error) {
	draft, err := ledger.BuildBookDraft(title, author, publishedYear, totalCopies)
	if err != nil {
		return Command{}, err
	}

	return Command{Draft: draft}, nil
}
