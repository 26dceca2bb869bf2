// Package main implements a load generator that drives concurrent issue and return traffic
// against the lending ledger and checks the copy invariants when it stops.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger-go/app/features/command/addbook"
	"github.com/AntonStoeckl/lending-ledger-go/app/features/command/issuebook"
	"github.com/AntonStoeckl/lending-ledger-go/app/features/command/returnbook"
	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell/config"
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

const statsInterval = 10 * time.Second

// Ledger is what the load generator drives.
type Ledger interface {
	issuebook.Ledger
	returnbook.Ledger
	addbook.Ledger
	VerifyInvariants(ctx context.Context) ([]ledger.InvariantViolation, error)
}

// LoadGenerator issues and returns books at a fixed rate on behalf of simulated borrowers.
type LoadGenerator struct {
	ledger Ledger
	config Config

	addBookHandler    addbook.CommandHandler
	issueBookHandler  issuebook.CommandHandler
	returnBookHandler returnbook.CommandHandler

	admin     shell.Caller
	borrowers []uuid.UUID
	bookIDs   []uuid.UUID

	// Loans the generator believes are open, per borrower. The ledger stays the source of truth.
	heldMu sync.Mutex
	held   map[uuid.UUID][]uuid.UUID

	stopChan chan struct{}
	stopOnce sync.Once
	loopDone chan struct{}
	wg       sync.WaitGroup

	requests atomic.Int64
	issued   atomic.Int64
	returned atomic.Int64
	rejected atomic.Int64
	failed   atomic.Int64
	started  atomic.Int64
}

// NewLoadGenerator creates a LoadGenerator. With obs set, command retries are reported as metrics.
func NewLoadGenerator(l Ledger, cfg Config, obs *config.LedgerObservability) *LoadGenerator {
	var (
		addOptions    []addbook.Option
		issueOptions  []issuebook.Option
		returnOptions []returnbook.Option
	)

	if obs != nil {
		addOptions = append(addOptions, addbook.WithRetryOptions(
			shell.WithRetryMetrics(obs.Metrics, addbook.Command{}.CommandType())))
		issueOptions = append(issueOptions, issuebook.WithRetryOptions(
			shell.WithRetryMetrics(obs.Metrics, issuebook.Command{}.CommandType())))
		returnOptions = append(returnOptions, returnbook.WithRetryOptions(
			shell.WithRetryMetrics(obs.Metrics, returnbook.Command{}.CommandType())))
	}

	borrowers := make([]uuid.UUID, cfg.Borrowers)
	for i := range borrowers {
		borrowers[i] = uuid.New()
	}

	return &LoadGenerator{
		ledger:            l,
		config:            cfg,
		addBookHandler:    addbook.NewCommandHandler(l, addOptions...),
		issueBookHandler:  issuebook.NewCommandHandler(l, issueOptions...),
		returnBookHandler: returnbook.NewCommandHandler(l, returnOptions...),
		admin:             shell.Caller{BorrowerID: uuid.New(), Role: shell.RoleAdmin},
		borrowers:         borrowers,
		held:              make(map[uuid.UUID][]uuid.UUID),
		stopChan:          make(chan struct{}),
		loopDone:          make(chan struct{}),
	}
}

// Seed adds the initial books through the Add Book use case.
func (lg *LoadGenerator) Seed(ctx context.Context) error {
	ctx = shell.WithCaller(ctx, lg.admin)

	for i := 0; i < lg.config.InitialBooks; i++ {
		command, err := addbook.BuildCommand(
			"Load Test Book "+strconv.Itoa(i+1),
			"Load Generator",
			2000+i%25,
			1+rand.IntN(lg.config.MaxCopies), //nolint:gosec
		)
		if err != nil {
			return err
		}

		book, _, err := lg.addBookHandler.Handle(ctx, command)
		if err != nil {
			return fmt.Errorf("adding book %d: %w", i+1, err)
		}

		lg.bookIDs = append(lg.bookIDs, book.ID)
	}

	log.Printf("Seeded %d books", len(lg.bookIDs))

	return nil
}

// Start generates load until the context is canceled or Stop is called.
func (lg *LoadGenerator) Start(ctx context.Context) error {
	defer close(lg.loopDone)

	if len(lg.bookIDs) == 0 {
		return errors.New("no books seeded")
	}

	lg.started.Store(time.Now().UnixNano())

	ticker := time.NewTicker(time.Second / time.Duration(lg.config.Rate))
	defer ticker.Stop()

	statsTicker := time.NewTicker(statsInterval)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-lg.stopChan:
			return nil

		case <-statsTicker.C:
			lg.logStats()

		case <-ticker.C:
			lg.wg.Add(1)
			go func() {
				defer lg.wg.Done()
				lg.runScenario(ctx)
			}()
		}
	}
}

// Stop ends load generation and waits for in-flight scenarios. Start must have been called.
func (lg *LoadGenerator) Stop(ctx context.Context) error {
	lg.stopOnce.Do(func() { close(lg.stopChan) })

	defer lg.logStats()

	select {
	case <-lg.loopDone:
	case <-ctx.Done():
		return fmt.Errorf("waiting for the load loop: %w", ctx.Err())
	}

	done := make(chan struct{})
	go func() {
		lg.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight scenarios: %w", ctx.Err())
	}
}

// Verify checks the copy invariants of every book and logs each violation.
func (lg *LoadGenerator) Verify(ctx context.Context) error {
	violations, err := lg.ledger.VerifyInvariants(ctx)
	for _, violation := range violations {
		log.Printf("Invariant violation: book=%s total=%d available=%d open_loans=%d reason=%s",
			violation.BookID, violation.TotalCopies, violation.CopiesAvailable, violation.OpenLoans, violation.Reason)
	}

	if err != nil {
		return err
	}

	log.Printf("Invariants hold for all books")

	return nil
}

// runScenario lets a random borrower return a held book or issue a random one.
func (lg *LoadGenerator) runScenario(ctx context.Context) {
	lg.requests.Add(1)

	borrowerID := lg.borrowers[rand.IntN(len(lg.borrowers))] //nolint:gosec
	ctx = shell.WithCaller(ctx, shell.Caller{BorrowerID: borrowerID, Role: shell.RoleBorrower})

	if bookID, ok := lg.pickHeldBook(borrowerID); ok && rand.IntN(100) < lg.config.ReturnPercent { //nolint:gosec
		_, _, err := lg.returnBookHandler.Handle(ctx, returnbook.BuildCommand(bookID))
		if lg.record(err, &lg.returned) || errors.Is(err, ledger.ErrNoOpenLoan) {
			lg.release(borrowerID, bookID)
		}

		return
	}

	bookID := lg.bookIDs[rand.IntN(len(lg.bookIDs))] //nolint:gosec

	_, _, err := lg.issueBookHandler.Handle(ctx, issuebook.BuildCommand(bookID))
	if lg.record(err, &lg.issued) || errors.Is(err, ledger.ErrAlreadyBorrowed) {
		lg.hold(borrowerID, bookID)
	}
}

// record counts the outcome and reports whether the command succeeded.
func (lg *LoadGenerator) record(err error, success *atomic.Int64) bool {
	switch {
	case err == nil:
		success.Add(1)
		return true
	case ledger.IsBusinessError(err):
		lg.rejected.Add(1)
	case errors.Is(err, context.Canceled):
	default:
		lg.failed.Add(1)
		log.Printf("Command failed: %v", err)
	}

	return false
}

func (lg *LoadGenerator) pickHeldBook(borrowerID uuid.UUID) (uuid.UUID, bool) {
	lg.heldMu.Lock()
	defer lg.heldMu.Unlock()

	books := lg.held[borrowerID]
	if len(books) == 0 {
		return uuid.Nil, false
	}

	return books[rand.IntN(len(books))], true //nolint:gosec
}

func (lg *LoadGenerator) hold(borrowerID, bookID uuid.UUID) {
	lg.heldMu.Lock()
	defer lg.heldMu.Unlock()

	for _, held := range lg.held[borrowerID] {
		if held == bookID {
			return
		}
	}

	lg.held[borrowerID] = append(lg.held[borrowerID], bookID)
}

func (lg *LoadGenerator) release(borrowerID, bookID uuid.UUID) {
	lg.heldMu.Lock()
	defer lg.heldMu.Unlock()

	books := lg.held[borrowerID]
	for i, held := range books {
		if held == bookID {
			lg.held[borrowerID] = append(books[:i], books[i+1:]...)
			return
		}
	}
}

func (lg *LoadGenerator) logStats() {
	elapsed := time.Since(time.Unix(0, lg.started.Load())).Seconds()
	if lg.started.Load() == 0 || elapsed <= 0 {
		elapsed = 1
	}

	requests := lg.requests.Load()

	log.Printf("Stats: requests=%d (%.1f/s) issued=%d returned=%d rejected=%d failed=%d",
		requests, float64(requests)/elapsed,
		lg.issued.Load(), lg.returned.Load(), lg.rejected.Load(), lg.failed.Load())
}
