package pos

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"novapos/internal/domain"
)

// Outcome reports what a command did when it did not fail. Ignored and
// NotFound are expected results, not errors.
type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeIgnored
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeNotFound:
		return "not_found"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Command is the closed set of mutations accepted by Engine.Dispatch.
type Command interface {
	isCommand()
}

type AddItem struct {
	Product domain.Product
}

type UpdateQuantity struct {
	ProductID string
	Delta     int
}

type RemoveItem struct {
	ProductID string
}

type ClearCart struct{}

type DeleteSale struct {
	SaleID string
}

type CloseDay struct{}

type OpenSession struct {
	RegisterID  string
	User        domain.Actor
	InitialCash decimal.Decimal
	Notes       string
}

type CloseSession struct {
	SessionID string
	FinalCash decimal.Decimal
}

type OpenAllRegisters struct{}

func (AddItem) isCommand()          {}
func (UpdateQuantity) isCommand()   {}
func (RemoveItem) isCommand()       {}
func (ClearCart) isCommand()        {}
func (DeleteSale) isCommand()       {}
func (CloseDay) isCommand()         {}
func (OpenSession) isCommand()      {}
func (CloseSession) isCommand()     {}
func (OpenAllRegisters) isCommand() {}

type Result struct {
	Outcome Outcome
	// Session is set by OpenSession and CloseSession.
	Session *domain.CashSession
	// Count is the number of sales removed by CloseDay or registers opened
	// by OpenAllRegisters.
	Count int
	// Report is set by CloseDay and covers exactly the removed sales.
	Report *domain.ZReport
}

func (e *Engine) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	switch c := cmd.(type) {
	case AddItem:
		return e.addItem(c)
	case UpdateQuantity:
		return e.updateQuantity(c)
	case RemoveItem:
		return e.removeItem(c)
	case ClearCart:
		return e.clearCart()
	case DeleteSale:
		return e.deleteSale(c)
	case CloseDay:
		return e.closeDay()
	case OpenSession:
		return e.openSession(ctx, c)
	case CloseSession:
		return e.closeSession(ctx, c)
	case OpenAllRegisters:
		return e.openAllRegisters(ctx)
	default:
		return Result{}, fmt.Errorf("%w: %T", ErrInvalidCommand, cmd)
	}
}
