package store

import (
	"context"
	"errors"

	"novapos/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
	ErrConflict = errors.New("conflict")
)

type Repository interface {
	ListProducts(ctx context.Context, includeDrafts bool) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	SaveProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	// DecrementStock applies every adjustment or none. Products without
	// tracked stock are skipped and tracked stock never drops below zero.
	DecrementStock(ctx context.Context, adjustments []domain.StockAdjustment) error

	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	SaveUser(ctx context.Context, user domain.User) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error

	ListClients(ctx context.Context) ([]domain.Client, error)
	GetClient(ctx context.Context, id string) (*domain.Client, error)
	SaveClient(ctx context.Context, client domain.Client) (*domain.Client, error)
	DeleteClient(ctx context.Context, id string) error

	ListBranches(ctx context.Context) ([]domain.Branch, error)
	GetBranch(ctx context.Context, id string) (*domain.Branch, error)
	GetBranchByName(ctx context.Context, name string) (*domain.Branch, error)
	SaveBranch(ctx context.Context, branch domain.Branch) (*domain.Branch, error)
	DeleteBranch(ctx context.Context, id string) error

	ListRegisters(ctx context.Context) ([]domain.CashRegister, error)
	GetRegister(ctx context.Context, id string) (*domain.CashRegister, error)
	SaveRegister(ctx context.Context, register domain.CashRegister) (*domain.CashRegister, error)
	DeleteRegister(ctx context.Context, id string) error
	OpenAllRegisters(ctx context.Context) (int, error)

	// CreateSession requires the register to be closed and flips it open.
	CreateSession(ctx context.Context, session domain.CashSession) (*domain.CashSession, error)
	// CloseSession stores the closing fields and flips the register closed.
	CloseSession(ctx context.Context, session domain.CashSession) (*domain.CashSession, error)
	GetSession(ctx context.Context, id string) (*domain.CashSession, error)
	ListSessions(ctx context.Context) ([]domain.CashSession, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
}
