package memory

import (
	"context"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"novapos/internal/domain"
	"novapos/internal/store"
	"novapos/internal/xid"
)

type Store struct {
	mu             sync.RWMutex
	products       map[string]domain.Product
	productOrder   []string
	usersByID      map[string]domain.User
	clientsByID    map[string]domain.Client
	branchesByID   map[string]domain.Branch
	registersByID  map[string]domain.CashRegister
	sessionsByID   map[string]domain.CashSession
	openByRegister map[string]string
	auditLogs      []domain.AuditLog
}

// New returns an empty store.
func New() *Store {
	return &Store{
		products:       make(map[string]domain.Product),
		usersByID:      make(map[string]domain.User),
		clientsByID:    make(map[string]domain.Client),
		branchesByID:   make(map[string]domain.Branch),
		registersByID:  make(map[string]domain.CashRegister),
		sessionsByID:   make(map[string]domain.CashSession),
		openByRegister: make(map[string]string),
		auditLogs:      make([]domain.AuditLog, 0, 128),
	}
}

// seedUsers builds the demo accounts. Passwords come from SEED_ADMIN_PASSWORD
// and SEED_CASHIER_PASSWORD, with dev defaults and a warning when unset.
func seedUsers(now time.Time) []domain.User {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Warn().Str("component", "memory-store").Msg("using default dev credentials, set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override")
	}

	users := make([]domain.User, 0, 2)
	for _, u := range []struct {
		id       string
		name     string
		username string
		password string
		role     string
	}{
		{"user-admin", "Ana Admin", "admin", adminPwd, domain.RoleAdmin},
		{"user-cashier", "Carlos Cashier", "cashier", cashierPwd, domain.RoleCashier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal().Err(err).Str("username", u.username).Msg("hash seed password")
		}
		users = append(users, domain.User{
			ID:        u.id,
			Name:      u.name,
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		})
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func stock(n int) *int {
	return &n
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// NewSeeded returns a store holding the demo café catalog, accounts,
// branches and registers.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	products := []domain.Product{
		{ID: "1", Name: "Artisan Cappuccino", Price: price("4.50"), Category: domain.CategoryCoffee, Stock: stock(120)},
		{ID: "2", Name: "Vanilla Latte", Price: price("5.00"), Category: domain.CategoryCoffee, Stock: stock(120)},
		{ID: "3", Name: "Double Espresso", Price: price("3.50"), Category: domain.CategoryCoffee},
		{ID: "9", Name: "Matcha Latte", Price: price("5.25"), Category: domain.CategoryCoffee, Stock: stock(60)},
		{ID: "11", Name: "White Mocha", Price: price("5.75"), Category: domain.CategoryCoffee, Stock: stock(60)},
		{ID: "12", Name: "Cold Brew", Price: price("4.25"), Category: domain.CategoryCoffee, Stock: stock(40)},
		{ID: "4", Name: "Strawberry Cheesecake", Price: price("6.50"), Category: domain.CategoryDesserts, Stock: stock(12)},
		{ID: "8", Name: "Brownie with Ice Cream", Price: price("5.50"), Category: domain.CategoryDesserts, Stock: stock(15)},
		{ID: "13", Name: "Lemon Tart", Price: price("5.00"), Category: domain.CategoryDesserts, Stock: stock(10)},
		{ID: "14", Name: "Blueberry Muffin", Price: price("3.50"), Category: domain.CategoryDesserts, Stock: stock(24)},
		{ID: "15", Name: "Chocolate Chip Cookie", Price: price("2.50"), Category: domain.CategoryDesserts, Stock: stock(40)},
		{ID: "5", Name: "Butter Croissant", Price: price("3.00"), Category: domain.CategoryFood, Stock: stock(30)},
		{ID: "6", Name: "Club Sandwich", Price: price("8.50"), Category: domain.CategoryFood, Stock: stock(20)},
		{ID: "16", Name: "Salmon Bagel", Price: price("9.00"), Category: domain.CategoryFood, Stock: stock(12)},
		{ID: "7", Name: "Fresh Orange Juice", Price: price("4.00"), Category: domain.CategoryDrinks, Stock: stock(25)},
		{ID: "10", Name: "Sparkling Water", Price: price("2.00"), Category: domain.CategoryDrinks},
	}
	for _, p := range products {
		p.Status = domain.ProductStatusActive
		s.products[p.ID] = p
		s.productOrder = append(s.productOrder, p.ID)
	}

	for _, u := range seedUsers(now) {
		s.usersByID[u.ID] = u
	}

	for _, b := range []domain.Branch{
		{ID: "branch-central", Name: "Central", Address: "100 Main Street", Phone: "555-0100", Active: true},
		{ID: "branch-north", Name: "North", Address: "42 Harbor Avenue", Phone: "555-0142", Active: true},
	} {
		s.branchesByID[b.ID] = b
	}

	for _, r := range []domain.CashRegister{
		{ID: "register-1", Name: "Register 1", BranchID: "branch-central", BranchName: "Central"},
		{ID: "register-2", Name: "Register 2", BranchID: "branch-central", BranchName: "Central"},
		{ID: "register-3", Name: "Register 1", BranchID: "branch-north", BranchName: "North"},
	} {
		r.Status = domain.RegisterStatusClosed
		s.registersByID[r.ID] = r
	}

	s.clientsByID["client-1"] = domain.Client{
		ID:        "client-1",
		Name:      "Lucia Fernandez",
		Email:     "lucia@example.com",
		Phone:     "555-0199",
		CreatedAt: now,
	}

	return s
}

func (s *Store) ListProducts(_ context.Context, includeDrafts bool) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productOrder))
	for _, id := range s.productOrder {
		p := s.products[id]
		if !includeDrafts && !p.IsActive() {
			continue
		}
		products = append(products, cloneProduct(p))
	}
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := cloneProduct(product)
	return &copyProduct, nil
}

// SaveProduct updates a product in place or prepends a new one.
func (s *Store) SaveProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(product.Name) == "" || product.Price.IsNegative() {
		return nil, store.ErrInvalid
	}
	if product.Stock != nil && *product.Stock < 0 {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		product.ID = xid.New("product")
	}
	if product.Status == "" {
		product.Status = domain.ProductStatusActive
	}
	if _, exists := s.products[product.ID]; !exists {
		s.productOrder = append([]string{product.ID}, s.productOrder...)
	}
	s.products[product.ID] = cloneProduct(product)
	saved := cloneProduct(product)
	return &saved, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.products, id)
	s.productOrder = slices.DeleteFunc(s.productOrder, func(v string) bool { return v == id })
	return nil
}

func (s *Store) DecrementStock(_ context.Context, adjustments []domain.StockAdjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, adj := range adjustments {
		if adj.Qty < 0 {
			return store.ErrInvalid
		}
	}

	for _, adj := range adjustments {
		product, exists := s.products[adj.ProductID]
		if !exists || product.Stock == nil {
			continue
		}
		product.Stock = stock(max(*product.Stock-adj.Qty, 0))
		s.products[adj.ProductID] = product
	}
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.usersByID))
	for _, user := range s.usersByID {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	username = strings.ToLower(strings.TrimSpace(username))
	for _, user := range s.usersByID {
		if user.Username == username {
			copyUser := user
			return &copyUser, nil
		}
	}
	return nil, store.ErrNotFound
}

// SaveUser upserts by id. An empty password on update keeps the stored hash.
func (s *Store) SaveUser(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Name) == "" {
		return nil, store.ErrInvalid
	}
	for id, existing := range s.usersByID {
		if existing.Username == user.Username && id != user.ID {
			return nil, store.ErrConflict
		}
	}

	if existing, exists := s.usersByID[user.ID]; exists && user.ID != "" {
		if user.Password == "" {
			user.Password = existing.Password
		}
		user.CreatedAt = existing.CreatedAt
	} else {
		if user.Password == "" {
			return nil, store.ErrInvalid
		}
		if user.ID == "" {
			user.ID = xid.New("user")
		}
		if user.CreatedAt.IsZero() {
			user.CreatedAt = time.Now().UTC()
		}
	}
	if user.Role == "" {
		user.Role = domain.RoleCashier
	}

	s.usersByID[user.ID] = user
	saved := user
	return &saved, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.usersByID, id)
	return nil
}

func (s *Store) ListClients(_ context.Context) ([]domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := make([]domain.Client, 0, len(s.clientsByID))
	for _, client := range s.clientsByID {
		clients = append(clients, client)
	}
	slices.SortFunc(clients, func(a, b domain.Client) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return clients, nil
}

func (s *Store) GetClient(_ context.Context, id string) (*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, exists := s.clientsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &client, nil
}

func (s *Store) SaveClient(_ context.Context, client domain.Client) (*domain.Client, error) {
	if strings.TrimSpace(client.Name) == "" {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.clientsByID[client.ID]; exists && client.ID != "" {
		client.CreatedAt = existing.CreatedAt
	} else {
		if client.ID == "" {
			client.ID = xid.New("client")
		}
		if client.CreatedAt.IsZero() {
			client.CreatedAt = time.Now().UTC()
		}
	}
	s.clientsByID[client.ID] = client
	saved := client
	return &saved, nil
}

func (s *Store) DeleteClient(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clientsByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.clientsByID, id)
	return nil
}

func (s *Store) ListBranches(_ context.Context) ([]domain.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	branches := make([]domain.Branch, 0, len(s.branchesByID))
	for _, branch := range s.branchesByID {
		branches = append(branches, branch)
	}
	slices.SortFunc(branches, func(a, b domain.Branch) int {
		return strings.Compare(a.Name, b.Name)
	})
	return branches, nil
}

func (s *Store) GetBranch(_ context.Context, id string) (*domain.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	branch, exists := s.branchesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &branch, nil
}

func (s *Store) GetBranchByName(_ context.Context, name string) (*domain.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, branch := range s.branchesByID {
		if strings.EqualFold(branch.Name, strings.TrimSpace(name)) {
			copyBranch := branch
			return &copyBranch, nil
		}
	}
	return nil, store.ErrNotFound
}

// SaveBranch upserts a branch and renames the branch label on its registers.
func (s *Store) SaveBranch(_ context.Context, branch domain.Branch) (*domain.Branch, error) {
	if strings.TrimSpace(branch.Name) == "" {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.branchesByID {
		if strings.EqualFold(existing.Name, branch.Name) && id != branch.ID {
			return nil, store.ErrConflict
		}
	}
	if branch.ID == "" {
		branch.ID = xid.New("branch")
	}
	s.branchesByID[branch.ID] = branch
	for id, register := range s.registersByID {
		if register.BranchID == branch.ID {
			register.BranchName = branch.Name
			s.registersByID[id] = register
		}
	}
	saved := branch
	return &saved, nil
}

func (s *Store) DeleteBranch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.branchesByID[id]; !exists {
		return store.ErrNotFound
	}
	for _, register := range s.registersByID {
		if register.BranchID == id {
			return store.ErrConflict
		}
	}
	delete(s.branchesByID, id)
	return nil
}

func (s *Store) ListRegisters(_ context.Context) ([]domain.CashRegister, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	registers := make([]domain.CashRegister, 0, len(s.registersByID))
	for _, register := range s.registersByID {
		registers = append(registers, register)
	}
	slices.SortFunc(registers, func(a, b domain.CashRegister) int {
		if c := strings.Compare(a.BranchName, b.BranchName); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return registers, nil
}

func (s *Store) GetRegister(_ context.Context, id string) (*domain.CashRegister, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	register, exists := s.registersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &register, nil
}

// SaveRegister upserts a register. An empty status keeps the current one
// (closed for new registers). A register with an open session cannot be
// set to closed here; that goes through CloseSession.
func (s *Store) SaveRegister(_ context.Context, register domain.CashRegister) (*domain.CashRegister, error) {
	if strings.TrimSpace(register.Name) == "" {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	branch, exists := s.branchesByID[register.BranchID]
	if !exists {
		return nil, store.ErrInvalid
	}
	register.BranchName = branch.Name

	switch register.Status {
	case "", domain.RegisterStatusOpen, domain.RegisterStatusClosed:
	default:
		return nil, store.ErrInvalid
	}

	if existing, exists := s.registersByID[register.ID]; exists && register.ID != "" {
		if register.Status == "" {
			register.Status = existing.Status
		}
		if _, open := s.openByRegister[register.ID]; open && register.Status != domain.RegisterStatusOpen {
			return nil, store.ErrConflict
		}
	} else {
		if register.ID == "" {
			register.ID = xid.New("register")
		}
		if register.Status == "" {
			register.Status = domain.RegisterStatusClosed
		}
	}
	s.registersByID[register.ID] = register
	saved := register
	return &saved, nil
}

func (s *Store) DeleteRegister(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.registersByID[id]; !exists {
		return store.ErrNotFound
	}
	if _, open := s.openByRegister[id]; open {
		return store.ErrConflict
	}
	delete(s.registersByID, id)
	return nil
}

func (s *Store) OpenAllRegisters(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opened := 0
	for id, register := range s.registersByID {
		if register.Status != domain.RegisterStatusOpen {
			register.Status = domain.RegisterStatusOpen
			s.registersByID[id] = register
			opened++
		}
	}
	return opened, nil
}

func (s *Store) CreateSession(_ context.Context, session domain.CashSession) (*domain.CashSession, error) {
	if strings.TrimSpace(session.RegisterID) == "" {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	register, exists := s.registersByID[session.RegisterID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if register.Status == domain.RegisterStatusOpen {
		return nil, store.ErrConflict
	}
	if _, open := s.openByRegister[register.ID]; open {
		return nil, store.ErrConflict
	}

	if session.ID == "" {
		session.ID = xid.New("session")
	}
	if session.StartTime.IsZero() {
		session.StartTime = time.Now().UTC()
	}
	session.RegisterName = register.Name
	session.BranchName = register.BranchName
	session.Status = domain.SessionStatusOpen
	session.EndTime = nil
	session.FinalCash = nil
	session.ExpectedCash = nil
	session.Variance = nil

	register.Status = domain.RegisterStatusOpen
	s.registersByID[register.ID] = register
	s.sessionsByID[session.ID] = session
	s.openByRegister[register.ID] = session.ID

	created := session
	return &created, nil
}

func (s *Store) CloseSession(_ context.Context, session domain.CashSession) (*domain.CashSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.sessionsByID[session.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if existing.Status != domain.SessionStatusOpen {
		return nil, store.ErrConflict
	}
	if session.EndTime == nil || session.FinalCash == nil {
		return nil, store.ErrInvalid
	}

	existing.Status = domain.SessionStatusClosed
	existing.EndTime = session.EndTime
	existing.FinalCash = session.FinalCash
	existing.ExpectedCash = session.ExpectedCash
	existing.Variance = session.Variance

	if register, ok := s.registersByID[existing.RegisterID]; ok {
		register.Status = domain.RegisterStatusClosed
		s.registersByID[register.ID] = register
	}
	delete(s.openByRegister, existing.RegisterID)
	s.sessionsByID[existing.ID] = existing

	closed := existing
	return &closed, nil
}

func (s *Store) GetSession(_ context.Context, id string) (*domain.CashSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessionsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &session, nil
}

func (s *Store) ListSessions(_ context.Context) ([]domain.CashSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]domain.CashSession, 0, len(s.sessionsByID))
	for _, session := range s.sessionsByID {
		sessions = append(sessions, session)
	}
	slices.SortFunc(sessions, func(a, b domain.CashSession) int {
		return b.StartTime.Compare(a.StartTime)
	})
	return sessions, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

// ListAuditLogs returns the newest entries first.
func (s *Store) ListAuditLogs(_ context.Context, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > 500 {
		limit = 100
	}
	out := make([]domain.AuditLog, 0, min(limit, len(s.auditLogs)))
	for i := len(s.auditLogs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.auditLogs[i])
	}
	return out, nil
}

func cloneProduct(src domain.Product) domain.Product {
	if src.Stock != nil {
		src.Stock = stock(*src.Stock)
	}
	return src
}
