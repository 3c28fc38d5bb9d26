package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"novapos/internal/domain"
	"novapos/internal/store"
	"novapos/internal/xid"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates missing tables. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

const productColumns = `id, name, price, category, image, stock, status`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p     domain.Product
		stock sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Category, &p.Image, &stock, &p.Status); err != nil {
		return domain.Product{}, err
	}
	if stock.Valid {
		n := int(stock.Int64)
		p.Stock = &n
	}
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context, includeDrafts bool) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE $1 OR status = 'active'
		ORDER BY created_at DESC, name
	`, includeDrafts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) SaveProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(product.Name) == "" || product.Price.IsNegative() {
		return nil, store.ErrInvalid
	}
	if product.Stock != nil && *product.Stock < 0 {
		return nil, store.ErrInvalid
	}
	if product.ID == "" {
		product.ID = xid.New("product")
	}
	if product.Status == "" {
		product.Status = domain.ProductStatusActive
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, category, image, stock, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
		ON CONFLICT (id)
		DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price, category = EXCLUDED.category,
			image = EXCLUDED.image, stock = EXCLUDED.stock, status = EXCLUDED.status, updated_at = now()
	`, product.ID, product.Name, product.Price, product.Category, product.Image, nullInt(product.Stock), product.Status)
	if err != nil {
		return nil, err
	}
	saved := product
	return &saved, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM products WHERE id = $1`, id)
}

func (s *Store) DecrementStock(ctx context.Context, adjustments []domain.StockAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}
	for _, adj := range adjustments {
		if adj.Qty < 0 {
			return store.ErrInvalid
		}
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, adj := range adjustments {
		if adj.Qty == 0 {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = GREATEST(stock - $2, 0), updated_at = now()
			WHERE id = $1 AND stock IS NOT NULL
		`, adj.ProductID, adj.Qty)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, username, password_hash, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, 16)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.CreatedAt = u.CreatedAt.UTC()
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, username, password_hash, role, active, created_at
		FROM users
		WHERE username = $1
	`, strings.ToLower(strings.TrimSpace(username))).Scan(&u.ID, &u.Name, &u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) SaveUser(ctx context.Context, user domain.User) (*domain.User, error) {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Name) == "" {
		return nil, store.ErrInvalid
	}
	if user.Role == "" {
		user.Role = domain.RoleCashier
	}

	if user.ID != "" {
		var createdAt time.Time
		err := s.db.QueryRowContext(ctx, `
			UPDATE users
			SET name = $2, username = $3, role = $4, active = $5,
				password_hash = COALESCE(NULLIF($6, ''), password_hash)
			WHERE id = $1
			RETURNING password_hash, created_at
		`, user.ID, user.Name, user.Username, user.Role, user.Active, user.Password).Scan(&user.Password, &createdAt)
		if err == nil {
			user.CreatedAt = createdAt.UTC()
			return &user, nil
		}
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	if user.Password == "" {
		return nil, store.ErrInvalid
	}
	if user.ID == "" {
		user.ID = xid.New("user")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, username, password_hash, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, user.ID, user.Name, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone, tax_id, address, created_at
		FROM clients
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := make([]domain.Client, 0, 32)
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.TaxID, &c.Address, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *Store) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	var c domain.Client
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, tax_id, address, created_at
		FROM clients
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.TaxID, &c.Address, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) SaveClient(ctx context.Context, client domain.Client) (*domain.Client, error) {
	if strings.TrimSpace(client.Name) == "" {
		return nil, store.ErrInvalid
	}
	if client.ID == "" {
		client.ID = xid.New("client")
	}
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO clients (id, name, email, phone, tax_id, address, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id)
		DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, phone = EXCLUDED.phone,
			tax_id = EXCLUDED.tax_id, address = EXCLUDED.address
		RETURNING created_at
	`, client.ID, client.Name, client.Email, client.Phone, client.TaxID, client.Address, client.CreatedAt).Scan(&client.CreatedAt)
	if err != nil {
		return nil, err
	}
	client.CreatedAt = client.CreatedAt.UTC()
	return &client, nil
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM clients WHERE id = $1`, id)
}

func (s *Store) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, address, phone, active FROM branches ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	branches := make([]domain.Branch, 0, 8)
	for rows.Next() {
		var b domain.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.Phone, &b.Active); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return branches, nil
}

func (s *Store) GetBranch(ctx context.Context, id string) (*domain.Branch, error) {
	return s.getBranch(ctx, `id = $1`, id)
}

func (s *Store) GetBranchByName(ctx context.Context, name string) (*domain.Branch, error) {
	return s.getBranch(ctx, `lower(name) = lower($1)`, strings.TrimSpace(name))
}

func (s *Store) getBranch(ctx context.Context, where string, arg string) (*domain.Branch, error) {
	var b domain.Branch
	err := s.db.QueryRowContext(ctx, `SELECT id, name, address, phone, active FROM branches WHERE `+where, arg).
		Scan(&b.ID, &b.Name, &b.Address, &b.Phone, &b.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (s *Store) SaveBranch(ctx context.Context, branch domain.Branch) (*domain.Branch, error) {
	if strings.TrimSpace(branch.Name) == "" {
		return nil, store.ErrInvalid
	}
	if branch.ID == "" {
		branch.ID = xid.New("branch")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO branches (id, name, address, phone, active)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id)
		DO UPDATE SET name = EXCLUDED.name, address = EXCLUDED.address, phone = EXCLUDED.phone, active = EXCLUDED.active
	`, branch.ID, branch.Name, branch.Address, branch.Phone, branch.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return &branch, nil
}

func (s *Store) DeleteBranch(ctx context.Context, id string) error {
	var registers int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM cash_registers WHERE branch_id = $1`, id).Scan(&registers); err != nil {
		return err
	}
	if registers > 0 {
		return store.ErrConflict
	}
	return s.deleteByID(ctx, `DELETE FROM branches WHERE id = $1`, id)
}

const registerSelect = `
	SELECT r.id, r.name, r.branch_id, b.name, r.status
	FROM cash_registers r
	JOIN branches b ON b.id = r.branch_id
`

func (s *Store) ListRegisters(ctx context.Context) ([]domain.CashRegister, error) {
	rows, err := s.db.QueryContext(ctx, registerSelect+` ORDER BY b.name, r.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	registers := make([]domain.CashRegister, 0, 8)
	for rows.Next() {
		var r domain.CashRegister
		if err := rows.Scan(&r.ID, &r.Name, &r.BranchID, &r.BranchName, &r.Status); err != nil {
			return nil, err
		}
		registers = append(registers, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return registers, nil
}

func (s *Store) GetRegister(ctx context.Context, id string) (*domain.CashRegister, error) {
	var r domain.CashRegister
	err := s.db.QueryRowContext(ctx, registerSelect+` WHERE r.id = $1`, id).
		Scan(&r.ID, &r.Name, &r.BranchID, &r.BranchName, &r.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *Store) SaveRegister(ctx context.Context, register domain.CashRegister) (*domain.CashRegister, error) {
	if strings.TrimSpace(register.Name) == "" {
		return nil, store.ErrInvalid
	}
	branch, err := s.GetBranch(ctx, register.BranchID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrInvalid
		}
		return nil, err
	}
	switch register.Status {
	case "", domain.RegisterStatusOpen, domain.RegisterStatusClosed:
	default:
		return nil, store.ErrInvalid
	}
	if register.ID == "" {
		register.ID = xid.New("register")
	}
	if register.Status == domain.RegisterStatusClosed {
		var open int
		if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM cash_sessions WHERE register_id = $1 AND status = 'open'`, register.ID).Scan(&open); err != nil {
			return nil, err
		}
		if open > 0 {
			return nil, store.ErrConflict
		}
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO cash_registers (id, name, branch_id, status)
		VALUES ($1,$2,$3,COALESCE(NULLIF($4,''),'closed'))
		ON CONFLICT (id)
		DO UPDATE SET name = EXCLUDED.name, branch_id = EXCLUDED.branch_id,
			status = COALESCE(NULLIF($4,''), cash_registers.status)
		RETURNING status
	`, register.ID, register.Name, register.BranchID, register.Status).Scan(&register.Status)
	if err != nil {
		return nil, err
	}
	register.BranchName = branch.Name
	return &register, nil
}

func (s *Store) DeleteRegister(ctx context.Context, id string) error {
	var open int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM cash_sessions WHERE register_id = $1 AND status = 'open'`, id).Scan(&open); err != nil {
		return err
	}
	if open > 0 {
		return store.ErrConflict
	}
	return s.deleteByID(ctx, `DELETE FROM cash_registers WHERE id = $1`, id)
}

func (s *Store) OpenAllRegisters(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE cash_registers SET status = 'open' WHERE status <> 'open'`)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (s *Store) CreateSession(ctx context.Context, session domain.CashSession) (*domain.CashSession, error) {
	if strings.TrimSpace(session.RegisterID) == "" {
		return nil, store.ErrInvalid
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var register domain.CashRegister
	err = tx.QueryRowContext(ctx, `
		SELECT r.id, r.name, r.branch_id, b.name, r.status
		FROM cash_registers r
		JOIN branches b ON b.id = r.branch_id
		WHERE r.id = $1
		FOR UPDATE OF r
	`, session.RegisterID).Scan(&register.ID, &register.Name, &register.BranchID, &register.BranchName, &register.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if register.Status == domain.RegisterStatusOpen {
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
	session.EndTime, session.FinalCash, session.ExpectedCash, session.Variance = nil, nil, nil, nil

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cash_sessions (
			id, user_id, user_name, register_id, register_name, branch_name,
			start_time, initial_cash, status, notes
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, session.ID, session.UserID, session.UserName, session.RegisterID, session.RegisterName, session.BranchName,
		session.StartTime, session.InitialCash, session.Status, session.Notes)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE cash_registers SET status = 'open' WHERE id = $1`, register.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Store) CloseSession(ctx context.Context, session domain.CashSession) (*domain.CashSession, error) {
	if session.EndTime == nil || session.FinalCash == nil {
		return nil, store.ErrInvalid
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := scanSession(tx.QueryRowContext(ctx, sessionSelect+` WHERE id = $1 FOR UPDATE`, session.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if existing.Status != domain.SessionStatusOpen {
		return nil, store.ErrConflict
	}

	existing.Status = domain.SessionStatusClosed
	existing.EndTime = session.EndTime
	existing.FinalCash = session.FinalCash
	existing.ExpectedCash = session.ExpectedCash
	existing.Variance = session.Variance

	_, err = tx.ExecContext(ctx, `
		UPDATE cash_sessions
		SET status = $2, end_time = $3, final_cash = $4, expected_cash = $5, variance = $6
		WHERE id = $1
	`, existing.ID, existing.Status, *existing.EndTime, *existing.FinalCash, nullDecimal(existing.ExpectedCash), nullDecimal(existing.Variance))
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE cash_registers SET status = 'closed' WHERE id = $1`, existing.RegisterID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &existing, nil
}

const sessionSelect = `
	SELECT id, user_id, user_name, register_id, register_name, branch_name, start_time, initial_cash,
		end_time, final_cash, expected_cash, variance, status, notes
	FROM cash_sessions
`

func scanSession(row rowScanner) (domain.CashSession, error) {
	var (
		cs       domain.CashSession
		endTime  sql.NullTime
		final    decimal.NullDecimal
		expected decimal.NullDecimal
		variance decimal.NullDecimal
	)
	err := row.Scan(&cs.ID, &cs.UserID, &cs.UserName, &cs.RegisterID, &cs.RegisterName, &cs.BranchName, &cs.StartTime,
		&cs.InitialCash, &endTime, &final, &expected, &variance, &cs.Status, &cs.Notes)
	if err != nil {
		return domain.CashSession{}, err
	}
	cs.StartTime = cs.StartTime.UTC()
	if endTime.Valid {
		t := endTime.Time.UTC()
		cs.EndTime = &t
	}
	cs.FinalCash = decimalPtr(final)
	cs.ExpectedCash = decimalPtr(expected)
	cs.Variance = decimalPtr(variance)
	return cs, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*domain.CashSession, error) {
	cs, err := scanSession(s.db.QueryRowContext(ctx, sessionSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &cs, nil
}

func (s *Store) ListSessions(ctx context.Context) ([]domain.CashSession, error) {
	rows, err := s.db.QueryContext(ctx, sessionSelect+` ORDER BY start_time DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]domain.CashSession, 0, 32)
	for rows.Next() {
		cs, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) deleteByID(ctx context.Context, query string, id string) error {
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullInt(val *int) any {
	if val == nil {
		return nil
	}
	return *val
}

func nullDecimal(val *decimal.Decimal) any {
	if val == nil {
		return nil
	}
	return *val
}

func decimalPtr(val decimal.NullDecimal) *decimal.Decimal {
	if !val.Valid {
		return nil
	}
	d := val.Decimal
	return &d
}
