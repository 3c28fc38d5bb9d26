package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"novapos/internal/domain"
	"novapos/internal/store"
)

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListUsers(ctx)
}

func (s *Service) CreateUser(ctx context.Context, req domain.UserSaveRequest) (domain.User, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.User{}, err
	}
	req.ID = ""
	if strings.TrimSpace(req.Password) == "" {
		return domain.User{}, fmt.Errorf("%w: password (required)", store.ErrInvalid)
	}
	user, err := s.saveUser(ctx, req)
	if err != nil {
		return domain.User{}, err
	}
	s.logAudit(ctx, "user_create", "user", user.ID, "username="+user.Username+",role="+user.Role)
	return user, nil
}

// UpdateUser keeps the stored password hash when req.Password is empty.
func (s *Service) UpdateUser(ctx context.Context, id string, req domain.UserSaveRequest) (domain.User, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.User{}, err
	}
	req.ID = strings.TrimSpace(id)
	if req.ID == "" {
		return domain.User{}, fmt.Errorf("%w: id (required)", store.ErrInvalid)
	}
	user, err := s.saveUser(ctx, req)
	if err != nil {
		return domain.User{}, err
	}
	s.logAudit(ctx, "user_update", "user", user.ID, "role="+user.Role)
	return user, nil
}

func (s *Service) saveUser(ctx context.Context, req domain.UserSaveRequest) (domain.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if err := s.Validate(req); err != nil {
		return domain.User{}, err
	}
	if strings.ContainsAny(req.Username, " \t\r\n") {
		return domain.User{}, fmt.Errorf("%w: username must not contain spaces", store.ErrInvalid)
	}

	if req.ID != "" {
		if err := s.ensureUserExists(ctx, req.ID); err != nil {
			return domain.User{}, err
		}
	}

	user := domain.User{
		ID:       req.ID,
		Name:     req.Name,
		Username: req.Username,
		Role:     req.Role,
		Active:   req.Active == nil || *req.Active,
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return domain.User{}, fmt.Errorf("hash password: %w", err)
		}
		user.Password = string(hash)
	}

	saved, err := s.repo.SaveUser(ctx, user)
	if err != nil {
		return domain.User{}, err
	}
	return *saved, nil
}

func (s *Service) ensureUserExists(ctx context.Context, id string) error {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.ID == id {
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == actor.UserID {
		return fmt.Errorf("%w: cannot delete the signed-in user", store.ErrConflict)
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "user_delete", "user", id, "")
	return nil
}

func (s *Service) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.repo.ListClients(ctx)
}

func (s *Service) GetClient(ctx context.Context, id string) (domain.Client, error) {
	client, err := s.repo.GetClient(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Client{}, err
	}
	return *client, nil
}

func (s *Service) SaveClient(ctx context.Context, id string, req domain.ClientSaveRequest) (domain.Client, error) {
	req.ID = strings.TrimSpace(id)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.Validate(req); err != nil {
		return domain.Client{}, err
	}
	if req.ID != "" {
		if _, err := s.repo.GetClient(ctx, req.ID); err != nil {
			return domain.Client{}, err
		}
	}

	saved, err := s.repo.SaveClient(ctx, domain.Client{
		ID:      req.ID,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   strings.TrimSpace(req.Phone),
		TaxID:   strings.TrimSpace(req.TaxID),
		Address: strings.TrimSpace(req.Address),
	})
	if err != nil {
		return domain.Client{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteClient(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if err := s.repo.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "client_delete", "client", id, "")
	return nil
}

func (s *Service) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	return s.repo.ListBranches(ctx)
}

func (s *Service) SaveBranch(ctx context.Context, id string, req domain.BranchSaveRequest) (domain.Branch, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Branch{}, err
	}
	req.ID = strings.TrimSpace(id)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.Validate(req); err != nil {
		return domain.Branch{}, err
	}
	if req.ID != "" {
		if _, err := s.repo.GetBranch(ctx, req.ID); err != nil {
			return domain.Branch{}, err
		}
	}

	saved, err := s.repo.SaveBranch(ctx, domain.Branch{
		ID:      req.ID,
		Name:    req.Name,
		Address: strings.TrimSpace(req.Address),
		Phone:   strings.TrimSpace(req.Phone),
		Active:  req.Active == nil || *req.Active,
	})
	if err != nil {
		return domain.Branch{}, err
	}
	s.logAudit(ctx, "branch_save", "branch", saved.ID, "name="+saved.Name)
	return *saved, nil
}

func (s *Service) DeleteBranch(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if err := s.repo.DeleteBranch(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "branch_delete", "branch", id, "")
	return nil
}

func (s *Service) ListRegisters(ctx context.Context) ([]domain.CashRegister, error) {
	return s.repo.ListRegisters(ctx)
}

func (s *Service) SaveRegister(ctx context.Context, id string, req domain.CashRegisterSaveRequest) (domain.CashRegister, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.CashRegister{}, err
	}
	req.ID = strings.TrimSpace(id)
	req.Name = strings.TrimSpace(req.Name)
	req.BranchID = strings.TrimSpace(req.BranchID)
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if err := s.Validate(req); err != nil {
		return domain.CashRegister{}, err
	}
	if req.ID != "" {
		if _, err := s.repo.GetRegister(ctx, req.ID); err != nil {
			return domain.CashRegister{}, err
		}
	}
	if _, err := s.repo.GetBranch(ctx, req.BranchID); err != nil {
		return domain.CashRegister{}, fmt.Errorf("%w: branch_id (unknown branch)", store.ErrInvalid)
	}

	saved, err := s.repo.SaveRegister(ctx, domain.CashRegister{
		ID:       req.ID,
		Name:     req.Name,
		BranchID: req.BranchID,
		Status:   req.Status,
	})
	if err != nil {
		return domain.CashRegister{}, err
	}
	s.logAudit(ctx, "register_save", "cash_register", saved.ID,
		"name="+saved.Name+",branch="+saved.BranchName+",status="+saved.Status)
	return *saved, nil
}

// DeleteRegister refuses registers that still have an open session.
func (s *Service) DeleteRegister(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if err := s.repo.DeleteRegister(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "register_delete", "cash_register", id, "")
	return nil
}
