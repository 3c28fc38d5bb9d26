package service

import (
	"context"
	"fmt"
	"strings"

	"novapos/internal/domain"
	"novapos/internal/pos"
)

func (s *Service) ListSessions(ctx context.Context) ([]domain.CashSession, error) {
	return s.repo.ListSessions(ctx)
}

func (s *Service) OpenSession(ctx context.Context, req domain.SessionOpenRequest) (domain.CashSession, error) {
	req.RegisterID = strings.TrimSpace(req.RegisterID)
	if err := s.Validate(req); err != nil {
		return domain.CashSession{}, err
	}
	actor, _ := ActorFromContext(ctx)

	res, err := s.engine.Dispatch(ctx, pos.OpenSession{
		RegisterID:  req.RegisterID,
		User:        actor,
		InitialCash: req.InitialCash,
		Notes:       req.Notes,
	})
	if err != nil {
		return domain.CashSession{}, err
	}
	session := *res.Session
	s.logAudit(ctx, "session_open", "cash_session", session.ID,
		fmt.Sprintf("register=%s,initial=%s", session.RegisterID, session.InitialCash.StringFixed(2)))
	return session, nil
}

func (s *Service) CloseSession(ctx context.Context, id string, req domain.SessionCloseRequest) (domain.CashSession, error) {
	if err := s.Validate(req); err != nil {
		return domain.CashSession{}, err
	}

	res, err := s.engine.Dispatch(ctx, pos.CloseSession{SessionID: strings.TrimSpace(id), FinalCash: req.FinalCash})
	if err != nil {
		return domain.CashSession{}, err
	}
	session := *res.Session
	s.logAudit(ctx, "session_close", "cash_session", session.ID,
		fmt.Sprintf("final=%s,expected=%s,variance=%s",
			session.FinalCash.StringFixed(2), session.ExpectedCash.StringFixed(2), session.Variance.StringFixed(2)))
	return session, nil
}

func (s *Service) OpenAllRegisters(ctx context.Context) (int, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return 0, err
	}
	res, err := s.engine.Dispatch(ctx, pos.OpenAllRegisters{})
	if err != nil {
		return 0, err
	}
	s.logAudit(ctx, "registers_open_all", "cash_register", "*", fmt.Sprintf("opened=%d", res.Count))
	return res.Count, nil
}
