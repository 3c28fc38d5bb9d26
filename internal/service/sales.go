package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"novapos/internal/domain"
	"novapos/internal/pos"
	"novapos/internal/receipt"
	"novapos/internal/store"
)

type CartResult struct {
	Outcome string          `json:"outcome"`
	Cart    domain.CartView `json:"cart"`
}

func (s *Service) Cart() domain.CartView {
	return s.engine.Cart()
}

// AddToCart snapshots the current catalog entry for productID into the cart.
func (s *Service) AddToCart(ctx context.Context, productID string) (CartResult, error) {
	product, err := s.repo.GetProduct(ctx, strings.TrimSpace(productID))
	if err != nil {
		return CartResult{}, err
	}
	return s.dispatchCart(ctx, pos.AddItem{Product: *product})
}

func (s *Service) UpdateCartQuantity(ctx context.Context, productID string, delta int) (CartResult, error) {
	return s.dispatchCart(ctx, pos.UpdateQuantity{ProductID: strings.TrimSpace(productID), Delta: delta})
}

func (s *Service) RemoveFromCart(ctx context.Context, productID string) (CartResult, error) {
	return s.dispatchCart(ctx, pos.RemoveItem{ProductID: strings.TrimSpace(productID)})
}

func (s *Service) ClearCart(ctx context.Context) (CartResult, error) {
	return s.dispatchCart(ctx, pos.ClearCart{})
}

func (s *Service) dispatchCart(ctx context.Context, cmd pos.Command) (CartResult, error) {
	res, err := s.engine.Dispatch(ctx, cmd)
	if err != nil {
		return CartResult{}, err
	}
	return CartResult{Outcome: res.Outcome.String(), Cart: s.engine.Cart()}, nil
}

func (s *Service) Analyze(ctx context.Context, customerName string) (domain.Suggestion, error) {
	return s.engine.Analyze(ctx, customerName)
}

// Checkout validates the request, resolves an optional client and finalizes
// the cart as the signed-in actor.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.Sale, error) {
	req, err := s.prepareCheckout(ctx, req)
	if err != nil {
		return domain.Sale{}, err
	}
	actor, _ := ActorFromContext(ctx)
	return s.engine.Checkout(ctx, req, actor)
}

func (s *Service) StartQRPayment(ctx context.Context, req domain.QRPaymentRequest) (pos.QRStatus, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.ClientID = strings.TrimSpace(req.ClientID)
	if err := s.Validate(req); err != nil {
		return pos.QRStatus{}, err
	}
	customer, err := s.resolveCustomer(ctx, req.CustomerName, req.ClientID)
	if err != nil {
		return pos.QRStatus{}, err
	}
	actor, _ := ActorFromContext(ctx)
	payment, err := s.engine.StartQRPayment(ctx, domain.CheckoutRequest{
		PaymentMethod: domain.PaymentQR,
		CustomerName:  customer,
		ClientID:      req.ClientID,
	}, actor)
	if err != nil {
		return pos.QRStatus{}, err
	}
	return payment.Status(), nil
}

func (s *Service) QRStatus() (pos.QRStatus, error) {
	payment := s.engine.ActiveQR()
	if payment == nil {
		return pos.QRStatus{}, fmt.Errorf("%w: no qr payment started", store.ErrNotFound)
	}
	return payment.Status(), nil
}

// CancelQR stops the active flow. A flow that already finished keeps its status.
func (s *Service) CancelQR() (pos.QRStatus, error) {
	payment := s.engine.ActiveQR()
	if payment == nil {
		return pos.QRStatus{}, fmt.Errorf("%w: no qr payment started", store.ErrNotFound)
	}
	payment.Cancel()
	return payment.Status(), nil
}

func (s *Service) prepareCheckout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutRequest, error) {
	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.ClientID = strings.TrimSpace(req.ClientID)
	if err := s.Validate(req); err != nil {
		return req, err
	}
	customer, err := s.resolveCustomer(ctx, req.CustomerName, req.ClientID)
	if err != nil {
		return req, err
	}
	req.CustomerName = customer
	return req, nil
}

// resolveCustomer checks an optional client id and falls back to the
// client's name when no customer name was typed.
func (s *Service) resolveCustomer(ctx context.Context, customerName string, clientID string) (string, error) {
	if clientID == "" {
		return customerName, nil
	}
	client, err := s.repo.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("%w: client_id (unknown client)", store.ErrInvalid)
		}
		return "", err
	}
	if customerName == "" {
		return client.Name, nil
	}
	return customerName, nil
}

func (s *Service) ListSales(query string) []domain.Sale {
	return pos.FilterSales(s.engine.Sales(), query)
}

func (s *Service) GetSale(id string) (domain.Sale, error) {
	sale, ok := s.engine.Sale(strings.TrimSpace(id))
	if !ok {
		return domain.Sale{}, store.ErrNotFound
	}
	return sale, nil
}

func (s *Service) SaleReceipt(id string) (string, error) {
	sale, err := s.GetSale(id)
	if err != nil {
		return "", err
	}
	return receipt.Text(sale, s.businessName), nil
}

// DeleteSale voids a sale. Stock is not restored.
func (s *Service) DeleteSale(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	sale, ok := s.engine.Sale(id)
	res, err := s.engine.Dispatch(ctx, pos.DeleteSale{SaleID: id})
	if err != nil {
		return err
	}
	if res.Outcome == pos.OutcomeNotFound {
		return store.ErrNotFound
	}

	detail := ""
	if ok {
		detail = fmt.Sprintf("total=%s,method=%s", sale.Total.StringFixed(2), sale.PaymentMethod)
	}
	s.logAudit(ctx, "sale_void", "sale", id, detail)
	return nil
}

func (s *Service) ZReport() domain.ZReport {
	return s.engine.ZReport()
}

func (s *Service) WriteZReportPDF(w io.Writer) error {
	return receipt.ZReportPDF(w, s.engine.ZReport(), s.businessName)
}

// CloseDay returns the report of the day being closed and the number of
// sales removed from history.
func (s *Service) CloseDay(ctx context.Context) (domain.ZReport, int, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.ZReport{}, 0, err
	}
	res, err := s.engine.Dispatch(ctx, pos.CloseDay{})
	if err != nil {
		return domain.ZReport{}, 0, err
	}
	report := *res.Report
	s.logAudit(ctx, "close_day", "z_report", report.GeneratedAt.Format("2006-01-02"),
		fmt.Sprintf("transactions=%d,revenue=%s", res.Count, report.TotalRevenue.StringFixed(2)))
	return report, res.Count, nil
}
