package pos

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"novapos/internal/domain"
)

type QRPhase string

const (
	QRGenerating QRPhase = "generating"
	QRWaiting    QRPhase = "waiting"
	QRApproved   QRPhase = "approved"
	QRCompleted  QRPhase = "completed"
	QRCancelled  QRPhase = "cancelled"
	QRFailed     QRPhase = "failed"
)

const qrPayloadPrefix = "NOVAPOS_QR_FIXED_AMOUNT_"

type QRStatus struct {
	Phase   QRPhase         `json:"phase"`
	Payload string          `json:"payload"`
	Amount  decimal.Decimal `json:"amount"`
	SaleID  string          `json:"sale_id,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// QRPayment is a simulated QR approval flow. It holds the checkout pending
// flag from start until it completes, fails or is cancelled.
type QRPayment struct {
	payload string
	amount  decimal.Decimal
	cancel  context.CancelFunc
	done    chan struct{}

	mu    sync.Mutex
	phase QRPhase
	sale  domain.Sale
	err   error
}

// StartQRPayment claims the pending flag and runs the generating, waiting
// and approved phases in the background. Only approval commits a sale.
func (e *Engine) StartQRPayment(ctx context.Context, req domain.CheckoutRequest, actor domain.Actor) (*QRPayment, error) {
	totals, err := e.beginCheckout()
	if err != nil {
		return nil, err
	}
	req.PaymentMethod = domain.PaymentQR

	flowCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p := &QRPayment{
		payload: qrPayloadPrefix + totals.Total.StringFixed(2),
		amount:  totals.Total,
		cancel:  cancel,
		done:    make(chan struct{}),
		phase:   QRGenerating,
	}

	e.mu.Lock()
	e.qr = p
	e.mu.Unlock()

	e.logger.Info().Str("amount", p.amount.StringFixed(2)).Msg("qr payment started")
	go e.runQR(flowCtx, p, req, actor)
	return p, nil
}

// ActiveQR returns the most recent QR flow, or nil.
func (e *Engine) ActiveQR() *QRPayment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.qr
}

func (e *Engine) runQR(ctx context.Context, p *QRPayment, req domain.CheckoutRequest, actor domain.Actor) {
	defer close(p.done)
	defer p.cancel()

	steps := []struct {
		hold time.Duration
		next QRPhase
	}{
		{e.opts.QRGenerating, QRWaiting},
		{e.opts.QRWaiting, QRApproved},
		{e.opts.QRApproval, ""},
	}
	for _, step := range steps {
		if err := sleep(ctx, step.hold); err != nil {
			e.abortCheckout()
			p.finish(QRCancelled, domain.Sale{}, ErrQRCancelled)
			e.logger.Info().Msg("qr payment cancelled")
			return
		}
		if step.next != "" {
			p.setPhase(step.next)
		}
	}

	sale, err := e.commit(context.WithoutCancel(ctx), req, actor)
	if err != nil {
		p.finish(QRFailed, domain.Sale{}, err)
		return
	}
	p.finish(QRCompleted, sale, nil)
}

func (p *QRPayment) setPhase(phase QRPhase) {
	p.mu.Lock()
	p.phase = phase
	p.mu.Unlock()
}

func (p *QRPayment) finish(phase QRPhase, sale domain.Sale, err error) {
	p.mu.Lock()
	p.phase = phase
	p.sale = sale
	p.err = err
	p.mu.Unlock()
}

func (p *QRPayment) Payload() string {
	return p.payload
}

func (p *QRPayment) Amount() decimal.Decimal {
	return p.amount
}

func (p *QRPayment) Status() QRStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := QRStatus{Phase: p.phase, Payload: p.payload, Amount: p.amount, SaleID: p.sale.ID}
	if p.err != nil {
		status.Error = p.err.Error()
	}
	return status
}

// Done is closed once the flow has finished.
func (p *QRPayment) Done() <-chan struct{} {
	return p.done
}

// Cancel stops the flow if it has not committed yet and waits for it to
// finish. It is safe to call more than once.
func (p *QRPayment) Cancel() {
	p.cancel()
	<-p.done
}

// Result waits for the flow and returns the committed sale.
func (p *QRPayment) Result(ctx context.Context) (domain.Sale, error) {
	select {
	case <-ctx.Done():
		return domain.Sale{}, ctx.Err()
	case <-p.done:
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return domain.Sale{}, p.err
	}
	return cloneSale(p.sale), nil
}
