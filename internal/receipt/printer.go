package receipt

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"galla/backend/internal/logging"
)

type Printer interface {
	Print(ctx context.Context, payload []byte) error
}

// NetworkPrinter writes raw ESC/POS to a printer listening on TCP (port 9100
// on most thermal printers).
type NetworkPrinter struct {
	Addr    string
	Timeout time.Duration
}

func (p NetworkPrinter) Print(ctx context.Context, payload []byte) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	_, err = conn.Write(payload)
	return err
}

type NoopPrinter struct{}

func (NoopPrinter) Print(_ context.Context, _ []byte) error {
	return nil
}

// Dispatcher prints receipts off the request path. A failed print never
// affects the committed transaction; it is logged and dropped.
type Dispatcher struct {
	printer Printer
	logger  *logrus.Logger
	queue   chan Receipt
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

func NewDispatcher(printer Printer, logger *logrus.Logger, buffer int) *Dispatcher {
	if printer == nil {
		printer = NoopPrinter{}
	}
	if buffer < 1 {
		buffer = 16
	}
	d := &Dispatcher{
		printer: printer,
		logger:  logger,
		queue:   make(chan Receipt, buffer),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Enqueue never blocks. When the queue is full or the dispatcher is closed
// the receipt is dropped and logged so checkout latency does not depend on
// the printer.
func (d *Dispatcher) Enqueue(r Receipt) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		if d.logger != nil {
			d.logger.WithFields(logrus.Fields{"module": "receipt", "ref": r.Ref}).Warn("dispatcher closed, receipt dropped")
		}
		return
	}
	select {
	case d.queue <- r:
	default:
		if d.logger != nil {
			d.logger.WithFields(logrus.Fields{"module": "receipt", "ref": r.Ref}).Warn("print queue full, receipt dropped")
		}
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for r := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := d.printer.Print(ctx, r.Payload())
		cancel()
		if err != nil {
			logging.LogError(d.logger, "receipt", "Dispatcher.run", "print receipt", r.Ref, err)
		}
	}
}

// Close drains queued receipts and stops the worker.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
	return nil
}
