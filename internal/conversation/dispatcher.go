package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrDispatcherClosed = errors.New("диспетчер остановлен")
	ErrMailboxFull      = errors.New("очередь событий чата переполнена")
)

type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

type DispatcherOptions struct {
	MailboxSize           int
	MaxConcurrentSessions int
	IdleTimeout           time.Duration
	HandleTimeout         time.Duration
}

// Dispatcher держит по одной очереди на чат: события одного чата
// обрабатываются строго по порядку, разные чаты - параллельно,
// но не больше MaxConcurrentSessions одновременно.
type Dispatcher struct {
	handler Handler
	opts    DispatcherOptions
	logger  *zap.Logger

	mu        sync.Mutex
	mailboxes map[int64]chan Event
	closed    bool
	sem       chan struct{}
	wg        sync.WaitGroup
}

func NewDispatcher(handler Handler, opts DispatcherOptions, logger *zap.Logger) *Dispatcher {
	if opts.MailboxSize <= 0 {
		opts.MailboxSize = 32
	}
	if opts.MaxConcurrentSessions <= 0 {
		opts.MaxConcurrentSessions = 50
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = time.Minute
	}
	if opts.HandleTimeout <= 0 {
		opts.HandleTimeout = 45 * time.Second
	}
	return &Dispatcher{
		handler:   handler,
		opts:      opts,
		logger:    logger.Named("dispatcher"),
		mailboxes: make(map[int64]chan Event),
		sem:       make(chan struct{}, opts.MaxConcurrentSessions),
	}
}

// Submit кладёт событие в очередь чата и сразу возвращается.
func (d *Dispatcher) Submit(ev Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	box, ok := d.mailboxes[ev.ChatID]
	if !ok {
		box = make(chan Event, d.opts.MailboxSize)
		d.mailboxes[ev.ChatID] = box
		d.wg.Add(1)
		go d.drain(ev.ChatID, box)
	}

	select {
	case box <- ev:
		return nil
	default:
		d.logger.Warn("очередь чата переполнена, событие отброшено", zap.Int64("chat_id", ev.ChatID))
		return ErrMailboxFull
	}
}

func (d *Dispatcher) drain(chatID int64, box chan Event) {
	defer d.wg.Done()
	idle := time.NewTimer(d.opts.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case ev, ok := <-box:
			if !ok {
				return
			}
			d.handle(ev)
			idle.Reset(d.opts.IdleTimeout)
		case <-idle.C:
			d.mu.Lock()
			// Submit пишет под тем же мьютексом, так что пустая очередь
			// здесь гарантирует, что событие не потеряется.
			if len(box) > 0 || d.closed {
				d.mu.Unlock()
				idle.Reset(d.opts.IdleTimeout)
				continue
			}
			delete(d.mailboxes, chatID)
			d.mu.Unlock()
			return
		}
	}
}

func (d *Dispatcher) handle(ev Event) {
	d.sem <- struct{}{}
	defer func() { <-d.sem }()
	defer d.recoverPanic(ev.ChatID)

	ctx, cancel := context.WithTimeout(context.Background(), d.opts.HandleTimeout)
	defer cancel()

	if err := d.handler.Handle(ctx, ev); err != nil {
		d.logger.Error("событие не обработано", zap.Int64("chat_id", ev.ChatID), zap.Error(err))
	}
}

func (d *Dispatcher) recoverPanic(chatID int64) {
	if r := recover(); r != nil {
		d.logger.Error("PANIC при обработке события",
			zap.Int64("chat_id", chatID),
			zap.Any("panic", r),
			zap.Stack("stacktrace"))
	}
}

// Stop перестаёт принимать события и ждёт обработки уже принятых.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, box := range d.mailboxes {
			close(box)
		}
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) Run(ctx context.Context) error {
	<-ctx.Done()
	d.Stop()
	return nil
}
