package kanban

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lightthouse/stirki/internal/entities"
	apperrors "github.com/Lightthouse/stirki/pkg/errors"
)

// OrderStore - то, что синхронизации нужно от хранилища заказов.
type OrderStore interface {
	FindByID(ctx context.Context, id int64) (*entities.Order, error)
	AttachExternalCard(ctx context.Context, id int64, cardID int64) error
}

type Options struct {
	QueueSize  int
	Workers    int
	JobTimeout time.Duration
}

type jobKind int

const (
	jobCreateCard jobKind = iota
	jobMoveCard
)

func (k jobKind) String() string {
	if k == jobCreateCard {
		return "create_card"
	}
	return "move_card"
}

type job struct {
	id     uuid.UUID
	kind   jobKind
	order  entities.Order
	client entities.Client
}

// Syncer выполняет задания доски в фоне. Каждое задание выполняется
// не более одного раза: ошибка логируется, повтора нет. Задания одного
// заказа попадают в очередь одного воркера и выполняются по порядку.
type Syncer struct {
	board   Board
	store   OrderStore
	columns ColumnMap
	opts    Options
	logger  *zap.Logger

	jobs   []chan job
	mu     sync.RWMutex
	closed bool
	once   sync.Once
	wg     sync.WaitGroup
}

func NewSyncer(board Board, store OrderStore, columns ColumnMap, opts Options, logger *zap.Logger) (*Syncer, error) {
	if err := columns.Validate(); err != nil {
		return nil, err
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 30 * time.Second
	}
	// QueueSize - общий объём, делится между очередями воркеров.
	perWorker := (opts.QueueSize + opts.Workers - 1) / opts.Workers
	jobs := make([]chan job, opts.Workers)
	for i := range jobs {
		jobs[i] = make(chan job, perWorker)
	}
	return &Syncer{
		board:   board,
		store:   store,
		columns: columns,
		opts:    opts,
		logger:  logger.Named("kanban"),
		jobs:    jobs,
	}, nil
}

// EnqueueCreateCard ставит в очередь создание карточки для нового заказа.
// Не блокируется.
func (s *Syncer) EnqueueCreateCard(order entities.Order, client entities.Client) error {
	return s.enqueue(job{kind: jobCreateCard, order: order, client: client})
}

// SyncStatus ставит в очередь перенос карточки в колонку текущего статуса.
// Заказ без карточки пропускается.
func (s *Syncer) SyncStatus(order entities.Order) error {
	if !order.ExternalCardID.Valid {
		s.logger.Debug("у заказа нет карточки, перенос пропущен", zap.Int64("order_id", order.ID))
		return nil
	}
	return s.enqueue(job{kind: jobMoveCard, order: order})
}

func (s *Syncer) enqueue(j job) error {
	j.id = uuid.New()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return apperrors.ErrQueueClosed
	}

	select {
	case s.partition(j.order.ID) <- j:
		s.logger.Debug("задание поставлено в очередь",
			zap.String("job_id", j.id.String()),
			zap.Stringer("kind", j.kind),
			zap.Int64("order_id", j.order.ID))
		return nil
	default:
		s.logger.Warn("очередь синхронизации переполнена, задание отброшено",
			zap.Stringer("kind", j.kind),
			zap.Int64("order_id", j.order.ID))
		return apperrors.ErrQueueFull
	}
}

func (s *Syncer) partition(orderID int64) chan job {
	return s.jobs[uint64(orderID)%uint64(len(s.jobs))]
}

func (s *Syncer) Start() {
	for i := range s.jobs {
		s.wg.Add(1)
		go s.worker(i)
	}
	s.logger.Info("синхронизация с доской запущена", zap.Int("workers", s.opts.Workers))
}

// Stop закрывает очередь и ждёт, пока воркеры разберут оставшиеся задания.
func (s *Syncer) Stop() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		for _, jobs := range s.jobs {
			close(jobs)
		}
		s.mu.Unlock()
	})
	s.wg.Wait()
}

// Run запускает воркеров и останавливает их по отмене ctx.
func (s *Syncer) Run(ctx context.Context) error {
	s.Start()
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Syncer) worker(n int) {
	defer s.wg.Done()
	for j := range s.jobs[n] {
		s.process(n, j)
	}
}

func (s *Syncer) process(worker int, j job) {
	log := s.logger.With(
		zap.Int("worker", worker),
		zap.String("job_id", j.id.String()),
		zap.Stringer("kind", j.kind),
		zap.Int64("order_id", j.order.ID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("паника в задании синхронизации",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
		}
	}()

	// Задание не зависит от контекста запроса, который его породил.
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.JobTimeout)
	defer cancel()

	var err error
	switch j.kind {
	case jobCreateCard:
		err = s.createCard(ctx, j)
	case jobMoveCard:
		err = s.moveCard(ctx, j.order.ExternalCardID.Int64, j.order.Status)
	}
	if err != nil {
		log.Error("задание синхронизации не выполнено", zap.Error(err))
		return
	}
	log.Debug("задание синхронизации выполнено")
}

func (s *Syncer) createCard(ctx context.Context, j job) error {
	column, err := s.columns.Column(j.order.Status)
	if err != nil {
		return err
	}
	card := BuildCard(j.order, j.client)
	card.ColumnID = column

	cardID, err := s.board.CreateCard(ctx, card)
	if err != nil {
		return fmt.Errorf("создание карточки: %w", err)
	}
	if err := s.store.AttachExternalCard(ctx, j.order.ID, cardID); err != nil {
		return fmt.Errorf("привязка карточки %d: %w", cardID, err)
	}

	// Статус мог смениться, пока карточка создавалась: перенос по SyncStatus
	// в этот момент пропускался, так что догоняем один раз здесь.
	fresh, err := s.store.FindByID(ctx, j.order.ID)
	if err != nil {
		return fmt.Errorf("перечитывание заказа: %w", err)
	}
	if fresh.Status != j.order.Status {
		return s.moveCard(ctx, cardID, fresh.Status)
	}
	return nil
}

func (s *Syncer) moveCard(ctx context.Context, cardID int64, status entities.OrderStatusName) error {
	column, err := s.columns.Column(status)
	if err != nil {
		return err
	}
	if err := s.board.MoveCard(ctx, cardID, column); err != nil {
		return fmt.Errorf("перенос карточки %d: %w", cardID, err)
	}
	return nil
}
