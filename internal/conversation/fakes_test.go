package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/Lightthouse/stirki/internal/entities"
	"github.com/Lightthouse/stirki/internal/pricing"
	"github.com/Lightthouse/stirki/internal/services"
	apperrors "github.com/Lightthouse/stirki/pkg/errors"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]string)}
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return v, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value.(string)
	return nil
}

func (c *memoryCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

type fakeProfiles struct {
	client  *entities.Client
	streets []entities.Street
	saved   []entities.Client
}

func (p *fakeProfiles) FindByTelegramID(ctx context.Context, telegramID int64) (*entities.Client, error) {
	if p.client == nil {
		return nil, apperrors.ErrNotFound
	}
	c := *p.client
	return &c, nil
}

func (p *fakeProfiles) SaveProfile(ctx context.Context, client entities.Client) (*entities.Client, error) {
	p.saved = append(p.saved, client)
	client.ID = 100
	p.client = &client
	return &client, nil
}

func (p *fakeProfiles) ListStreets(ctx context.Context) ([]entities.Street, error) {
	return p.streets, nil
}

func (p *fakeProfiles) FindStreet(ctx context.Context, id int64) (*entities.Street, error) {
	for i := range p.streets {
		if p.streets[i].ID == id {
			return &p.streets[i], nil
		}
	}
	return nil, apperrors.ErrNotFound
}

type createCall struct {
	client    entities.Client
	selection pricing.Selection
	corr      services.Correlation
}

type attachCall struct {
	orderID   int64
	chatID    int64
	messageID int64
}

type fakeOrders struct {
	createErr error
	created   []createCall
	updates   []services.StatusChange
	attached  []attachCall
}

func (o *fakeOrders) CreateOrder(ctx context.Context, client entities.Client, selection pricing.Selection, corr services.Correlation) (*entities.Order, error) {
	if o.createErr != nil {
		return nil, o.createErr
	}
	o.created = append(o.created, createCall{client: client, selection: selection, corr: corr})
	total := 990
	for range selection.Selected() {
		total += 300
	}
	return &entities.Order{ID: 42, ClientID: client.ID, TotalPrice: total}, nil
}

func (o *fakeOrders) UpdateStatus(ctx context.Context, change services.StatusChange) (*entities.Order, error) {
	o.updates = append(o.updates, change)
	return &entities.Order{ID: change.OrderID, Status: change.Status}, nil
}

func (o *fakeOrders) AttachMessage(ctx context.Context, orderID int64, chatID int64, messageID int64) error {
	o.attached = append(o.attached, attachCall{orderID: orderID, chatID: chatID, messageID: messageID})
	return nil
}

type editCall struct {
	messageID int
	msg       Message
}

type recordingMessenger struct {
	mu       sync.Mutex
	sent     []Message
	edits    []editCall
	editErr  error
	answered []string
}

func (m *recordingMessenger) Send(ctx context.Context, chatID int64, msg Message) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return len(m.sent), nil
}

func (m *recordingMessenger) Edit(ctx context.Context, chatID int64, messageID int, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.editErr != nil {
		return m.editErr
	}
	m.edits = append(m.edits, editCall{messageID: messageID, msg: msg})
	return nil
}

func (m *recordingMessenger) AnswerCallback(ctx context.Context, callbackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, callbackID)
	return nil
}

func (m *recordingMessenger) last() Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return Message{}
	}
	return m.sent[len(m.sent)-1]
}
