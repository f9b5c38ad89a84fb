package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Lightthouse/stirki/internal/entities"
	"github.com/Lightthouse/stirki/internal/pricing"
	"github.com/Lightthouse/stirki/internal/services"
	apperrors "github.com/Lightthouse/stirki/pkg/errors"
	"github.com/Lightthouse/stirki/pkg/utils"
)

// Правила проверки ввода в чате.
const (
	rulePhone     = "required,ru_phone"
	ruleName      = "required,min=2,max=64,not_command"
	ruleHouse     = "required,min=1,max=16,not_command"
	ruleApartment = "required,min=1,max=10,not_command"
	ruleEntrance  = "required,min=1,max=10,not_command"
)

var errUnknownState = errors.New("неизвестное состояние сессии")

// ProfileStore - профили клиентов и справочник улиц.
type ProfileStore interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*entities.Client, error)
	SaveProfile(ctx context.Context, client entities.Client) (*entities.Client, error)
	ListStreets(ctx context.Context) ([]entities.Street, error)
	FindStreet(ctx context.Context, id int64) (*entities.Street, error)
}

// OrderService - операции с заказами, которые нужны диалогу.
type OrderService interface {
	CreateOrder(ctx context.Context, client entities.Client, selection pricing.Selection, corr services.Correlation) (*entities.Order, error)
	UpdateStatus(ctx context.Context, change services.StatusChange) (*entities.Order, error)
	AttachMessage(ctx context.Context, orderID int64, chatID int64, messageID int64) error
}

type Engine struct {
	sessions  SessionStore
	profiles  ProfileStore
	orders    OrderService
	messenger Messenger
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewEngine(
	sessions SessionStore,
	profiles ProfileStore,
	orders OrderService,
	messenger Messenger,
	validate *validator.Validate,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		sessions:  sessions,
		profiles:  profiles,
		orders:    orders,
		messenger: messenger,
		validate:  validate,
		logger:    logger.Named("conversation"),
	}
}

// Handle загружает сессию чата, применяет событие и сохраняет результат.
// Завершённые сессии удаляются.
func (e *Engine) Handle(ctx context.Context, ev Event) error {
	if ev.Kind == EventCallback && ev.CallbackID != "" {
		defer func() {
			if err := e.messenger.AnswerCallback(ctx, ev.CallbackID); err != nil {
				e.logger.Warn("не удалось ответить на callback", zap.Int64("chat_id", ev.ChatID), zap.Error(err))
			}
		}()
	}
	if ev.UserID == 0 {
		ev.UserID = ev.ChatID
	}

	session, err := e.sessions.Load(ctx, ev.ChatID, ev.UserID)
	if err != nil {
		return err
	}
	from := session.State

	if err := e.apply(ctx, session, ev); err != nil {
		e.logger.Error("ошибка обработки события",
			zap.Int64("chat_id", ev.ChatID),
			zap.Stringer("state", from),
			zap.Error(err))
		e.send(ctx, session.ChatID, Message{Text: textInternal})
		if errors.Is(err, errUnknownState) {
			return e.sessions.Delete(ctx, session.ChatID)
		}
		return err
	}

	if from != session.State {
		e.logger.Debug("переход",
			zap.Int64("chat_id", ev.ChatID),
			zap.Stringer("from", from),
			zap.Stringer("to", session.State))
	}

	if session.State.Terminal() {
		return e.sessions.Delete(ctx, session.ChatID)
	}
	return e.sessions.Save(ctx, session)
}

func (e *Engine) apply(ctx context.Context, s *Session, ev Event) error {
	if ev.Kind == EventCommand {
		switch ev.Command() {
		case CommandStart:
			s.Reset()
			e.send(ctx, s.ChatID, welcomeMessage())
			return nil
		case CommandCancel:
			return e.cancel(ctx, s)
		case CommandHelp:
			e.send(ctx, s.ChatID, Message{Text: textHelp})
			return nil
		}
	}
	return e.transition(ctx, s, ev)
}

// transition обрабатывает любое событие в любом состоянии. Неподходящее
// событие повторяет вопрос текущего состояния.
func (e *Engine) transition(ctx context.Context, s *Session, ev Event) error {
	switch s.State {
	case StateInfo, StateDone, StateCanceled:
		if ev.Kind == EventCallback && ev.Data == CallbackOrder {
			return e.startOrder(ctx, s)
		}
		s.Reset()
		return e.prompt(ctx, s, "")
	case StateReuseQuestion:
		return e.onReuseQuestion(ctx, s, ev)
	case StateGetPhone:
		return e.onPhone(ctx, s, ev)
	case StateGetName:
		return e.onName(ctx, s, ev)
	case StateGetStreet:
		return e.onStreet(ctx, s, ev)
	case StateGetHouse:
		return e.onText(ctx, s, ev, ruleHouse, textBadHouse, func(v string) {
			s.House = v
			s.State = StateGetApartment
		})
	case StateGetApartment:
		return e.onText(ctx, s, ev, ruleApartment, textBadApartment, func(v string) {
			s.Apartment = v
			s.State = StateGetEntrance
		})
	case StateGetEntrance:
		return e.onText(ctx, s, ev, ruleEntrance, textBadEntrance, func(v string) {
			s.Entrance = v
			s.State = StateSelectServices
		})
	case StateSelectServices:
		return e.onSelectServices(ctx, s, ev)
	case StateConfirm:
		return e.onConfirm(ctx, s, ev)
	case StatePaymentQuestion:
		return e.onPayment(ctx, s, ev)
	default:
		state := s.State
		s.Reset()
		return fmt.Errorf("%w: %s", errUnknownState, state)
	}
}

func (e *Engine) startOrder(ctx context.Context, s *Session) error {
	s.Reset()
	client, err := e.profiles.FindByTelegramID(ctx, s.UserID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		s.ClientChanged = true
		s.State = StateGetPhone
		return e.prompt(ctx, s, "")
	case err != nil:
		return err
	}

	s.HasProfile = true
	s.State = StateReuseQuestion
	e.send(ctx, s.ChatID, reuseMessage(client))
	return nil
}

func (e *Engine) onReuseQuestion(ctx context.Context, s *Session, ev Event) error {
	if ev.Kind != EventCallback {
		return e.prompt(ctx, s, textUseButtons)
	}
	switch ev.Data {
	case CallbackClientOK:
		client, err := e.profiles.FindByTelegramID(ctx, s.UserID)
		if errors.Is(err, apperrors.ErrNotFound) {
			s.HasProfile = false
			s.ClientChanged = true
			s.State = StateGetPhone
			return e.prompt(ctx, s, "")
		}
		if err != nil {
			return err
		}
		s.Name = client.Name.String
		s.Phone = client.Phone
		s.StreetID = client.StreetID.Int64
		s.StreetName = client.StreetName.String
		s.House = client.House
		s.Apartment = client.Apartment.String
		s.Entrance = client.Entrance.String
		s.ClientChanged = false
		s.State = StateSelectServices
		return e.prompt(ctx, s, "")
	case CallbackClientEdit:
		s.ClientChanged = true
		s.State = StateGetPhone
		return e.prompt(ctx, s, "")
	default:
		return e.prompt(ctx, s, textUseButtons)
	}
}

func (e *Engine) onPhone(ctx context.Context, s *Session, ev Event) error {
	var raw string
	switch ev.Kind {
	case EventContact:
		raw = ev.Phone
	case EventText:
		raw = ev.Text
	}
	if raw == "" || e.validate.Var(raw, rulePhone) != nil {
		return e.prompt(ctx, s, textBadPhone)
	}
	s.Phone = utils.NormalizeRussianPhoneNumber(raw)
	s.ClientChanged = true
	s.State = StateGetName
	return e.prompt(ctx, s, "")
}

func (e *Engine) onName(ctx context.Context, s *Session, ev Event) error {
	return e.onText(ctx, s, ev, ruleName, textBadName, func(v string) {
		s.Name = v
		s.State = StateGetStreet
	})
}

func (e *Engine) onStreet(ctx context.Context, s *Session, ev Event) error {
	if ev.Kind != EventCallback || !strings.HasPrefix(ev.Data, callbackStreet) {
		return e.prompt(ctx, s, textBadStreet)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(ev.Data, callbackStreet), 10, 64)
	if err != nil {
		return e.prompt(ctx, s, textBadStreet)
	}
	street, err := e.profiles.FindStreet(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return e.prompt(ctx, s, textBadStreet)
	}
	if err != nil {
		return err
	}
	s.StreetID = street.ID
	s.StreetName = street.Name
	s.ClientChanged = true
	s.State = StateGetHouse
	return e.prompt(ctx, s, "")
}

// onText принимает текст, прошедший правило, иначе повторяет вопрос.
func (e *Engine) onText(ctx context.Context, s *Session, ev Event, rule, badText string, accept func(string)) error {
	value := strings.TrimSpace(ev.Text)
	if ev.Kind != EventText || e.validate.Var(value, rule) != nil {
		return e.prompt(ctx, s, badText)
	}
	accept(value)
	s.ClientChanged = true
	return e.prompt(ctx, s, "")
}

func (e *Engine) onSelectServices(ctx context.Context, s *Session, ev Event) error {
	if ev.Kind != EventText {
		return e.prompt(ctx, s, "")
	}
	if ev.Text == ButtonDone {
		quote, err := pricing.QuoteFor(s.Services)
		if err != nil {
			return err
		}
		s.State = StateConfirm
		e.send(ctx, s.ChatID, summaryMessage(s, quote))
		return e.prompt(ctx, s, "")
	}

	svc, ok := pricing.ParseTitle(ev.Text)
	if !ok {
		return e.prompt(ctx, s, "")
	}
	s.Services.Toggle(svc)
	quote, err := pricing.QuoteFor(s.Services)
	if err != nil {
		return err
	}
	e.send(ctx, s.ChatID, servicesMessage(quote.Receipt+"\n\n"+textServicesHint, s.Services))
	return nil
}

func (e *Engine) onConfirm(ctx context.Context, s *Session, ev Event) error {
	if ev.Kind != EventCallback {
		return e.prompt(ctx, s, textUseButtons)
	}
	switch ev.Data {
	case CallbackConfirm:
		return e.submitOrder(ctx, s, ev)
	case CallbackCancel:
		return e.cancel(ctx, s)
	default:
		return e.prompt(ctx, s, textUseButtons)
	}
}

// submitOrder сохраняет профиль, если он новый или изменён, и создаёт заказ.
func (e *Engine) submitOrder(ctx context.Context, s *Session, ev Event) error {
	var client *entities.Client
	var err error
	if !s.HasProfile || s.ClientChanged {
		client, err = e.profiles.SaveProfile(ctx, s.profile())
		var invalid *apperrors.InvalidInputError
		if errors.As(err, &invalid) {
			s.State = StateGetPhone
			return e.prompt(ctx, s, textBadPhone)
		}
	} else {
		client, err = e.profiles.FindByTelegramID(ctx, s.UserID)
	}
	if err != nil {
		return err
	}
	s.HasProfile = true
	s.ClientChanged = false

	order, err := e.orders.CreateOrder(ctx, *client, s.Services.Clone(), services.Correlation{
		ChatID:    s.ChatID,
		MessageID: int64(ev.MessageID),
	})
	if errors.Is(err, apperrors.ErrAddressIncomplete) {
		s.ClientChanged = true
		s.State = StateGetStreet
		e.send(ctx, s.ChatID, Message{Text: textAddressGap})
		return e.prompt(ctx, s, "")
	}
	if err != nil {
		return err
	}

	// Сообщение подтверждения уже привязано к заказу при создании,
	// вопрос об оплате показывается в нём же.
	s.OrderID = order.ID
	s.OrderTotal = order.TotalPrice
	s.MessageID = ev.MessageID
	s.State = StatePaymentQuestion
	e.showStatus(ctx, s, ev.MessageID, paymentMessage(fmt.Sprintf(textPayment, s.OrderID, s.OrderTotal)))
	return nil
}

func (e *Engine) onPayment(ctx context.Context, s *Session, ev Event) error {
	if ev.Kind != EventCallback {
		return e.prompt(ctx, s, textUseButtons)
	}
	messageID := ev.MessageID
	if messageID == 0 {
		messageID = s.MessageID
	}
	switch ev.Data {
	case CallbackPaidYes:
		if err := e.setStatus(ctx, s, entities.StatusNew, entities.PaymentSucceeded); err != nil {
			return err
		}
		s.State = StateDone
		e.showStatus(ctx, s, messageID, Message{Text: fmt.Sprintf(textPaid, s.OrderID, s.OrderTotal)})
		return nil
	case CallbackPaidNo:
		if err := e.setStatus(ctx, s, entities.StatusCanceled, entities.PaymentCanceled); err != nil {
			return err
		}
		s.State = StateCanceled
		e.showStatus(ctx, s, messageID, Message{Text: fmt.Sprintf(textOrderCancel, s.OrderID)})
		return nil
	default:
		return e.prompt(ctx, s, textUseButtons)
	}
}

func (e *Engine) setStatus(ctx context.Context, s *Session, status entities.OrderStatusName, payment entities.PaymentStatus) error {
	_, err := e.orders.UpdateStatus(ctx, services.StatusChange{
		OrderID: s.OrderID,
		Status:  status,
		Payment: &payment,
		Actor:   entities.ActorClient,
	})
	return err
}

// cancel прерывает оформление. Уже созданный и неоплаченный заказ отменяется.
func (e *Engine) cancel(ctx context.Context, s *Session) error {
	if s.State == StatePaymentQuestion && s.OrderID != 0 {
		if err := e.setStatus(ctx, s, entities.StatusCanceled, entities.PaymentCanceled); err != nil {
			return err
		}
		if s.MessageID != 0 {
			e.showStatus(ctx, s, s.MessageID, Message{Text: fmt.Sprintf(textOrderCancel, s.OrderID)})
		}
	}
	s.Reset()
	s.State = StateCanceled
	e.send(ctx, s.ChatID, Message{Text: textCanceled, RemoveKeyboard: true})
	return nil
}

// prompt задаёт вопрос текущего состояния. Пустой text - вопрос по умолчанию.
func (e *Engine) prompt(ctx context.Context, s *Session, text string) error {
	or := func(def string) string {
		if text != "" {
			return text
		}
		return def
	}

	var msg Message
	switch s.State {
	case StateInfo, StateDone, StateCanceled:
		msg = welcomeMessage()
	case StateReuseQuestion:
		msg = Message{Text: or(textUseButtons), Inline: reuseButtons()}
	case StateGetPhone:
		msg = phoneMessage(or(textAskPhone))
	case StateGetName:
		msg = Message{Text: or(textAskName), RemoveKeyboard: true}
	case StateGetStreet:
		streets, err := e.profiles.ListStreets(ctx)
		if err != nil {
			return err
		}
		msg = streetsMessage(or(textAskStreet), streets)
	case StateGetHouse:
		msg = Message{Text: or(textAskHouse)}
	case StateGetApartment:
		msg = Message{Text: or(textAskApartment)}
	case StateGetEntrance:
		msg = Message{Text: or(textAskEntrance)}
	case StateSelectServices:
		msg = servicesMessage(or(textAskServices), s.Services)
	case StateConfirm:
		msg = confirmMessage(or(textConfirm))
	case StatePaymentQuestion:
		e.showStatus(ctx, s, 0, paymentMessage(or(fmt.Sprintf(textPayment, s.OrderID, s.OrderTotal))))
		return nil
	default:
		return fmt.Errorf("%w: %s", errUnknownState, s.State)
	}
	e.send(ctx, s.ChatID, msg)
	return nil
}

// send логирует ошибку доставки: диалог продолжается, пользователь может повторить.
func (e *Engine) send(ctx context.Context, chatID int64, msg Message) {
	if _, err := e.messenger.Send(ctx, chatID, msg); err != nil {
		e.logger.Error("не удалось отправить сообщение", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// showStatus показывает статус оплаты в сообщении messageID. Если
// отредактировать его нельзя, отправляется новое сообщение, и заказ
// перепривязывается к нему.
func (e *Engine) showStatus(ctx context.Context, s *Session, messageID int, msg Message) {
	if messageID != 0 {
		err := e.messenger.Edit(ctx, s.ChatID, messageID, msg)
		if err == nil {
			e.relink(ctx, s, messageID)
			return
		}
		e.logger.Warn("не удалось отредактировать сообщение",
			zap.Int64("chat_id", s.ChatID),
			zap.Int("message_id", messageID),
			zap.Error(err))
	}
	id, err := e.messenger.Send(ctx, s.ChatID, msg)
	if err != nil {
		e.logger.Error("не удалось отправить сообщение", zap.Int64("chat_id", s.ChatID), zap.Error(err))
		return
	}
	e.relink(ctx, s, id)
}

func (e *Engine) relink(ctx context.Context, s *Session, messageID int) {
	if s.OrderID == 0 || messageID == 0 || messageID == s.MessageID {
		return
	}
	if err := e.orders.AttachMessage(ctx, s.OrderID, s.ChatID, int64(messageID)); err != nil {
		e.logger.Warn("не удалось привязать сообщение к заказу",
			zap.Int64("order_id", s.OrderID),
			zap.Int("message_id", messageID),
			zap.Error(err))
		return
	}
	s.MessageID = messageID
}

func (s *Session) profile() entities.Client {
	client := entities.Client{
		TelegramID: s.UserID,
		Name:       null.StringFrom(s.Name),
		Phone:      s.Phone,
		House:      s.House,
		Apartment:  nullString(s.Apartment),
		Entrance:   nullString(s.Entrance),
	}
	if s.StreetID != 0 {
		client.StreetID = null.Int64From(s.StreetID)
		client.StreetName = null.StringFrom(s.StreetName)
	}
	return client
}

func nullString(v string) null.String {
	if v == "" {
		return null.String{}
	}
	return null.StringFrom(v)
}
