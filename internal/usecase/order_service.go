package usecase

import (
	"fmt"
	"time"

	"tourmarket-backend/internal/catalog"
	"tourmarket-backend/internal/domain"
	"tourmarket-backend/internal/finance"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderRepo interface {
	ReadAll(actor domain.Actor) ([]domain.Order, error)
	FindByID(id string, actor domain.Actor) (*domain.Order, error)
	Insert(o domain.Order) (domain.Order, error)
	UpdateByID(id string, patch domain.OrderPatch, actor domain.Actor) (*domain.Order, error)
}

type ServiceCatalog interface {
	List() []catalog.Service
}

type OrderService struct {
	Repo              OrderRepo
	Catalog           ServiceCatalog
	CommissionPercent float64
	Log               *zap.Logger
	Now               func() time.Time
}

func (s *OrderService) clock() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *OrderService) logger() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop()
}

func requireActor(a domain.Actor) error {
	if !a.Known() {
		return domain.ErrUnauthorized
	}
	return nil
}

type CreateOrderItemInput struct {
	ServiceID int64 `json:"serviceId"`
	Quantity  int64 `json:"quantity"`
}

type CreateOrderInput struct {
	Items []CreateOrderItemInput `json:"items"`
}

// Create assembles an order from catalog-matched items, computes the
// financial split and persists it with status CREATED. The customer is
// stamped from the authenticated actor, never from the payload.
func (s *OrderService) Create(input CreateOrderInput, actor domain.Actor) (domain.Order, error) {
	if err := requireActor(actor); err != nil {
		return domain.Order{}, err
	}

	services := s.Catalog.List()

	accepted := []domain.OrderItem{}
	for _, in := range input.Items {
		var svc *catalog.Service
		for i := range services {
			if services[i].ID == in.ServiceID {
				svc = &services[i]
				break
			}
		}
		if svc == nil || in.Quantity <= 0 || svc.Price < 0 {
			continue
		}

		item := domain.OrderItem{
			ServiceID:  svc.ID,
			ProviderID: domain.NewProviderID(svc.ProviderID),
			Name:       svc.Name,
			UnitPrice:  svc.Price,
			Quantity:   in.Quantity,
			Total:      finance.Round2(svc.Price * float64(in.Quantity)),
		}
		item.MarkTotalSet()
		accepted = append(accepted, item)
	}

	if len(accepted) == 0 {
		s.logger().Debug("order creation rejected",
			zap.String("actor", actor.ID),
			zap.String("reason", "no valid items"))
		return domain.Order{}, domain.ErrNoValidItems
	}

	now := s.clock()
	items, fin := finance.Compute(accepted, s.CommissionPercent, now)
	items, totals, providers := finance.Derive(items)

	order := domain.Order{
		ID:        "ord_" + uuid.NewString(),
		Customer:  &domain.Customer{ID: actor.ID, Email: actor.Email},
		Items:     items,
		Totals:    totals,
		Providers: providers,
		Financial: fin,
		Status:    domain.StatusCreated,
		History: []domain.HistoryEvent{
			{At: now, Type: "ORDER_CREATED", Message: "Order created"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.Repo.Insert(order)
	if err != nil {
		return domain.Order{}, err
	}

	s.logger().Info("order created",
		zap.String("orderId", created.ID),
		zap.String("actor", actor.ID),
		zap.Int("items", len(created.Items)),
		zap.Float64("gross", created.Totals.Gross))
	return created, nil
}

func (s *OrderService) List(actor domain.Actor) ([]domain.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.Repo.ReadAll(actor)
}

func (s *OrderService) GetByID(id string, actor domain.Actor) (domain.Order, error) {
	if err := requireActor(actor); err != nil {
		return domain.Order{}, err
	}
	o, err := s.Repo.FindByID(id, actor)
	if err != nil {
		return domain.Order{}, err
	}
	if o == nil {
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	return *o, nil
}

// Transition validates and applies one status change. On success the
// order gets the target status, exactly one appended history event and
// a refreshed updatedAt; items, totals, providers and financial are
// carried through unchanged.
func (s *OrderService) Transition(id string, toStatus string, actor domain.Actor, eventType, eventMessage string) (domain.Order, error) {
	if err := requireActor(actor); err != nil {
		return domain.Order{}, err
	}

	order, err := s.Repo.FindByID(id, actor)
	if err != nil {
		return domain.Order{}, err
	}
	if order == nil {
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}

	from := domain.NormalizeStatus(string(order.Status))
	to := domain.NormalizeStatus(toStatus)
	if !domain.CanTransition(from, to) {
		s.logger().Debug("order transition denied",
			zap.String("orderId", id),
			zap.String("from", string(from)),
			zap.String("to", string(to)))
		return domain.Order{}, &domain.InvalidTransitionError{From: from, To: to}
	}

	now := s.clock()
	history := append(append([]domain.HistoryEvent{}, order.History...), domain.HistoryEvent{
		At:      now,
		Type:    eventType,
		Message: eventMessage,
	})

	updated, err := s.Repo.UpdateByID(id, domain.OrderPatch{
		Status:    &to,
		History:   history,
		UpdatedAt: &now,
	}, actor)
	if err != nil {
		return domain.Order{}, err
	}
	if updated == nil {
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}

	s.logger().Info("order transitioned",
		zap.String("orderId", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return *updated, nil
}

func (s *OrderService) Pay(id string, actor domain.Actor) (domain.Order, error) {
	return s.Transition(id, string(domain.StatusPaid), actor, "ORDER_PAID", "Payment confirmed")
}

func (s *OrderService) Confirm(id string, actor domain.Actor) (domain.Order, error) {
	return s.Transition(id, string(domain.StatusConfirmed), actor, "ORDER_CONFIRMED", "Order confirmed")
}

func (s *OrderService) Complete(id string, actor domain.Actor) (domain.Order, error) {
	return s.Transition(id, string(domain.StatusCompleted), actor, "ORDER_COMPLETED", "Order completed")
}

func (s *OrderService) Cancel(id string, actor domain.Actor, reason string) (domain.Order, error) {
	msg := "Order cancelled"
	if reason != "" {
		msg += ": " + reason
	}
	return s.Transition(id, string(domain.StatusCancelled), actor, "ORDER_CANCELLED", msg)
}
