package usecase

import (
	"testing"
	"time"

	"tourmarket-backend/internal/catalog"
	"tourmarket-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderRepo struct {
	orders []domain.Order
}

func (r *fakeOrderRepo) ReadAll(actor domain.Actor) ([]domain.Order, error) {
	out := []domain.Order{}
	for _, o := range r.orders {
		if actor.IsAdmin() || o.OwnedBy(actor) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) FindByID(id string, actor domain.Actor) (*domain.Order, error) {
	for i := range r.orders {
		if r.orders[i].ID == id && (actor.IsAdmin() || r.orders[i].OwnedBy(actor)) {
			o := r.orders[i]
			return &o, nil
		}
	}
	return nil, nil
}

func (r *fakeOrderRepo) Insert(o domain.Order) (domain.Order, error) {
	r.orders = append(r.orders, o)
	return o, nil
}

func (r *fakeOrderRepo) UpdateByID(id string, patch domain.OrderPatch, actor domain.Actor) (*domain.Order, error) {
	for i := range r.orders {
		if r.orders[i].ID != id {
			continue
		}
		if !actor.IsAdmin() && !r.orders[i].OwnedBy(actor) {
			return nil, nil
		}
		updated := patch.Apply(r.orders[i])
		updated.ID = id
		r.orders[i] = updated
		return &updated, nil
	}
	return nil, nil
}

var (
	user  = domain.Actor{ID: "u1", Email: "u1@x.dev", Role: "user"}
	other = domain.Actor{ID: "u2", Email: "u2@x.dev", Role: "user"}
)

func newService(repo *fakeOrderRepo) *OrderService {
	return &OrderService{
		Repo:              repo,
		Catalog:           catalog.Static{},
		CommissionPercent: 10,
		Now:               func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestCreateOrder(t *testing.T) {
	repo := &fakeOrderRepo{}
	svc := newService(repo)

	created, err := svc.Create(CreateOrderInput{
		Items: []CreateOrderItemInput{{ServiceID: 1, Quantity: 2}},
	}, user)
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.StatusCreated, created.Status)
	require.NotNil(t, created.Customer)
	assert.Equal(t, "u1", created.Customer.ID)
	assert.Equal(t, "u1@x.dev", created.Customer.Email)

	assert.Equal(t, 300.0, created.Totals.Gross)
	require.Len(t, created.Items, 1)
	assert.Equal(t, 30.0, created.Items[0].Platform.CommissionValue)
	assert.Equal(t, 270.0, created.Items[0].Provider.NetValue)

	require.Len(t, created.Financial.ProviderPayouts, 1)
	payout := created.Financial.ProviderPayouts[0]
	assert.Equal(t, 300.0, payout.Gross)
	assert.Equal(t, 30.0, payout.PlatformCommissionValue)
	assert.Equal(t, 270.0, payout.Net)

	require.Len(t, created.History, 1)
	assert.Equal(t, "ORDER_CREATED", created.History[0].Type)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
}

func TestCreateOrderDropsInvalidItems(t *testing.T) {
	svc := newService(&fakeOrderRepo{})

	created, err := svc.Create(CreateOrderInput{
		Items: []CreateOrderItemInput{
			{ServiceID: 999, Quantity: 1}, // unknown service
			{ServiceID: 1, Quantity: 0},   // non-positive quantity
			{ServiceID: 2, Quantity: 3},
		},
	}, user)
	require.NoError(t, err)
	require.Len(t, created.Items, 1)
	assert.Equal(t, int64(2), created.Items[0].ServiceID)
	assert.Equal(t, 240.0, created.Totals.Gross)
}

func TestCreateOrderNoValidItems(t *testing.T) {
	svc := newService(&fakeOrderRepo{})
	_, err := svc.Create(CreateOrderInput{
		Items: []CreateOrderItemInput{{ServiceID: 999, Quantity: 1}},
	}, user)
	assert.ErrorIs(t, err, domain.ErrNoValidItems)
}

func TestCreateOrderRequiresActor(t *testing.T) {
	svc := newService(&fakeOrderRepo{})
	_, err := svc.Create(CreateOrderInput{}, domain.Actor{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func seedOrder(repo *fakeOrderRepo, id string, status domain.Status, owner domain.Actor) {
	repo.orders = append(repo.orders, domain.Order{
		ID:       id,
		Customer: &domain.Customer{ID: owner.ID, Email: owner.Email},
		Status:   status,
		Totals:   domain.Totals{Gross: 300, Final: 300},
		History: []domain.HistoryEvent{
			{At: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), Type: "ORDER_CREATED", Message: "Order created"},
		},
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	})
}

func TestPayThenPayAgain(t *testing.T) {
	repo := &fakeOrderRepo{}
	seedOrder(repo, "ord_1", domain.StatusCreated, user)
	svc := newService(repo)

	paid, err := svc.Pay("ord_1", user)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)
	require.Len(t, paid.History, 2)
	assert.Equal(t, "ORDER_PAID", paid.History[1].Type)
	assert.True(t, paid.UpdatedAt.After(paid.CreatedAt))
	// the state machine never touches money fields
	assert.Equal(t, 300.0, paid.Totals.Gross)

	_, err = svc.Pay("ord_1", user)
	var transition *domain.InvalidTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, domain.StatusPaid, transition.From)
	assert.Equal(t, domain.StatusPaid, transition.To)
}

func TestFullLifecycle(t *testing.T) {
	repo := &fakeOrderRepo{}
	seedOrder(repo, "ord_1", domain.StatusCreated, user)
	svc := newService(repo)

	_, err := svc.Pay("ord_1", user)
	require.NoError(t, err)
	_, err = svc.Confirm("ord_1", user)
	require.NoError(t, err)
	done, err := svc.Complete("ord_1", user)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, done.Status)
	require.Len(t, done.History, 4)
	assert.Equal(t, "ORDER_CONFIRMED", done.History[2].Type)
	assert.Equal(t, "ORDER_COMPLETED", done.History[3].Type)
}

func TestTerminalStatesRejectAllTransitions(t *testing.T) {
	for _, terminal := range []domain.Status{domain.StatusCompleted, domain.StatusCancelled} {
		repo := &fakeOrderRepo{}
		seedOrder(repo, "ord_1", terminal, user)
		svc := newService(repo)

		var transition *domain.InvalidTransitionError
		_, err := svc.Pay("ord_1", user)
		assert.ErrorAs(t, err, &transition)
		_, err = svc.Confirm("ord_1", user)
		assert.ErrorAs(t, err, &transition)
		_, err = svc.Complete("ord_1", user)
		assert.ErrorAs(t, err, &transition)
		_, err = svc.Cancel("ord_1", user, "")
		assert.ErrorAs(t, err, &transition)
	}
}

func TestCancelWithReason(t *testing.T) {
	repo := &fakeOrderRepo{}
	seedOrder(repo, "ord_1", domain.StatusCreated, user)
	svc := newService(repo)

	cancelled, err := svc.Cancel("ord_1", user, "customer asked")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Equal(t, "Order cancelled: customer asked", cancelled.History[1].Message)
}

func TestTransitionAcceptsCanceledAlias(t *testing.T) {
	repo := &fakeOrderRepo{}
	seedOrder(repo, "ord_1", domain.StatusCreated, user)
	svc := newService(repo)

	updated, err := svc.Transition("ord_1", "canceled", user, "ORDER_CANCELLED", "Order cancelled")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, updated.Status)
}

func TestTransitionOnInvisibleOrder(t *testing.T) {
	repo := &fakeOrderRepo{}
	seedOrder(repo, "ord_1", domain.StatusCreated, user)
	svc := newService(repo)

	_, err := svc.Pay("ord_1", other)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = svc.Pay("ord_missing", user)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestListFiltersByOwnership(t *testing.T) {
	repo := &fakeOrderRepo{}
	seedOrder(repo, "ord_1", domain.StatusCreated, user)
	seedOrder(repo, "ord_2", domain.StatusCreated, other)
	svc := newService(repo)

	mine, err := svc.List(user)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "ord_1", mine[0].ID)

	all, err := svc.List(domain.Actor{ID: "a1", Email: "a@x.dev", Role: "admin"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetByID(t *testing.T) {
	repo := &fakeOrderRepo{}
	seedOrder(repo, "ord_1", domain.StatusCreated, user)
	svc := newService(repo)

	got, err := svc.GetByID("ord_1", user)
	require.NoError(t, err)
	assert.Equal(t, "ord_1", got.ID)

	_, err = svc.GetByID("ord_1", other)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
