package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/ports"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/events"
)

// Service orchestrates requisition review use cases.
type Service struct {
	repo        ports.Repository
	idempotency ports.IdempotencyStore
	dispatcher  *events.Dispatcher
	now         func() time.Time
}

type Option func(*Service)

// WithIdempotencyStore enables Idempotency-Key replay for Create.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithDispatcher routes committed status changes to a notification channel.
func WithDispatcher(d *events.Dispatcher) Option {
	return func(s *Service) {
		s.dispatcher = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Create opens a draft requisition. With an Idempotency-Key the key is
// reserved before any order number is drawn, so concurrent retries of one
// request create a single requisition and the rest replay it.
func (s *Service) Create(ctx context.Context, by actor.Actor, input ports.CreateInput) (_ *domain.Requisition, err error) {
	if strings.TrimSpace(input.Requester) == "" {
		input.Requester = by.ID
	}
	items := make([]*domain.LineItem, 0, len(input.Items))
	for _, in := range input.Items {
		item, err := domain.NewLineItem(in.ItemName, in.Specification, in.Quantity, in.Unit)
		if err != nil {
			return nil, mapError(err)
		}
		items = append(items, item)
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	if key != "" && s.idempotency != nil {
		fingerprint, err := FingerprintCreate(input)
		if err != nil {
			return nil, err
		}
		record, reserved, err := s.idempotency.Reserve(ctx, key, fingerprint)
		if err != nil {
			return nil, err
		}
		if !reserved {
			if record.Pending() {
				return nil, ports.ErrIdempotencyInProgress
			}
			return s.repo.Get(ctx, record.OrderNo)
		}
		defer func() {
			if err != nil {
				if releaseErr := s.idempotency.Release(context.WithoutCancel(ctx), key); releaseErr != nil {
					err = errors.Join(err, releaseErr)
				}
			}
		}()
	}

	orderNo, err := s.repo.NextOrderNo(ctx, s.now())
	if err != nil {
		return nil, err
	}
	req, err := domain.NewRequisition(orderNo, input.Requester, items...)
	if err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	if key != "" && s.idempotency != nil {
		if err := s.idempotency.Complete(ctx, key, saved.OrderNo); err != nil {
			return nil, fmt.Errorf("bind idempotency key to %s: %w", saved.OrderNo, err)
		}
	}
	return saved, nil
}

func (s *Service) Get(ctx context.Context, orderNo string) (*domain.Requisition, error) {
	return s.repo.Get(ctx, orderNo)
}

func (s *Service) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Requisition, error) {
	if filter.Status != "" {
		status, err := domain.ParseOrderStatus(string(filter.Status))
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Summary(ctx context.Context, orderNo string) (domain.Summary, error) {
	req, err := s.repo.Get(ctx, orderNo)
	if err != nil {
		return domain.Summary{}, err
	}
	return req.Summary(), nil
}

// QuestionedItems lists every questioned line item of requisitions under review.
func (s *Service) QuestionedItems(ctx context.Context) ([]ports.QuestionedItem, error) {
	var result []ports.QuestionedItem
	for _, status := range []domain.OrderStatus{domain.OrderSubmitted, domain.OrderReviewed} {
		reqs, err := s.repo.List(ctx, ports.ListFilter{Status: status})
		if err != nil {
			return nil, err
		}
		for _, req := range reqs {
			for _, item := range req.Items {
				if item.Status == domain.ItemQuestioned {
					result = append(result, ports.QuestionedItem{OrderNo: req.OrderNo, Requester: req.Requester, Item: item})
				}
			}
		}
	}
	return result, nil
}

func (s *Service) Submit(ctx context.Context, by actor.Actor, orderNo string) (*domain.Requisition, error) {
	return s.mutate(ctx, orderNo, func(req *domain.Requisition) error {
		return req.Submit(by)
	})
}

// Cancel is reserved for procurement managers and admins.
func (s *Service) Cancel(ctx context.Context, by actor.Actor, orderNo, reason string) (*domain.Requisition, error) {
	if !by.HasRole(actor.RoleProcurementManager, actor.RoleAdmin) {
		return nil, fmt.Errorf("%w: cancel requires procurement manager or admin", ErrForbidden)
	}
	return s.mutate(ctx, orderNo, func(req *domain.Requisition) error {
		return req.Cancel(reason, by)
	})
}

func (s *Service) RejectRemaining(ctx context.Context, by actor.Actor, orderNo, reason string) (*domain.Requisition, error) {
	return s.mutate(ctx, orderNo, func(req *domain.Requisition) error {
		return req.RejectRemaining(reason, by)
	})
}

func (s *Service) ApproveItem(ctx context.Context, by actor.Actor, input ports.ApproveInput) (*domain.Requisition, error) {
	return s.mutate(ctx, input.OrderNo, func(req *domain.Requisition) error {
		return req.ApproveItem(input.LineNo, input.SupplierID, input.UnitPrice, input.Note, by)
	})
}

func (s *Service) RejectItem(ctx context.Context, by actor.Actor, input ports.DecisionInput) (*domain.Requisition, error) {
	return s.mutate(ctx, input.OrderNo, func(req *domain.Requisition) error {
		return req.RejectItem(input.LineNo, input.Reason, by)
	})
}

func (s *Service) QuestionItem(ctx context.Context, by actor.Actor, input ports.DecisionInput) (*domain.Requisition, error) {
	return s.mutate(ctx, input.OrderNo, func(req *domain.Requisition) error {
		return req.QuestionItem(input.LineNo, input.Reason, by)
	})
}

func (s *Service) MarkItemUnavailable(ctx context.Context, by actor.Actor, input ports.DecisionInput) (*domain.Requisition, error) {
	return s.mutate(ctx, input.OrderNo, func(req *domain.Requisition) error {
		return req.MarkItemUnavailable(input.LineNo, input.Reason, by)
	})
}

func (s *Service) UpdateItemNote(ctx context.Context, by actor.Actor, input ports.DecisionInput) (*domain.Requisition, error) {
	return s.mutate(ctx, input.OrderNo, func(req *domain.Requisition) error {
		return req.UpdateItemNote(input.LineNo, input.Reason)
	})
}

// mutate runs fn inside the repository's locked update and notifies only after commit.
func (s *Service) mutate(ctx context.Context, orderNo string, fn ports.MutateFunc) (*domain.Requisition, error) {
	if strings.TrimSpace(orderNo) == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, domain.ErrInvalidOrderNumber)
	}
	updated, err := s.repo.Update(ctx, orderNo, fn)
	if err != nil {
		return nil, mapError(err)
	}
	if updated == nil {
		return nil, errors.New("repository returned no requisition")
	}
	s.dispatcher.Dispatch(ctx, Notifications(updated.Events())...)
	updated.ClearEvents()
	return updated, nil
}

var _ ports.Service = (*Service)(nil)
