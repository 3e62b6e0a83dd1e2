package notification

import (
	"context"
	"errors"
	"strings"
	"time"

	"sportsequip/internal/domain"
	"sportsequip/internal/pkg/response"
	"sportsequip/internal/repository"
)

type nopPublisher struct{}

func (nopPublisher) Publish(*domain.Notification) {}

// Discard is a Publisher that drops everything.
var Discard Publisher = nopPublisher{}

type Service struct {
	store *repository.Store
	pub   Publisher
	now   func() time.Time
}

func NewService(store *repository.Store, pub Publisher) *Service {
	if pub == nil {
		pub = Discard
	}
	return &Service{store: store, pub: pub, now: func() time.Time { return time.Now().UTC() }}
}

func audience(p *domain.Principal) repository.Audience {
	return repository.Audience{Kind: p.Kind, ID: p.ID()}
}

func (s *Service) List(ctx context.Context, p *domain.Principal, q ListQuery) (*ListResult, error) {
	a := audience(p)
	now := s.now()
	filter := repository.NotificationFilter{
		Type:       q.Type,
		Category:   q.Category,
		UnreadOnly: q.UnreadOnly,
		Now:        now,
		Page:       repository.Page{Page: q.Page, Limit: q.Limit},
	}

	items, read, total, err := s.store.Notifications.ListFor(ctx, a, filter)
	if err != nil {
		return nil, err
	}
	unread, err := s.store.Notifications.UnreadCount(ctx, a, now)
	if err != nil {
		return nil, err
	}

	pg := filter.Page.Resolve(20)
	out := make([]Item, 0, len(items))
	for _, n := range items {
		out = append(out, Item{Notification: n, IsRead: read[n.ID]})
	}
	return &ListResult{
		Notifications: out,
		Pagination:    response.NewPagination(pg.Page, pg.Limit, total),
		UnreadCount:   unread,
	}, nil
}

func (s *Service) UnreadCount(ctx context.Context, p *domain.Principal) (int64, error) {
	return s.store.Notifications.UnreadCount(ctx, audience(p), s.now())
}

// MarkRead is idempotent. Notifications not addressed to p are reported
// as missing.
func (s *Service) MarkRead(ctx context.Context, p *domain.Principal, id int64) error {
	n, err := s.store.Notifications.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotificationNotFound
	}
	if err != nil {
		return err
	}
	if !n.AddressedTo(p.Kind, p.ID()) {
		return ErrNotificationNotFound
	}
	_, err = s.store.Notifications.MarkRead(ctx, id, audience(p), s.now())
	return err
}

func (s *Service) MarkAllRead(ctx context.Context, p *domain.Principal) (int64, error) {
	return s.store.Notifications.MarkAllRead(ctx, audience(p), s.now())
}

func (s *Service) Create(ctx context.Context, admin *domain.Admin, req CreateRequest) (*domain.Notification, error) {
	now := s.now()
	if req.ExpiresAt != nil {
		if !req.ExpiresAt.After(now) {
			return nil, ErrExpiresInPast
		}
		exp := req.ExpiresAt.UTC()
		req.ExpiresAt = &exp
	}

	sel := domain.RecipientSelector{All: true}
	if req.Recipients != nil {
		sel = *req.Recipients
		if sel.Empty() {
			return nil, ErrInvalidRecipients
		}
	}

	n := &domain.Notification{
		Title:      strings.TrimSpace(req.Title),
		Message:    strings.TrimSpace(req.Message),
		Type:       req.Type,
		Category:   req.Category,
		Priority:   req.Priority,
		ActionURL:  req.ActionURL,
		ActionText: req.ActionText,
		ExpiresAt:  req.ExpiresAt,
		Tags:       req.Tags,
		SentAt:     now,
		IsActive:   true,
		CreatedBy:  &admin.ID,
	}
	if n.Type == "" {
		n.Type = domain.NotificationInfo
	}
	if n.Category == "" {
		n.Category = domain.CategoryGeneral
	}
	if n.Priority == "" {
		n.Priority = domain.PriorityMedium
	}
	n.SetRecipients(sel)

	if err := s.store.Notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	s.pub.Publish(n)
	return n, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.store.Notifications.SoftDelete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotificationNotFound
	}
	return err
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	byType, err := s.store.Notifications.StatsByType(ctx)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.store.Notifications.StatsByCategory(ctx)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.store.Notifications.StatsByPriority(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{ByType: byType, ByCategory: byCategory, ByPriority: byPriority}, nil
}
