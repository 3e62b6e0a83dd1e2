package request

import (
	"context"
	"errors"
	"strings"
	"time"

	"sportsequip/internal/database"
	"sportsequip/internal/domain"
	"sportsequip/internal/modules/notification"
	"sportsequip/internal/pkg/response"
	"sportsequip/internal/repository"
)

const (
	defaultListLimit = 10
	recentLimit      = 5
)

type Service struct {
	store *repository.Store
	pub   notification.Publisher
	now   func() time.Time
}

func NewService(store *repository.Store, pub notification.Publisher) *Service {
	if pub == nil {
		pub = notification.Discard
	}
	return &Service{store: store, pub: pub, now: func() time.Time { return time.Now().UTC() }}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Create files a pending request for the student. Stock is only checked
// here; it is reserved when an admin approves.
func (s *Service) Create(ctx context.Context, student *domain.Student, req CreateRequest) (*domain.Request, error) {
	eq, err := s.store.Equipment.GetActive(ctx, req.EquipmentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEquipmentNotFound
	}
	if err != nil {
		return nil, err
	}
	if !eq.IsAvailable(req.Quantity) {
		return nil, ErrInsufficientStock.Withf(eq.Quantity.Available)
	}

	now := s.now()
	borrow, ret := req.BorrowDate.UTC(), req.ReturnDate.UTC()
	if borrow.Before(startOfDay(now)) {
		return nil, ErrBorrowDateInPast
	}
	if !ret.After(borrow) {
		return nil, ErrReturnBeforeStart
	}

	open, err := s.store.Requests.HasOpen(ctx, student.ID, eq.ID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, ErrDuplicateOpen
	}

	r := &domain.Request{
		StudentID:           student.ID,
		EquipmentID:         eq.ID,
		Quantity:            req.Quantity,
		BorrowDate:          borrow,
		ReturnDate:          ret,
		Status:              domain.RequestPending,
		Purpose:             strings.TrimSpace(req.Purpose),
		Location:            strings.TrimSpace(req.Location),
		SpecialRequirements: strings.TrimSpace(req.SpecialRequirements),
		IsUrgent:            req.IsUrgent,
		StudentNotes:        strings.TrimSpace(req.StudentNotes),
		RequestDate:         now,
		History: []domain.RequestHistory{
			domain.HistoryEntry(domain.ActionCreated, domain.StudentPrincipal(student), now, "Request created"),
		},
	}

	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		if err := tx.Requests.Create(ctx, r); err != nil {
			if database.IsUniqueViolation(err) {
				return ErrDuplicateOpen
			}
			return err
		}
		return tx.Students.IncrementStats(ctx, student.ID, repository.StatsDelta{TotalRequests: 1})
	})
	if err != nil {
		return nil, err
	}
	return s.store.Requests.GetByID(ctx, r.ID)
}

// List shows students their own requests only.
func (s *Service) List(ctx context.Context, p *domain.Principal, q ListQuery) (*ListResult, error) {
	filter := repository.RequestFilter{
		Status:      q.Status,
		StudentID:   q.StudentID,
		EquipmentID: q.EquipmentID,
		Now:         s.now(),
		Page:        repository.Page{Page: q.Page, Limit: q.Limit},
	}
	if p.IsStudent() {
		filter.StudentID = p.Student.ID
	}

	items, total, err := s.store.Requests.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Request{}
	}
	pg := filter.Page.Resolve(defaultListLimit)
	return &ListResult{Requests: items, Pagination: response.NewPagination(pg.Page, pg.Limit, total)}, nil
}

func (s *Service) Get(ctx context.Context, p *domain.Principal, id int64) (*domain.Request, error) {
	r, err := s.store.Requests.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.IsStudent() && r.StudentID != p.Student.ID {
		return nil, ErrAccessDenied
	}
	return r, nil
}

// step is one admin transition. Everything it writes commits together with
// the status change or not at all.
type step struct {
	from    domain.RequestStatus
	to      domain.RequestStatus
	updates map[string]any
	action  domain.HistoryAction
	details string
	apply   func(tx *repository.Store, r *domain.Request, now time.Time) error
	notice  func(r *domain.Request, adminID int64, now time.Time) *domain.Notification
}

func (s *Service) run(ctx context.Context, admin *domain.Admin, id int64, st step) (*domain.Request, error) {
	r, err := s.store.Requests.GetPlain(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.RequireStatus(st.from); err != nil {
		return nil, err
	}

	now := s.now()
	if st.updates == nil {
		st.updates = map[string]any{}
	}
	st.updates["status"] = st.to

	var note *domain.Notification
	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		if err := tx.Requests.Transition(ctx, r.ID, st.from, st.updates); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return domain.NotInStatusError(st.from)
			}
			return err
		}
		r.Status = st.to
		if st.apply != nil {
			if err := st.apply(tx, r, now); err != nil {
				return err
			}
		}
		entry := domain.HistoryEntry(st.action, domain.AdminPrincipal(admin), now, st.details)
		if err := tx.Requests.AppendHistory(ctx, r.ID, entry); err != nil {
			return err
		}
		if st.notice == nil {
			note = notification.RequestUpdate(r, st.to, admin.ID, now)
		} else {
			note = st.notice(r, admin.ID, now)
		}
		return tx.Notifications.Create(ctx, note)
	})
	if err != nil {
		return nil, err
	}
	s.pub.Publish(note)
	return s.store.Requests.GetByID(ctx, r.ID)
}

// Approve reserves the requested units.
func (s *Service) Approve(ctx context.Context, admin *domain.Admin, id int64, req ApproveRequest) (*domain.Request, error) {
	now := s.now()
	updates := map[string]any{"approved_by": admin.ID, "approved_at": now}
	if notes := strings.TrimSpace(req.AdminNotes); notes != "" {
		updates["admin_notes"] = notes
	}
	return s.run(ctx, admin, id, step{
		from:    domain.RequestPending,
		to:      domain.RequestApproved,
		updates: updates,
		action:  domain.ActionApproved,
		details: "Request approved",
		apply: func(tx *repository.Store, r *domain.Request, at time.Time) error {
			if err := tx.Equipment.Borrow(ctx, r.EquipmentID, r.Quantity, at); err != nil {
				if errors.Is(err, repository.ErrConflict) {
					return domain.ErrNotAvailable
				}
				return err
			}
			return tx.Students.IncrementStats(ctx, r.StudentID, repository.StatsDelta{ApprovedRequests: 1})
		},
	})
}

func (s *Service) Reject(ctx context.Context, admin *domain.Admin, id int64, req RejectRequest) (*domain.Request, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	updates := map[string]any{
		"rejected_by":      admin.ID,
		"rejected_at":      s.now(),
		"rejection_reason": reason,
	}
	if notes := strings.TrimSpace(req.AdminNotes); notes != "" {
		updates["admin_notes"] = notes
	}
	return s.run(ctx, admin, id, step{
		from:    domain.RequestPending,
		to:      domain.RequestRejected,
		updates: updates,
		action:  domain.ActionRejected,
		details: domain.RejectedDetails(reason),
		apply: func(tx *repository.Store, r *domain.Request, _ time.Time) error {
			return tx.Students.IncrementStats(ctx, r.StudentID, repository.StatsDelta{RejectedRequests: 1})
		},
	})
}

// MarkBorrowed records the hand-over of approved units.
func (s *Service) MarkBorrowed(ctx context.Context, admin *domain.Admin, id int64) (*domain.Request, error) {
	return s.run(ctx, admin, id, step{
		from:    domain.RequestApproved,
		to:      domain.RequestBorrowed,
		action:  domain.ActionBorrowed,
		details: "Equipment borrowed",
		apply: func(tx *repository.Store, r *domain.Request, _ time.Time) error {
			return tx.Students.IncrementStats(ctx, r.StudentID, repository.StatsDelta{TotalEquipmentBorrowed: r.Quantity})
		},
	})
}

// MarkReturned puts the units back in stock, or into damaged.
func (s *Service) MarkReturned(ctx context.Context, admin *domain.Admin, id int64, req ReturnRequest) (*domain.Request, error) {
	now := s.now()
	updates := map[string]any{"actual_return_date": now, "is_damaged": req.IsDamaged}
	if notes := strings.TrimSpace(req.AdminNotes); notes != "" {
		updates["admin_notes"] = notes
	}
	return s.run(ctx, admin, id, step{
		from:    domain.RequestBorrowed,
		to:      domain.RequestReturned,
		updates: updates,
		action:  domain.ActionReturned,
		details: domain.ReturnedDetails(req.IsDamaged),
		apply: func(tx *repository.Store, r *domain.Request, _ time.Time) error {
			days := domain.CeilDays(r.BorrowDate, now)
			if err := tx.Equipment.Return(ctx, r.EquipmentID, r.Quantity, req.IsDamaged, days); err != nil {
				if errors.Is(err, repository.ErrConflict) {
					return domain.ErrReturnExceeds
				}
				return err
			}
			return tx.Students.IncrementStats(ctx, r.StudentID, repository.StatsDelta{TotalDaysBorrowed: days})
		},
	})
}

// Extend moves the return date of an approved or borrowed request.
func (s *Service) Extend(ctx context.Context, admin *domain.Admin, id int64, req ExtendRequest) (*domain.Request, error) {
	r, err := s.store.Requests.GetPlain(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	if r.Status != domain.RequestApproved && r.Status != domain.RequestBorrowed {
		return nil, ErrCannotExtend
	}
	until := req.NewReturnDate.UTC()
	if !until.After(r.BorrowDate) {
		return nil, ErrReturnBeforeStart
	}

	reason := strings.TrimSpace(req.Reason)
	return s.run(ctx, admin, id, step{
		from:    r.Status,
		to:      r.Status,
		updates: map[string]any{"return_date": until},
		action:  domain.ActionExtended,
		details: domain.ExtendedDetails(until),
		apply: func(tx *repository.Store, r *domain.Request, at time.Time) error {
			r.ReturnDate = until
			return tx.Requests.AppendExtension(ctx, r.ID, domain.RequestExtension{
				RequestedDate: at,
				ApprovedDate:  at,
				ApprovedBy:    admin.ID,
				NewReturnDate: until,
				Reason:        reason,
			})
		},
		notice: func(r *domain.Request, adminID int64, at time.Time) *domain.Notification {
			return notification.RequestExtended(r, until, adminID, at)
		},
	})
}

func (s *Service) Overdue(ctx context.Context) ([]domain.Request, error) {
	items, err := s.store.Requests.Overdue(ctx, s.now())
	if items == nil {
		items = []domain.Request{}
	}
	return items, err
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now()
	rows, err := s.store.Requests.CountByStatus(ctx, 0)
	if err != nil {
		return nil, err
	}
	overdueCount, err := s.store.Requests.CountOverdue(ctx, 0, now)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.Requests.Recent(ctx, 0, recentLimit)
	if err != nil {
		return nil, err
	}
	overdue, err := s.Overdue(ctx)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []domain.Request{}
	}
	return &Stats{
		Statistics:      countsFrom(rows, overdueCount),
		RecentRequests:  recent,
		OverdueRequests: overdue,
	}, nil
}
