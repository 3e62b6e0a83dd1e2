package equipment

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"sportsequip/internal/domain"
	"sportsequip/internal/modules/notification"
	"sportsequip/internal/modules/upload"
	"sportsequip/internal/pkg/apperr"
	"sportsequip/internal/pkg/response"
	"sportsequip/internal/repository"
)

const defaultListLimit = 12

var ErrQuantityChanged = apperr.Business("Equipment quantities changed while editing, please retry")

// FileStore keeps equipment images.
type FileStore interface {
	SaveAll(files []*multipart.FileHeader, p upload.Purpose, limit int) ([]*upload.StoredFile, error)
	Remove(files ...*upload.StoredFile)
}

type Service struct {
	store *repository.Store
	files FileStore
	pub   notification.Publisher
	now   func() time.Time
}

func NewService(store *repository.Store, files FileStore, pub notification.Publisher) *Service {
	if pub == nil {
		pub = notification.Discard
	}
	return &Service{
		store: store,
		files: files,
		pub:   pub,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	if q.Category != "" && !q.Category.Valid() {
		return nil, ErrInvalidCategory
	}
	filter := repository.EquipmentFilter{
		Category:      q.Category,
		Search:        strings.TrimSpace(q.Search),
		AvailableOnly: q.Available,
		NewArrivals:   q.NewArrivals,
		SortBy:        q.SortBy,
		SortDesc:      q.SortOrder != "asc",
		Page:          repository.Page{Page: q.Page, Limit: q.Limit},
	}
	items, total, err := s.store.Equipment.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Equipment{}
	}
	pg := filter.Page.Resolve(defaultListLimit)
	return &ListResult{Equipment: items, Pagination: response.NewPagination(pg.Page, pg.Limit, total)}, nil
}

// Get returns an active item.
// Get returns an active item. Admins also see soft-deleted items, which
// older requests still point at.
func (s *Service) Get(ctx context.Context, viewer *domain.Principal, id int64) (*domain.Equipment, error) {
	get := s.store.Equipment.GetActive
	if viewer.IsAdmin() {
		get = s.store.Equipment.GetByID
	}
	eq, err := get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEquipmentNotFound
	}
	return eq, err
}

// Categories lists every known category with the number of active items
// in it.
func (s *Service) Categories(ctx context.Context) ([]repository.CategoryCount, error) {
	counts, err := s.store.Equipment.CategoryCounts(ctx)
	if err != nil {
		return nil, err
	}
	inUse := make(map[domain.Category]int64, len(counts))
	for _, c := range counts {
		inUse[c.Category] = c.Count
	}
	out := make([]repository.CategoryCount, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		out = append(out, repository.CategoryCount{Category: c, Count: inUse[c]})
	}
	return out, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	totals, err := s.store.Equipment.Totals(ctx)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.store.Equipment.StatsByCategory(ctx)
	if err != nil {
		return nil, err
	}
	if byCategory == nil {
		byCategory = []repository.CategoryStats{}
	}
	return &Stats{Overview: totals, ByCategory: byCategory}, nil
}

func validSpecs(sp *domain.Specifications) error {
	if sp == nil || sp.Condition == "" {
		return nil
	}
	if !sp.Condition.Valid() {
		return ErrInvalidCondition
	}
	return nil
}

// Create stores a new item with every unit available. New arrivals are
// announced to everyone once the item is committed.
func (s *Service) Create(ctx context.Context, admin *domain.Admin, req CreateRequest, images []*multipart.FileHeader) (*domain.Equipment, error) {
	if !req.Category.Valid() {
		return nil, ErrInvalidCategory
	}
	if err := validSpecs(req.Specifications); err != nil {
		return nil, err
	}
	if req.Quantity == nil || req.Quantity.Total == nil || *req.Quantity.Total < 1 {
		return nil, ErrTotalTooSmall
	}

	eq := &domain.Equipment{
		Name:         strings.TrimSpace(req.Name),
		Description:  strings.TrimSpace(req.Description),
		Category:     req.Category,
		Subcategory:  req.Subcategory,
		Brand:        req.Brand,
		Model:        req.Model,
		Barcode:      req.Barcode,
		Quantity:     domain.NewQuantity(*req.Quantity.Total),
		Tags:         req.Tags,
		Images:       []domain.Image{},
		IsActive:     true,
		IsNewArrival: req.IsNewArrival,
		CreatedBy:    &admin.ID,
	}
	if req.Specifications != nil {
		eq.Specifications = *req.Specifications
	}
	if eq.Specifications.Condition == "" {
		eq.Specifications.Condition = domain.ConditionGood
	}
	if req.Location != nil {
		eq.Location = *req.Location
	}
	if eq.Tags == nil {
		eq.Tags = []string{}
	}

	stored, err := s.files.SaveAll(images, upload.PurposeEquipment, upload.MaxEquipmentImages)
	if err != nil {
		return nil, err
	}
	eq.Images = appendImages(eq.Images, stored, eq.Name)

	var announcement *domain.Notification
	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		if err := tx.Equipment.Create(ctx, eq); err != nil {
			return err
		}
		if !eq.IsNewArrival {
			return nil
		}
		announcement = notification.NewEquipment(eq, admin.ID, s.now())
		return tx.Notifications.Create(ctx, announcement)
	})
	if err != nil {
		s.files.Remove(stored...)
		return nil, err
	}
	if announcement != nil {
		s.pub.Publish(announcement)
	}
	return eq, nil
}

// appendImages adds stored files as images. The first image of an item
// without one becomes primary.
func appendImages(images []domain.Image, stored []*upload.StoredFile, alt string) []domain.Image {
	for _, f := range stored {
		images = append(images, domain.Image{
			URL:       f.URL,
			Alt:       alt,
			IsPrimary: len(images) == 0,
		})
	}
	return images
}

// Update merges the provided fields into the item. A quantity change must
// keep the counters consistent and is applied only if no borrow or return
// ran in between.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest, images []*multipart.FileHeader) (*domain.Equipment, error) {
	eq, err := s.store.Equipment.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEquipmentNotFound
	}
	if err != nil {
		return nil, err
	}

	if req.Category != nil {
		if !req.Category.Valid() {
			return nil, ErrInvalidCategory
		}
		eq.Category = *req.Category
	}
	if err := validSpecs(req.Specifications); err != nil {
		return nil, err
	}
	mergeDetails(eq, req)

	prev := eq.Quantity
	next := prev
	if req.Quantity != nil {
		next = req.Quantity.apply(prev)
		if next.Total < 1 {
			return nil, ErrTotalTooSmall
		}
		if !next.Consistent() {
			return nil, domain.ErrQuantityMismatch
		}
	}

	if len(eq.Images)+len(images) > upload.MaxEquipmentImages {
		return nil, upload.ErrTooManyFiles.Withf(upload.MaxEquipmentImages)
	}
	stored, err := s.files.SaveAll(images, upload.PurposeEquipment, upload.MaxEquipmentImages)
	if err != nil {
		return nil, err
	}
	eq.Images = appendImages(eq.Images, stored, eq.Name)

	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		if err := tx.Equipment.SaveDetails(ctx, eq); err != nil {
			return err
		}
		if next == prev {
			return nil
		}
		if err := tx.Equipment.SetQuantity(ctx, eq.ID, prev, next); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrQuantityChanged
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.files.Remove(stored...)
		return nil, err
	}
	eq.Quantity = next
	return eq, nil
}

func mergeDetails(eq *domain.Equipment, req UpdateRequest) {
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	setString(&eq.Name, req.Name)
	setString(&eq.Description, req.Description)
	setString(&eq.Subcategory, req.Subcategory)
	setString(&eq.Brand, req.Brand)
	setString(&eq.Model, req.Model)
	setString(&eq.Barcode, req.Barcode)
	if req.IsNewArrival != nil {
		eq.IsNewArrival = *req.IsNewArrival
	}
	if req.Specifications != nil {
		eq.Specifications = *req.Specifications
	}
	if req.Location != nil {
		eq.Location = *req.Location
	}
	if req.Tags != nil {
		eq.Tags = req.Tags
	}
}

// Delete hides the item from students. Requests referring to it are kept.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.store.Equipment.SoftDelete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrEquipmentNotFound
	}
	return err
}
