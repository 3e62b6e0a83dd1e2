package main

import (
	"context"
	"errors"
	"flag"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"sportsequip/internal/config"
	"sportsequip/internal/database"
	"sportsequip/internal/domain"
	"sportsequip/internal/pkg/logger"
	"sportsequip/internal/repository"
)

type sampleItem struct {
	name, description, brand string
	category                 domain.Category
	total                    int
	newArrival               bool
	tags                     []string
}

var catalog = []sampleItem{
	{"Match Football", "Size 5 FIFA quality match ball", "Adidas", domain.CategoryFootball, 12, false, []string{"ball", "outdoor"}},
	{"Basketball", "Official size 7 indoor/outdoor ball", "Spalding", domain.CategoryBasketball, 10, false, []string{"ball"}},
	{"Cricket Bat", "English willow, short handle", "Gray-Nicolls", domain.CategoryCricket, 6, false, []string{"bat"}},
	{"Tennis Racket", "Graphite frame, 300g", "Wilson", domain.CategoryTennis, 8, true, []string{"racket"}},
	{"Badminton Racket Set", "Two rackets with shuttlecocks", "Yonex", domain.CategoryBadminton, 10, false, []string{"racket", "indoor"}},
	{"Volleyball", "Soft touch indoor ball", "Mikasa", domain.CategoryVolleyball, 8, false, []string{"ball", "indoor"}},
	{"Hockey Stick", "Composite field hockey stick", "Grays", domain.CategoryHockey, 10, false, []string{"stick"}},
	{"Starting Blocks", "Adjustable sprint starting blocks", "Nelco", domain.CategoryAthletics, 4, false, []string{"track"}},
	{"Kickboard", "Foam swimming kickboard", "Speedo", domain.CategorySwimming, 15, false, []string{"pool"}},
	{"Dumbbell Pair 10kg", "Rubber coated hex dumbbells", "Decathlon", domain.CategoryGym, 6, true, []string{"weights"}},
}

func main() {
	reset := flag.Bool("reset", false, "delete requests, notifications and equipment before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("load config: " + err.Error())
	}
	log := logger.New(cfg.AppEnv)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("database connect failed", zap.Error(err))
	}
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("database migrate failed", zap.Error(err))
	}

	if *reset {
		if err := wipe(ctx, db); err != nil {
			log.Fatal("reset failed", zap.Error(err))
		}
		log.Info("existing data removed")
	}

	store := repository.NewStore(db)
	if err := seedAdmins(ctx, store, cfg.DefaultAdminPassword, log); err != nil {
		log.Fatal("seed admins failed", zap.Error(err))
	}
	n, err := seedEquipment(ctx, store)
	if err != nil {
		log.Fatal("seed equipment failed", zap.Error(err))
	}
	log.Info("seed completed", zap.Int("equipment_created", n))
}

func wipe(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{
			"notification_reads", "notification_recipients", "notifications",
			"request_extensions", "request_histories", "requests", "equipment",
		} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func seedAdmins(ctx context.Context, store *repository.Store, password string, log *zap.Logger) error {
	admins := []domain.Admin{
		{
			Username:    "admin",
			Email:       "admin@sportsequipment.com",
			FullName:    "System Administrator",
			Role:        domain.RoleSuperAdmin,
			Permissions: domain.AllPermissions(),
		},
		{
			Username: "storekeeper",
			Email:    "storekeeper@sportsequipment.com",
			FullName: "Equipment Storekeeper",
			Role:     domain.RoleAdmin,
			Permissions: domain.Permissions{
				CanManageEquipment: true,
				CanManageRequests:  true,
				CanViewReports:     true,
			},
		},
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	for i := range admins {
		a := &admins[i]
		_, err := store.Admins.GetByUsername(ctx, a.Username)
		if err == nil {
			log.Info("admin exists, skipped", zap.String("username", a.Username))
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		a.PasswordHash = string(hash)
		a.IsActive = true
		if err := store.Admins.Create(ctx, a); err != nil {
			return err
		}
		log.Info("admin created", zap.String("username", a.Username), zap.String("role", string(a.Role)))
	}
	return nil
}

func seedEquipment(ctx context.Context, store *repository.Store) (int, error) {
	existing, total, err := store.Equipment.List(ctx, repository.EquipmentFilter{Page: repository.Page{Page: 1, Limit: 1}})
	if err != nil {
		return 0, err
	}
	if total > 0 || len(existing) > 0 {
		return 0, nil
	}

	created := 0
	for _, it := range catalog {
		e := &domain.Equipment{
			Name:           it.name,
			Description:    it.description,
			Category:       it.category,
			Brand:          it.brand,
			Specifications: domain.Specifications{Condition: domain.ConditionGood},
			Quantity:       domain.NewQuantity(it.total),
			Images:         []domain.Image{},
			Location:       domain.Location{Building: "Sports Complex", Room: "Store 1"},
			Tags:           it.tags,
			IsActive:       true,
			IsNewArrival:   it.newArrival,
		}
		if err := store.Equipment.Create(ctx, e); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
