package database

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kdudkov/tgsubs/pkg/model"
)

// Error is a domain failure with the HTTP status it maps to. Message is
// shown to the user as is.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrProductNotFound      = &Error{http.StatusNotFound, "Product not found"}
	ErrProductNotMapped     = &Error{http.StatusBadRequest, "Product is not mapped to a Telegram group"}
	ErrProductMapped        = &Error{http.StatusBadRequest, "Product is already mapped to a group"}
	ErrProductInUse         = &Error{http.StatusBadRequest, "Product has subscriptions"}
	ErrGroupMapped          = &Error{http.StatusBadRequest, "Telegram group is already mapped to another product"}
	ErrNoMapping            = &Error{http.StatusNotFound, "No mapping found for this product"}
	ErrActiveSubscription   = &Error{http.StatusBadRequest, "User already has an active subscription for this product"}
	ErrSubscriptionNotFound = &Error{http.StatusNotFound, "Subscription not found"}
	ErrAlreadyCancelled     = &Error{http.StatusBadRequest, "Subscription is already cancelled"}
	ErrInviteInvalid        = &Error{http.StatusBadRequest, "Invite link is no longer valid"}
)

// Terms are the invite and subscription durations used for new subscriptions.
type Terms struct {
	InviteBase      string
	InviteTTL       time.Duration
	SubscriptionTTL time.Duration
}

var DefaultTerms = Terms{
	InviteBase:      "https://t.me/+",
	InviteTTL:       time.Hour * 24,
	SubscriptionTTL: time.Hour * 24 * 30,
}

type DatabaseManager struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
	terms  Terms
	now    func() time.Time
}

// GetDatabase opens the sqlite database at dsn.
func GetDatabase(dsn string, debug bool) (*gorm.DB, error) {
	conf := &gorm.Config{}

	if debug {
		conf.Logger = logger.Default.LogMode(logger.Info)
	} else {
		conf.Logger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(sqlite.Open(dsn), conf)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// sqlite allows one writer; ":memory:" is also per connection
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

func New(db *gorm.DB, logger *zap.SugaredLogger) *DatabaseManager {
	return &DatabaseManager{
		db:     db,
		logger: logger.Named("dbm"),
		terms:  DefaultTerms,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (mm *DatabaseManager) SetTerms(t Terms) {
	if t.InviteBase != "" {
		mm.terms.InviteBase = t.InviteBase
	}

	if t.InviteTTL > 0 {
		mm.terms.InviteTTL = t.InviteTTL
	}

	if t.SubscriptionTTL > 0 {
		mm.terms.SubscriptionTTL = t.SubscriptionTTL
	}
}

func (mm *DatabaseManager) Migrate() error {
	if mm == nil || mm.db == nil {
		return fmt.Errorf("no database")
	}

	return mm.db.AutoMigrate(
		&model.Product{},
		&model.TelegramGroup{},
		&model.User{},
		&model.Subscription{},
	)
}

func (mm *DatabaseManager) Create(s any) error {
	err := mm.db.Create(s).Error

	if err != nil {
		mm.logger.Errorf("error create object: %s", err.Error())
	}

	return err
}

func (mm *DatabaseManager) Save(s any) error {
	err := mm.db.Save(s).Error

	if err != nil {
		mm.logger.Errorf("error saving object: %s", err.Error())
	}

	return err
}

func (mm *DatabaseManager) ProductQuery() *ProductQuery {
	return NewProductQuery(mm.db)
}

func (mm *DatabaseManager) GroupQuery() *GroupQuery {
	return NewGroupQuery(mm.db)
}

func (mm *DatabaseManager) UserQuery() *UserQuery {
	return NewUserQuery(mm.db)
}

func (mm *DatabaseManager) SubscriptionQuery() *SubscriptionQuery {
	return NewSubscriptionQuery(mm.db)
}

func (mm *DatabaseManager) UpdateProduct(id uint, name, descr string) (*model.Product, error) {
	if err := mm.ProductQuery().Id(id).Update(map[string]any{"name": name, "description": descr}); err != nil {
		if errors.Is(err, errUpdate) {
			return nil, ErrProductNotFound
		}

		return nil, err
	}

	return mm.ProductQuery().Id(id).Full().One(), nil
}

// DeleteProduct removes the product and releases its group.
func (mm *DatabaseManager) DeleteProduct(id uint) error {
	return mm.db.Transaction(func(tx *gorm.DB) error {
		if NewProductQuery(tx).Id(id).One() == nil {
			return ErrProductNotFound
		}

		if NewSubscriptionQuery(tx).Product(id).Count() > 0 {
			return ErrProductInUse
		}

		if err := tx.Model(&model.TelegramGroup{}).Where("product_id = ?", id).Update("product_id", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&model.Product{}, id).Error
	})
}

// MapProduct links the product to the telegram group, creating the group
// when it is not known yet.
func (mm *DatabaseManager) MapProduct(productID uint, groupID, groupName string) (*model.TelegramGroup, error) {
	groupID = strings.TrimSpace(groupID)

	var res *model.TelegramGroup

	err := mm.db.Transaction(func(tx *gorm.DB) error {
		p := NewProductQuery(tx).Id(productID).Full().One()

		if p == nil {
			return ErrProductNotFound
		}

		if p.TelegramGroup != nil {
			return ErrProductMapped
		}

		g := NewGroupQuery(tx).TelegramID(groupID).One()

		if g == nil {
			g = &model.TelegramGroup{TelegramGroupID: groupID, TelegramGroupName: groupName, IsActive: true}
		} else if g.ProductID != nil {
			return ErrGroupMapped
		}

		g.ProductID = &productID

		if err := tx.Save(g).Error; err != nil {
			return err
		}

		g.Product = p
		res = g

		return nil
	})

	return res, err
}

func (mm *DatabaseManager) UnmapProduct(productID uint) error {
	err := mm.GroupQuery().Product(productID).Update(map[string]any{"product_id": nil})

	if errors.Is(err, errUpdate) {
		return ErrNoMapping
	}

	return err
}

// Subscribe creates a pending subscription with a fresh invite link.
// The user is created on first use. A nil expires means the default term.
func (mm *DatabaseManager) Subscribe(email string, productID uint, expires *time.Time) (*model.Subscription, error) {
	now := mm.now()

	var res *model.Subscription

	err := mm.db.Transaction(func(tx *gorm.DB) error {
		p := NewProductQuery(tx).Id(productID).Full().One()

		if p == nil {
			return ErrProductNotFound
		}

		if p.TelegramGroup == nil {
			return ErrProductNotMapped
		}

		user := NewUserQuery(tx).Email(email).One()

		if user == nil {
			user = &model.User{Email: email}

			if err := tx.Create(user).Error; err != nil {
				return err
			}
		} else if NewSubscriptionQuery(tx).User(user.ID).Product(productID).Status(model.StatusActive).Count() > 0 {
			return ErrActiveSubscription
		}

		token := uuid.NewString()
		inviteExpires := now.Add(mm.terms.InviteTTL)

		s := &model.Subscription{
			UserID:                user.ID,
			User:                  user,
			ProductID:             p.ID,
			Product:               p,
			TelegramGroupID:       p.TelegramGroup.ID,
			InviteLinkToken:       &token,
			InviteLinkURL:         mm.terms.InviteBase + token,
			InviteLinkExpiresAt:   &inviteExpires,
			SubscriptionStartsAt:  now,
			SubscriptionExpiresAt: now.Add(mm.terms.SubscriptionTTL),
			Status:                model.StatusPendingJoin,
		}

		if expires != nil {
			s.SubscriptionExpiresAt = expires.UTC()
		}

		if err := tx.Omit("User", "Product", "TelegramGroup").Create(s).Error; err != nil {
			return err
		}

		res = s

		return nil
	})

	if err == nil {
		mm.logger.Infof("new subscription %d: %s to %s", res.ID, email, res.Product.Name)
	}

	return res, err
}

func (mm *DatabaseManager) CancelSubscription(id uint) error {
	s := mm.SubscriptionQuery().Id(id).One()

	if s == nil {
		return ErrSubscriptionNotFound
	}

	if s.Status == model.StatusCancelled {
		return ErrAlreadyCancelled
	}

	if _, err := mm.SubscriptionQuery().Id(id).Update(map[string]any{"status": model.StatusCancelled}); err != nil {
		return err
	}

	mm.logger.Infof("subscription %d cancelled", id)

	return nil
}

// ExpireDue marks active subscriptions whose term has ended as expired.
func (mm *DatabaseManager) ExpireDue() (int64, error) {
	n, err := mm.SubscriptionQuery().Status(model.StatusActive).ExpiredAt(mm.now()).
		Update(map[string]any{"status": model.StatusExpired})

	if n > 0 {
		mm.logger.Infof("%d subscriptions expired", n)
	}

	return n, err
}

// Join activates the subscription of the invite token and stores the
// telegram identity of its user.
func (mm *DatabaseManager) Join(token, telegramUserID, telegramUsername string) (*model.Subscription, error) {
	s := mm.SubscriptionQuery().InviteToken(token).One()

	if s == nil {
		return nil, ErrSubscriptionNotFound
	}

	if s.Status != model.StatusPendingJoin || (s.InviteLinkExpiresAt != nil && s.InviteLinkExpiresAt.Before(mm.now())) {
		return nil, ErrInviteInvalid
	}

	err := mm.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).Where("id = ?", s.UserID).Updates(map[string]any{
			"telegram_user_id":  telegramUserID,
			"telegram_username": telegramUsername,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&model.Subscription{}).Where("id = ?", s.ID).Update("status", model.StatusActive).Error
	})
	if err != nil {
		return nil, err
	}

	return mm.SubscriptionQuery().Id(s.ID).One(), nil
}
