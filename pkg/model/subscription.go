package model

import "time"

type Subscription struct {
	ID                    uint `gorm:"primaryKey"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
	UserID                uint `gorm:"index;not null"`
	User                  *User
	ProductID             uint `gorm:"index;not null"`
	Product               *Product
	TelegramGroupID       uint `gorm:"index;not null"`
	TelegramGroup         *TelegramGroup
	InviteLinkToken       *string `gorm:"size:255;uniqueIndex"`
	InviteLinkURL         string  `gorm:"size:512"`
	InviteLinkExpiresAt   *time.Time
	SubscriptionStartsAt  time.Time
	SubscriptionExpiresAt time.Time `gorm:"index;not null"`
	Status                Status    `gorm:"size:20;index;default:pending_join"`
}

type SubscriptionDTO struct {
	ID                    uint        `json:"id"`
	User                  *UserDTO    `json:"user"`
	Product               *ProductDTO `json:"product"`
	Status                Status      `json:"status"`
	InviteLinkURL         string      `json:"invite_link_url,omitempty"`
	InviteLinkExpiresAt   NullTime    `json:"invite_link_expires_at"`
	SubscriptionStartsAt  NullTime    `json:"subscription_starts_at"`
	SubscriptionExpiresAt NullTime    `json:"subscription_expires_at"`
	CreatedAt             NullTime    `json:"created_at"`
}

func (s *Subscription) DTO() *SubscriptionDTO {
	if s == nil {
		return nil
	}

	d := &SubscriptionDTO{
		ID:                    s.ID,
		User:                  s.User.DTO(),
		Status:                s.Status,
		InviteLinkURL:         s.InviteLinkURL,
		InviteLinkExpiresAt:   NewNullTime(s.InviteLinkExpiresAt),
		SubscriptionStartsAt:  NullTime(s.SubscriptionStartsAt),
		SubscriptionExpiresAt: NullTime(s.SubscriptionExpiresAt),
		CreatedAt:             NullTime(s.CreatedAt),
	}

	if s.Product != nil {
		d.Product = &ProductDTO{ID: s.Product.ID, Name: s.Product.Name, Description: s.Product.Description}
	}

	return d
}

func (s *SubscriptionDTO) ProductID() uint {
	if s == nil || s.Product == nil {
		return 0
	}

	return s.Product.ID
}

func (s *SubscriptionDTO) ProductName() string {
	if s == nil || s.Product == nil {
		return ""
	}

	return s.Product.Name
}

func (s *SubscriptionDTO) Email() string {
	if s == nil || s.User == nil {
		return ""
	}

	return s.User.Email
}
