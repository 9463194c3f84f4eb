package model

import "time"

type User struct {
	ID               uint `gorm:"primaryKey"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Email            string  `gorm:"size:255;uniqueIndex;not null"`
	TelegramUserID   *string `gorm:"size:100;uniqueIndex"`
	TelegramUsername string  `gorm:"size:100"`
}

type UserDTO struct {
	ID               uint   `json:"id"`
	Email            string `json:"email"`
	TelegramUserID   string `json:"telegram_user_id,omitempty"`
	TelegramUsername string `json:"telegram_username,omitempty"`
}

func (u *User) DTO() *UserDTO {
	if u == nil {
		return nil
	}

	d := &UserDTO{
		ID:               u.ID,
		Email:            u.Email,
		TelegramUsername: u.TelegramUsername,
	}

	if u.TelegramUserID != nil {
		d.TelegramUserID = *u.TelegramUserID
	}

	return d
}

func (u *UserDTO) Joined() bool {
	return u != nil && u.TelegramUserID != ""
}
