package model

import (
	"time"
)

type Product struct {
	ID            uint `gorm:"primaryKey"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Name          string         `gorm:"size:100;not null"`
	Description   string         `gorm:"type:text"`
	TelegramGroup *TelegramGroup `gorm:"foreignKey:ProductID"`
}

type TelegramGroup struct {
	ID                uint `gorm:"primaryKey"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	TelegramGroupID   string `gorm:"size:100;uniqueIndex;not null"`
	TelegramGroupName string `gorm:"size:255;not null"`
	ProductID         *uint  `gorm:"uniqueIndex"`
	Product           *Product
	IsActive          bool
}

type ProductDTO struct {
	ID            uint              `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	CreatedAt     NullTime          `json:"created_at"`
	UpdatedAt     NullTime          `json:"updated_at"`
	TelegramGroup *TelegramGroupDTO `json:"telegram_group"`
}

type TelegramGroupDTO struct {
	ID                uint        `json:"id"`
	TelegramGroupID   string      `json:"telegram_group_id"`
	TelegramGroupName string      `json:"telegram_group_name"`
	ProductID         *uint       `json:"product_id"`
	IsActive          bool        `json:"is_active"`
	CreatedAt         NullTime    `json:"created_at"`
	Product           *ProductDTO `json:"product,omitempty"`
}

func (p *Product) DTO() *ProductDTO {
	if p == nil {
		return nil
	}

	d := &ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   NullTime(p.CreatedAt),
		UpdatedAt:   NullTime(p.UpdatedAt),
	}

	if p.TelegramGroup != nil {
		d.TelegramGroup = p.TelegramGroup.shortDTO()
	}

	return d
}

func (g *TelegramGroup) DTO() *TelegramGroupDTO {
	if g == nil {
		return nil
	}

	d := g.shortDTO()

	if g.Product != nil {
		d.Product = &ProductDTO{
			ID:          g.Product.ID,
			Name:        g.Product.Name,
			Description: g.Product.Description,
			CreatedAt:   NullTime(g.Product.CreatedAt),
			UpdatedAt:   NullTime(g.Product.UpdatedAt),
		}
	}

	return d
}

func (g *TelegramGroup) shortDTO() *TelegramGroupDTO {
	return &TelegramGroupDTO{
		ID:                g.ID,
		TelegramGroupID:   g.TelegramGroupID,
		TelegramGroupName: g.TelegramGroupName,
		ProductID:         g.ProductID,
		IsActive:          g.IsActive,
		CreatedAt:         NullTime(g.CreatedAt),
	}
}

// Mapped reports whether the product has a Telegram group to invite users to.
func (p *ProductDTO) Mapped() bool {
	return p != nil && p.TelegramGroup != nil
}

func (g *TelegramGroupDTO) Mapped() bool {
	return g != nil && g.ProductID != nil
}

func (g *TelegramGroupDTO) ProductName() string {
	if g == nil || g.Product == nil {
		return ""
	}

	return g.Product.Name
}
