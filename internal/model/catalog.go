package model

import (
	"github.com/google/uuid"
)

type Doctor struct {
	Base
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Specialty string    `db:"specialty" json:"specialty"`
	Phone     string    `db:"phone" json:"phone"`
}

type Patient struct {
	Base
	UserID uuid.UUID `db:"user_id" json:"user_id"`
	Name   string    `db:"name" json:"name"`
	NIK    string    `db:"nik" json:"nik"`
	Phone  string    `db:"phone" json:"phone"`
	Email  string    `db:"email" json:"email"`
}

// Treatment is a catalog entry. PromoPrice, when set and positive, overrides Price.
type Treatment struct {
	Base
	Name       string `db:"name" json:"name"`
	Price      int64  `db:"price" json:"price"`
	PromoPrice *int64 `db:"promo_price" json:"promo_price,omitempty"`
	Active     bool   `db:"active" json:"active"`
}

func (t *Treatment) EffectivePrice() int64 {
	if t.PromoPrice != nil && *t.PromoPrice > 0 {
		return *t.PromoPrice
	}
	return t.Price
}
