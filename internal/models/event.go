package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

type Event struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name" validate:"required"`
	Description string     `db:"description" json:"description"`
	Date        string     `db:"date" json:"date"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	Rounds      int        `db:"rounds" json:"rounds" validate:"required,min=1"`
	IsLocked    bool       `db:"is_locked" json:"is_locked"`
	LockedBy    *string    `db:"locked_by" json:"locked_by,omitempty"`
	LockedAt    *time.Time `db:"locked_at" json:"locked_at,omitempty"`
}

type Judge struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name" validate:"required"`
	Username string `db:"username" json:"username"`
}

func (e *Event) Validate() error {
	validate := validator.New()
	return validate.Struct(e)
}
