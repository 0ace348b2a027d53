package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Category struct {
	ID        gocql.UUID  `json:"id"`
	Name      string      `json:"name"`
	Slug      string      `json:"slug"`
	ParentID  *gocql.UUID `json:"parent_id,omitempty"`
	Image     *Image      `json:"image,omitempty"`
	Order     int         `json:"order"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
