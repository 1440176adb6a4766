package model

import "gorm.io/gorm"

type Category struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	Name      string `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Slug      string `gorm:"uniqueIndex;size:64;not null" json:"slug"`
	Icon      string `gorm:"size:32" json:"icon"`
	Color     string `gorm:"size:32" json:"color"`
	SortOrder int    `gorm:"not null;default:0" json:"sort_order"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	newID(&c.ID)
	return nil
}
