package main

import (
	"strings"

	"gorm.io/gorm"
)

type SortType string

const (
	SortTypeAscending  SortType = "asc"
	SortTypeDescending SortType = "desc"
)

func (s SortType) ToString() string {
	return strings.ToUpper(string(s))
}

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ListOptions carries pagination and sort direction for listing endpoints.
type ListOptions struct {
	Offset uint32    `json:"offset,omitempty"`
	Limit  uint32    `json:"limit,omitempty"`
	Sort   *SortType `json:"sort,omitempty"`
}

func applySort(db *gorm.DB, sortBy string, defaultSort SortType, sortType *SortType) *gorm.DB {
	if sortType == nil {
		return db.Order(sortBy + " " + defaultSort.ToString())
	}
	return db.Order(sortBy + " " + sortType.ToString())
}

func paginate(db *gorm.DB, offset, limit uint32) *gorm.DB {
	effective := int(limit)
	if effective == 0 {
		effective = DefaultLimit
	} else if effective > MaxLimit {
		effective = MaxLimit
	}
	return db.Offset(int(offset)).Limit(effective)
}

func applyListOptions(db *gorm.DB, sortBy string, defaultSort SortType, options *ListOptions) *gorm.DB {
	if options == nil {
		return applySort(db, sortBy, defaultSort, nil)
	}
	db = applySort(db, sortBy, defaultSort, options.Sort)
	return paginate(db, options.Offset, options.Limit)
}
