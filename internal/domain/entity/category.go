package entity

import (
	"fmt"
	"image/color"
	"strings"
)

// Category категория безопасности детекции
type Category int

const (
	CategoryNeutral   Category = iota // ни соответствие, ни нарушение
	CategoryCompliant                 // СИЗ на месте
	CategoryViolation                 // СИЗ отсутствует
)

func (c Category) String() string {
	switch c {
	case CategoryNeutral:
		return "neutral"
	case CategoryCompliant:
		return "compliant"
	case CategoryViolation:
		return "violation"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Valid сообщает, что категория из известного набора
func (c Category) Valid() bool {
	return c >= CategoryNeutral && c <= CategoryViolation
}

// Alert сообщает, должна ли категория поднимать тревогу
func (c Category) Alert() bool {
	return c == CategoryViolation
}

// ParseCategory разбирает имя категории
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "neutral":
		return CategoryNeutral, nil
	case "compliant":
		return CategoryCompliant, nil
	case "violation":
		return CategoryViolation, nil
	default:
		return CategoryNeutral, fmt.Errorf("unknown category %q", s)
	}
}

// RenderStyle параметры отрисовки категории
type RenderStyle struct {
	Color      color.RGBA // рамка и фон подписи
	LabelColor color.RGBA // текст подписи
	Thickness  int        // толщина линии рамки
}

// Classification результат поиска метки в политике
type Classification struct {
	Category Category
	Style    RenderStyle
	Alert    bool
}
