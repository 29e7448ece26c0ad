package domain

import (
	"fmt"
	"strings"
)

// Category is one of the fixed exam subjects a question is tagged with.
type Category string

const (
	CategoryLaw        Category = "関係法規・制度"
	CategoryHygiene    Category = "衛生管理"
	CategoryHealth     Category = "美容保健"
	CategoryScience    Category = "美容の物理・化学"
	CategoryCulture    Category = "美容の文化論"
	CategoryTechnique  Category = "美容技術理論"
	CategoryManagement Category = "美容運営管理"
)

var categories = []Category{
	CategoryLaw,
	CategoryHygiene,
	CategoryHealth,
	CategoryScience,
	CategoryCulture,
	CategoryTechnique,
	CategoryManagement,
}

// Categories returns every category in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory maps a raw name onto the enumerated set.
func ParseCategory(raw string) (Category, error) {
	name := Category(strings.TrimSpace(raw))
	if name.Index() < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
	}
	return name, nil
}

// Index is the display position of the category, or -1 if it is not known.
func (c Category) Index() int {
	for i, known := range categories {
		if known == c {
			return i
		}
	}
	return -1
}

// Valid reports whether c is part of the enumerated set.
func (c Category) Valid() bool {
	return c.Index() >= 0
}

func (c Category) String() string {
	return string(c)
}

// SelectionMode says how an attempt's questions were chosen.
type SelectionMode string

const (
	SelectionMixed    SelectionMode = "mixed"
	SelectionCategory SelectionMode = "category"
	SelectionWeak     SelectionMode = "weak"
)

// WeakSelector is the raw selector value that starts weak-question practice.
const WeakSelector = "weak"

// Selection records the provenance of an attempt's question set.
type Selection struct {
	Mode        SelectionMode `json:"mode"`
	Category    Category      `json:"category,omitempty"`
	QuestionIDs []int         `json:"questionIds,omitempty"`
}

// MixedSelection draws from the whole pool.
func MixedSelection() Selection {
	return Selection{Mode: SelectionMixed}
}

// CategorySelection draws from one category.
func CategorySelection(c Category) Selection {
	return Selection{Mode: SelectionCategory, Category: c}
}

// WeakSelection draws from previously missed questions.
func WeakSelection(ids []int) Selection {
	out := make([]int, len(ids))
	copy(out, ids)
	return Selection{Mode: SelectionWeak, QuestionIDs: out}
}

// ParseSelection turns a raw selector ("", "random", "weak" or a category name) into a Selection.
// weakIDs is only consulted for the weak sentinel.
func ParseSelection(raw string, weakIDs []int) (Selection, error) {
	switch strings.TrimSpace(raw) {
	case "", "random", string(SelectionMixed):
		return MixedSelection(), nil
	case WeakSelector:
		return WeakSelection(weakIDs), nil
	}
	c, err := ParseCategory(raw)
	if err != nil {
		return Selection{}, err
	}
	return CategorySelection(c), nil
}

// Label is the category used to start the session; nil means mixed or weak practice.
func (s Selection) Label() *Category {
	if s.Mode != SelectionCategory {
		return nil
	}
	c := s.Category
	return &c
}
