package category

import (
	"errors"
	"regexp"
	"strings"
)

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrEmptyName        = errors.New("category name cannot be empty")
)

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a name and collapses runs of non-alphanumerics to hyphens.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugStrip.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
