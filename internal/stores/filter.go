package stores

import (
	"strings"

	"github.com/angelmondragon/marketplace-backend/pkg/db"
	"github.com/angelmondragon/marketplace-backend/pkg/enums"
	"gorm.io/gorm"
)

// StoreFilter is an AND-conjunction of optional predicates. Empty fields are
// left out of the query.
type StoreFilter struct {
	Status       *enums.StoreStatus
	Name         string
	Slug         string
	ContactEmail string
	ContactPhone string
	Search       string
}

// Scope applies the filter to a query over the stores table.
func (f StoreFilter) Scope(q *gorm.DB) *gorm.DB {
	if f.Status != nil {
		q = q.Where("stores.status = ?", *f.Status)
	}
	if name := strings.TrimSpace(f.Name); name != "" {
		q = q.Where("LOWER(stores.name) LIKE ? "+db.LikeEscape, db.ContainsPattern(name))
	}
	if f.Slug != "" {
		q = q.Where("stores.slug = ?", f.Slug)
	}
	if f.ContactEmail != "" {
		q = q.Where("stores.contact_email = ?", f.ContactEmail)
	}
	if f.ContactPhone != "" {
		q = q.Where("stores.contact_phone = ?", f.ContactPhone)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := db.ContainsPattern(search)
		q = q.Where(
			"(LOWER(stores.name) LIKE ? "+db.LikeEscape+
				" OR LOWER(stores.description) LIKE ? "+db.LikeEscape+
				" OR LOWER(stores.slug) LIKE ? "+db.LikeEscape+")",
			pattern, pattern, pattern,
		)
	}
	return q
}
