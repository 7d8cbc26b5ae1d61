// Package repositories holds the SQL backed record collections
package repositories

import (
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/canonicalrecord"
	"github.com/Ramsey-B/fern/internal/repositories/legacyrecord"
	"github.com/Ramsey-B/fern/internal/repositories/permitrecord"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/store"
)

// Repositories bundles the three record repositories
type Repositories struct {
	Permits   *permitrecord.Repository
	Canonical *canonicalrecord.Repository
	Legacy    *legacyrecord.Repository
}

func New(db database.DB, logger ectologger.Logger) *Repositories {
	return &Repositories{
		Permits:   permitrecord.NewRepository(db, logger),
		Canonical: canonicalrecord.NewRepository(db, logger),
		Legacy:    legacyrecord.NewRepository(db, logger),
	}
}

// Store exposes the repositories as the collections the matchers query
func (r *Repositories) Store() store.Store {
	return store.Store{
		Permits:   r.Permits,
		Canonical: r.Canonical,
		Legacy:    r.Legacy,
	}
}
