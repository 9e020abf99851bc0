// Package cache decorates read-mostly repositories with an in-process TTL cache.
package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

const doctorListKey = "doctors:all"

// Catalog caches doctor and patient lookups. Treatments always go to the underlying
// repository so that price snapshots see the current catalog price.
type Catalog struct {
	next  repository.CatalogRepository
	cache *gocache.Cache
}

var _ repository.CatalogRepository = (*Catalog)(nil)

func NewCatalog(next repository.CatalogRepository, ttl, cleanup time.Duration) *Catalog {
	return &Catalog{
		next:  next,
		cache: gocache.New(ttl, cleanup),
	}
}

func (c *Catalog) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return cached(c, "doctor:"+id.String(), func() (*model.Doctor, error) {
		return c.next.GetDoctor(ctx, id)
	})
}

func (c *Catalog) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return cached(c, "patient:"+id.String(), func() (*model.Patient, error) {
		return c.next.GetPatient(ctx, id)
	})
}

func (c *Catalog) DoctorByUser(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	return cached(c, "doctor:user:"+userID.String(), func() (*model.Doctor, error) {
		return c.next.DoctorByUser(ctx, userID)
	})
}

func (c *Catalog) PatientByUser(ctx context.Context, userID uuid.UUID) (*model.Patient, error) {
	return cached(c, "patient:user:"+userID.String(), func() (*model.Patient, error) {
		return c.next.PatientByUser(ctx, userID)
	})
}

func (c *Catalog) ListDoctors(ctx context.Context) ([]*model.Doctor, error) {
	if v, found := c.cache.Get(doctorListKey); found {
		return copyDoctors(v.([]*model.Doctor)), nil
	}
	doctors, err := c.next.ListDoctors(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Set(doctorListKey, copyDoctors(doctors), gocache.DefaultExpiration)
	return doctors, nil
}

func (c *Catalog) TreatmentsByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Treatment, error) {
	return c.next.TreatmentsByIDs(ctx, ids)
}

// Flush drops every cached entry.
func (c *Catalog) Flush() {
	c.cache.Flush()
}

// cached returns a copy of the cached value for key, loading and storing it on a miss.
// Errors are not cached.
func cached[T any](c *Catalog, key string, load func() (*T, error)) (*T, error) {
	if v, found := c.cache.Get(key); found {
		cp := *(v.(*T))
		return &cp, nil
	}
	v, err := load()
	if err != nil {
		return nil, err
	}
	stored := *v
	c.cache.Set(key, &stored, gocache.DefaultExpiration)
	return v, nil
}

func copyDoctors(in []*model.Doctor) []*model.Doctor {
	out := make([]*model.Doctor, len(in))
	for i, d := range in {
		cp := *d
		out[i] = &cp
	}
	return out
}
