// Package memstore keeps projects, site settings and admins in process memory. It backs
// DB_TYPE=memory and the service and API tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
)

// Store is the in-memory equivalent of database.Database.
type Store struct {
	projects *ProjectRepo
	settings *SiteSettingsRepo
	admins   *AdminRepo
}

func New() *Store {
	return NewWithClock(now)
}

// NewWithClock uses clock for every timestamp the store sets.
func NewWithClock(clock func() time.Time) *Store {
	return &Store{
		projects: &ProjectRepo{items: make(map[uuid.UUID]models.Project), now: clock},
		settings: &SiteSettingsRepo{now: clock},
		admins:   &AdminRepo{items: make(map[string]models.Admin), now: clock},
	}
}

func (s *Store) ProjectRepo() *ProjectRepo           { return s.projects }
func (s *Store) SiteSettingsRepo() *SiteSettingsRepo { return s.settings }
func (s *Store) AdminRepo() *AdminRepo               { return s.admins }

func (s *Store) Ping(context.Context) error  { return nil }
func (s *Store) Close(context.Context) error { return nil }

func now() time.Time { return time.Now().UTC() }

type ProjectRepo struct {
	mu    sync.RWMutex
	items map[uuid.UUID]models.Project
	now   func() time.Time
}

// FindAll returns all projects, newest first, ties broken by id descending.
func (r *ProjectRepo) FindAll(ctx context.Context) ([]models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Project, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p.Normalized())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out, nil
}

func (r *ProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, errs.ErrNotFound)
	}
	p = p.Normalized()
	return &p, nil
}

func (r *ProjectRepo) Add(ctx context.Context, project *models.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[project.ID]; ok {
		return fmt.Errorf("project %s: %w", project.ID, errs.ErrAlreadyExists)
	}
	t := r.now()
	project.CreatedAt = t
	project.UpdatedAt = t
	r.items[project.ID] = project.Normalized()
	return nil
}

func (r *ProjectRepo) Update(ctx context.Context, project *models.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[project.ID]
	if !ok {
		return fmt.Errorf("project %s: %w", project.ID, errs.ErrNotFound)
	}
	project.CreatedAt = existing.CreatedAt
	project.UpdatedAt = r.now()
	r.items[project.ID] = project.Normalized()
	return nil
}

func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, id)
	return nil
}

// SiteSettingsRepo stores the singleton in its persisted shape, so legacy contact fields
// behave as they do in the real stores.
type SiteSettingsRepo struct {
	mu     sync.Mutex
	stored *storedSettings
	now    func() time.Time
}

type storedSettings struct {
	hero      models.HeroSettings
	about     models.AboutSettings
	contact   models.StoredContact
	version   int64
	createdAt time.Time
	updatedAt time.Time
}

func (r *SiteSettingsRepo) Find(ctx context.Context) (*models.SiteSettings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stored == nil {
		return nil, fmt.Errorf("site settings: %w", errs.ErrNotFound)
	}
	s := r.stored.toModel()
	return &s, nil
}

func (r *SiteSettingsRepo) CreateIfAbsent(ctx context.Context, settings models.SiteSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stored != nil {
		return nil
	}
	if settings.Version == 0 {
		settings.Version = 1
	}
	t := r.now()
	s := settings.Normalized()
	r.stored = &storedSettings{
		hero:      s.Hero,
		about:     s.About,
		contact:   models.NewStoredContact(s.Contact),
		version:   settings.Version,
		createdAt: t,
		updatedAt: t,
	}
	return nil
}

func (r *SiteSettingsRepo) Save(ctx context.Context, settings *models.SiteSettings, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stored == nil || r.stored.version != expectedVersion {
		return fmt.Errorf("site settings at version %d: %w", expectedVersion, errs.ErrVersionMismatch)
	}
	t := r.now()
	s := settings.Normalized()
	r.stored = &storedSettings{
		hero:      s.Hero,
		about:     s.About,
		contact:   models.NewStoredContact(s.Contact),
		version:   expectedVersion + 1,
		createdAt: r.stored.createdAt,
		updatedAt: t,
	}

	settings.Version = expectedVersion + 1
	settings.CreatedAt = r.stored.createdAt
	settings.UpdatedAt = t
	settings.LegacyContact = false
	return nil
}

// PutLegacy replaces the stored document with one whose contact section uses the given
// persisted shape. It exists to reproduce documents written by older deployments.
func (r *SiteSettingsRepo) PutLegacy(settings models.SiteSettings, contact models.StoredContact) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if settings.Version == 0 {
		settings.Version = 1
	}
	t := r.now()
	s := settings.Normalized()
	r.stored = &storedSettings{
		hero:      s.Hero,
		about:     s.About,
		contact:   contact,
		version:   settings.Version,
		createdAt: t,
		updatedAt: t,
	}
}

func (s *storedSettings) toModel() models.SiteSettings {
	return models.SiteSettings{
		Hero:          s.hero,
		About:         s.about,
		Contact:       s.contact.Contact(),
		Version:       s.version,
		CreatedAt:     s.createdAt,
		UpdatedAt:     s.updatedAt,
		LegacyContact: s.contact.IsLegacy(),
	}.Normalized()
}

type AdminRepo struct {
	mu    sync.RWMutex
	items map[string]models.Admin
	now   func() time.Time
}

func (r *AdminRepo) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[models.NormalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("admin %s: %w", email, errs.ErrNotFound)
	}
	return &a, nil
}

func (r *AdminRepo) Add(ctx context.Context, admin *models.Admin) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	admin.Email = models.NormalizeEmail(admin.Email)
	if _, ok := r.items[admin.Email]; ok {
		return fmt.Errorf("admin %s: %w", admin.Email, errs.ErrAlreadyExists)
	}
	admin.CreatedAt = r.now()
	r.items[admin.Email] = *admin
	return nil
}

func (r *AdminRepo) AddFirst(ctx context.Context, admin *models.Admin) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.items) > 0 {
		return fmt.Errorf("first admin: %w", errs.ErrAlreadyExists)
	}
	admin.Email = models.NormalizeEmail(admin.Email)
	admin.CreatedAt = r.now()
	r.items[admin.Email] = *admin
	return nil
}

func (r *AdminRepo) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.items)), nil
}
