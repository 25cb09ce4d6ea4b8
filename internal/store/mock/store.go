package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/purrpal/purrpal/internal/store"
	"github.com/purrpal/purrpal/pkg/models"
)

// MemoryStore is an in-process store.Store for handler tests. It enforces the
// same unique and not-found rules as the Postgres store. PingErr and Err, when
// set, are returned by Ping and by every data operation respectively.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	stories  []*models.Story
	modules  map[string]*models.Module
	services []*models.VeterinaryService

	PingErr error
	Err     error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[uuid.UUID]*models.User),
		modules: make(map[string]*models.Module),
	}
}

func (m *MemoryStore) Ping(_ context.Context) error { return m.PingErr }

// AddModule seeds a module with its sections.
func (m *MemoryStore) AddModule(mod *models.Module) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modules[mod.ID] = mod
}

// AddVeterinaryService seeds a clinic.
func (m *MemoryStore) AddVeterinaryService(v *models.VeterinaryService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = append(m.services, v)
}

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, u := range m.users {
		if u.Email == user.Email || u.Username == user.Username {
			return store.ErrDuplicateKey
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemoryStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) UpdateProfile(_ context.Context, id uuid.UUID, update models.ProfileUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if update.FullName != nil {
		u.FullName = update.FullName
	}
	if update.Role != nil {
		u.Role = update.Role
	}
	if update.Location != nil {
		u.Location = update.Location
	}
	if update.Bio != nil {
		u.Bio = update.Bio
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *MemoryStore) UpdateEmail(_ context.Context, id uuid.UUID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	for other, ou := range m.users {
		if other != id && ou.Email == email {
			return store.ErrDuplicateKey
		}
	}
	u.Email = email
	return nil
}

func (m *MemoryStore) ListStories(_ context.Context) ([]*models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]*models.Story, 0, len(m.stories))
	for _, s := range m.stories {
		cp := *s
		if u, ok := m.users[s.UserID]; ok {
			cp.AuthorUsername = u.Username
			cp.AuthorAvatarURL = u.AvatarURL
		}
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) CreateStory(_ context.Context, story *models.Story) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if story.ID == uuid.Nil {
		story.ID = uuid.New()
	}
	if story.CreatedAt.IsZero() {
		story.CreatedAt = time.Now().UTC()
	}
	cp := *story
	m.stories = append(m.stories, &cp)
	return nil
}

func (m *MemoryStore) ListModules(_ context.Context) ([]*models.Module, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]*models.Module, 0, len(m.modules))
	for _, mod := range m.modules {
		cp := *mod
		cp.Sections = nil
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) GetModule(_ context.Context, id string) (*models.Module, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	mod, ok := m.modules[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *mod
	cp.Sections = append([]models.ModuleSection{}, mod.Sections...)
	sort.Slice(cp.Sections, func(i, j int) bool { return cp.Sections[i].OrderIndex < cp.Sections[j].OrderIndex })
	return &cp, nil
}

func (m *MemoryStore) ListVeterinaryServices(_ context.Context, filter store.VeterinaryFilter) ([]*models.VeterinaryService, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	city := strings.ToLower(strings.TrimSpace(filter.City))
	var out []*models.VeterinaryService
	for _, v := range m.services {
		if city == "" || strings.Contains(strings.ToLower(v.Address), city) {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

var _ store.Store = (*MemoryStore)(nil)
