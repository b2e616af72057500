package themes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dndbuilder/internal/models"
	"dndbuilder/internal/store"
)

// memRepo is an in-memory Repository that enforces the same unique
// indexes as the database schema.
type memRepo struct {
	mu     sync.Mutex
	themes map[uuid.UUID]models.Theme
	clock  time.Time

	// raceName, when set, makes the next Create behave as if another
	// request inserted the same name between the pre-check and the insert.
	raceName bool
	writes   int

	// raceActive, when set, activates a theme of another request right
	// after the next DeactivateAll, before the caller's own write.
	raceActive *models.Theme
}

func newMemRepo() *memRepo {
	return &memRepo{
		themes: map[uuid.UUID]models.Theme{},
		clock:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *memRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *memRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Theme, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Theme{}
	for _, t := range r.themes {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) FindByID(_ context.Context, id, userID uuid.UUID) (*models.Theme, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.themes[id]; ok && t.UserID == userID {
		return &t, nil
	}
	return nil, nil
}

func (r *memRepo) FindByName(_ context.Context, userID uuid.UUID, name string, excludeID uuid.UUID) (*models.Theme, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.themes {
		if t.UserID == userID && t.Name == name && t.ID != excludeID {
			return &t, nil
		}
	}
	return nil, nil
}

func (r *memRepo) FindActive(_ context.Context, userID uuid.UUID) (*models.Theme, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.themes {
		if t.UserID == userID && t.IsActive {
			return &t, nil
		}
	}
	return nil, nil
}

// checkUnique reports the index a candidate row would violate.
func (r *memRepo) checkUnique(c models.Theme) error {
	for _, t := range r.themes {
		if t.ID == c.ID || t.UserID != c.UserID {
			continue
		}
		if t.Name == c.Name {
			return store.ErrDuplicate
		}
		if t.IsActive && c.IsActive {
			return store.ErrActiveConflict
		}
	}
	return nil
}

func (r *memRepo) Create(_ context.Context, t *models.Theme) (*models.Theme, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.raceName {
		r.raceName = false
		return nil, store.ErrDuplicate
	}
	c := *t
	c.ID = uuid.New()
	if err := r.checkUnique(c); err != nil {
		return nil, err
	}
	c.CreatedAt = r.tick()
	c.UpdatedAt = c.CreatedAt
	r.themes[c.ID] = c
	r.writes++
	return &c, nil
}

func (r *memRepo) Update(_ context.Context, id, userID uuid.UUID, patch models.ThemePatch) (*models.Theme, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.themes[id]
	if !ok || t.UserID != userID {
		return nil, nil
	}
	if patch.Name != nil {
		t.Name = *patch.Name
	}
	if patch.Settings != nil {
		t.Settings = patch.Settings
	}
	if patch.IsActive != nil {
		t.IsActive = *patch.IsActive
	}
	if err := r.checkUnique(t); err != nil {
		return nil, err
	}
	t.UpdatedAt = r.tick()
	r.themes[id] = t
	r.writes++
	return &t, nil
}

func (r *memRepo) DeactivateAll(_ context.Context, userID, excludeID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.themes {
		if t.UserID == userID && t.IsActive && id != excludeID {
			t.IsActive = false
			r.themes[id] = t
			n++
		}
	}
	if n > 0 {
		r.writes++
	}
	if rival := r.raceActive; rival != nil && rival.UserID == userID {
		r.raceActive = nil
		rival.ID = uuid.New()
		rival.IsActive = true
		r.themes[rival.ID] = *rival
	}
	return n, nil
}

func (r *memRepo) Delete(_ context.Context, id, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.themes[id]
	if !ok || t.UserID != userID || t.IsActive {
		return false, nil
	}
	delete(r.themes, id)
	r.writes++
	return true, nil
}

// activeCount returns how many themes of userID are active.
func (r *memRepo) activeCount(userID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.themes {
		if t.UserID == userID && t.IsActive {
			n++
		}
	}
	return n
}
