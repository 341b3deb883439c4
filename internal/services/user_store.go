package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/justsurfingit/job-application-tracker/internal/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// UserStore persists accounts. Lookups are by (provider, username).
type UserStore interface {
	FindByUsername(ctx context.Context, provider, username string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	// UpsertExternal creates or refreshes an account owned by an external
	// identity provider and returns the stored row.
	UpsertExternal(ctx context.Context, u *models.User) (*models.User, error)
}

type GormUserStore struct {
	DB *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{DB: db}
}

func (s *GormUserStore) FindByUsername(ctx context.Context, provider, username string) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).
		Where("provider = ? AND username = ?", provider, username).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GormUserStore) Create(ctx context.Context, u *models.User) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("provider = ? AND username = ?", u.Provider, u.Username).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUsernameTaken
	}

	err := s.DB.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrUsernameTaken
	}
	return err
}

func (s *GormUserStore) UpsertExternal(ctx context.Context, u *models.User) (*models.User, error) {
	var out models.User
	// it creates an entry if one doesn't exist, and refreshes profile fields either way
	err := s.DB.WithContext(ctx).
		Where(models.User{Provider: u.Provider, Username: u.Username}).
		Assign(models.User{Email: u.Email, Name: u.Name, ExternalID: u.ExternalID}).
		FirstOrCreate(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// MemoryUserStore keeps users in process memory. Used when no database is
// configured and in tests.
type MemoryUserStore struct {
	mu     sync.Mutex
	nextID uint
	users  map[string]*models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*models.User)}
}

func memoryKey(provider, username string) string {
	return provider + "\x00" + username
}

func (m *MemoryUserStore) FindByUsername(_ context.Context, provider, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[memoryKey(provider, username)]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryUserStore) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memoryKey(u.Provider, u.Username)
	if _, ok := m.users[k]; ok {
		return ErrUsernameTaken
	}
	m.insertLocked(k, u)
	return nil
}

func (m *MemoryUserStore) UpsertExternal(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memoryKey(u.Provider, u.Username)
	if ex, ok := m.users[k]; ok {
		ex.Email = u.Email
		ex.Name = u.Name
		ex.ExternalID = u.ExternalID
		ex.UpdatedAt = time.Now()
		cp := *ex
		return &cp, nil
	}
	m.insertLocked(k, u)
	cp := *u
	return &cp, nil
}

func (m *MemoryUserStore) insertLocked(k string, u *models.User) {
	m.nextID++
	now := time.Now()
	u.ID = m.nextID
	u.CreatedAt = now
	u.UpdatedAt = now
	stored := *u
	m.users[k] = &stored
}
