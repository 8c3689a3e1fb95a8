package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/internal/app/repository"
	"github.com/ikkim/bizdir-backend/internal/db"
	"github.com/ikkim/bizdir-backend/pkg/redis"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPlaceholder = "https://placehold.co/600x400.png"

type testEnv struct {
	db            *gorm.DB
	users         repository.UserRepository
	listings      repository.ListingRepository
	reviews       repository.ReviewRepository
	categories    repository.CategoryRepository
	notifications repository.NotificationRepository
	messages      repository.MessageRepository
	store         *memStore
	cache         *ListingCache
	pusher        *fakePusher
}

func setupServiceTest(t *testing.T) *testEnv {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	store := newMemStore()
	return &testEnv{
		db:            testDB,
		users:         repository.NewUserRepository(testDB),
		listings:      repository.NewListingRepository(testDB),
		reviews:       repository.NewReviewRepository(testDB),
		categories:    repository.NewCategoryRepository(testDB),
		notifications: repository.NewNotificationRepository(testDB),
		messages:      repository.NewMessageRepository(testDB),
		store:         store,
		cache:         NewListingCache(store, time.Minute),
		pusher:        &fakePusher{},
	}
}

func (e *testEnv) listingService() ListingService {
	return NewListingService(e.listings, e.categories, e.cache, testPlaceholder)
}

func (e *testEnv) notificationService() NotificationService {
	return NewNotificationService(e.notifications, e.pusher)
}

func (e *testEnv) adminService() AdminService {
	return NewAdminService(e.listings, e.users, e.notificationService(), e.cache)
}

func (e *testEnv) reviewService() ReviewService {
	return NewReviewService(e.reviews, e.listings, e.users, e.cache)
}

func (e *testEnv) categoryService() CategoryService {
	return NewCategoryService(e.categories, e.listings, e.cache)
}

func (e *testEnv) createUser(t *testing.T, email, name string, role model.UserRole) *model.User {
	user := &model.User{Email: email, PasswordHash: "hashed", Name: name, Role: role}
	require.NoError(t, e.users.Create(user))
	return user
}

func (e *testEnv) seedCategories(t *testing.T, names ...string) {
	require.NoError(t, db.SeedCategories(e.db, names))
}

// createListing stores a listing with the given status and reviews directly.
func (e *testEnv) createListing(t *testing.T, ownerID uint, name, category, city string, status directory.Status, ratings ...int) *model.Listing {
	l := &model.Listing{
		OwnerID:     ownerID,
		Name:        name,
		Description: name + " serving the neighbourhood",
		Category:    category,
		Contact: model.ListingContact{
			Phone: "9876543210",
			Email: "shop@example.com",
		},
		Address: model.ListingAddress{
			Street: "1 Main Street",
			City:   city,
			State:  "Kerala",
			Zip:    "682001",
		},
		Images:           []string{testPlaceholder},
		Status:           status,
		ReferenceBy:      "friend",
		CasteAndCategory: "general",
	}
	require.NoError(t, e.listings.Create(l))
	for i, r := range ratings {
		_, err := e.reviews.Append(&model.Review{
			ID:        name + "-r" + strconv.Itoa(i),
			ListingID: l.ID,
			Author:    "Tester",
			Rating:    r,
			Comment:   "ok",
		})
		require.NoError(t, err)
	}
	time.Sleep(2 * time.Millisecond)
	return l
}

func validInput() directory.ListingInput {
	return directory.ListingInput{
		Name:        "Sunrise Bakery",
		Description: "Fresh bread and cakes every morning",
		Category:    directory.CategorySelection{Selection: "Food"},
		Contact: directory.Contact{
			Phone: "9876543210",
			Email: "hello@sunrise.example",
			Links: []directory.Link{{Type: directory.LinkWebsite, URL: "sunrise.example"}},
		},
		Address: directory.AddressInput{
			Street: "42 Beach Road",
			City:   "Kochi",
			State:  "Kerala",
			Zip:    "682001",
		},
		ReferenceBy:      "community meetup",
		CasteAndCategory: "general",
	}
}

func userActor(id uint) directory.Actor {
	return directory.Actor{UserID: id, Role: directory.RoleUser}
}

func adminActor(id uint) directory.Actor {
	return directory.Actor{UserID: id, Role: directory.RoleAdmin}
}

// memStore is an in-memory SnapshotStore.
type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	gets   int
	failed bool
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.failed {
		return nil, context.DeadlineExceeded
	}
	b, ok := m.data[key]
	if !ok {
		return nil, redis.ErrCacheMiss
	}
	return b, nil
}

func (m *memStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed {
		return context.DeadlineExceeded
	}
	m.data[key] = value
	return nil
}

func (m *memStore) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(string(m.data[key]), 10, 64)
	n++
	m.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func (m *memStore) keys() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

type pushed struct {
	userID  uint
	message interface{}
}

type fakePusher struct {
	mu   sync.Mutex
	sent []pushed
}

func (p *fakePusher) SendNotificationToUser(userID uint, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, pushed{userID: userID, message: message})
	return nil
}

func (p *fakePusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}
