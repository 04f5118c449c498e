package jobs

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"taxdesk/internal/models"
	"taxdesk/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockObjectStore struct {
	mock.Mock
}

func (m *mockObjectStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string, metadata map[string]string) error {
	args := m.Called(ctx, key, reader, size, contentType, metadata)
	return args.Error(0)
}

func (m *mockObjectStore) PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}

func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockObjectStore) List(ctx context.Context) ([]services.StoredObject, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.StoredObject), args.Error(1)
}

func (m *mockObjectStore) EnsureBucketExists(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockDocumentRepo struct {
	mock.Mock
}

func (m *mockDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *mockDocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *mockDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockDocumentRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Document, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Document), args.Error(1)
}

func (m *mockDocumentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockDocumentRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockDocumentRepo) CountsByClient(ctx context.Context) (map[uuid.UUID]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]int), args.Error(1)
}

func (m *mockDocumentRepo) ListStorageKeys(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func TestSweep_RemovesOldUnreferencedObjects(t *testing.T) {
	store := &mockObjectStore{}
	docs := &mockDocumentRepo{}
	ctx := context.Background()

	objects := []services.StoredObject{
		{Key: "client-a/1_w2.pdf", LastModified: time.Now().Add(-2 * time.Hour)},  // referenced
		{Key: "client-a/2_stray.pdf", LastModified: time.Now().Add(-2 * time.Hour)}, // orphan, old
	}
	store.On("List", ctx).Return(objects, nil)
	docs.On("ListStorageKeys", ctx).Return([]string{"client-a/1_w2.pdf"}, nil)
	store.On("Delete", ctx, "client-a/2_stray.pdf").Return(nil)

	sweeper := NewOrphanSweeper(store, docs, time.Hour)
	err := sweeper.Sweep(ctx)
	assert.NoError(t, err)
	store.AssertExpectations(t)
	docs.AssertExpectations(t)
}

func TestSweep_SparesRecentOrphans(t *testing.T) {
	store := &mockObjectStore{}
	docs := &mockDocumentRepo{}
	ctx := context.Background()

	// An in-flight upload whose metadata has not landed yet looks exactly
	// like an orphan; the grace period protects it
	objects := []services.StoredObject{
		{Key: "client-a/3_inflight.pdf", LastModified: time.Now().Add(-5 * time.Minute)},
	}
	store.On("List", ctx).Return(objects, nil)
	docs.On("ListStorageKeys", ctx).Return([]string{}, nil)

	sweeper := NewOrphanSweeper(store, docs, time.Hour)
	err := sweeper.Sweep(ctx)
	assert.NoError(t, err)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestSweep_DeleteFailureContinues(t *testing.T) {
	store := &mockObjectStore{}
	docs := &mockDocumentRepo{}
	ctx := context.Background()

	objects := []services.StoredObject{
		{Key: "client-a/4_first.pdf", LastModified: time.Now().Add(-2 * time.Hour)},
		{Key: "client-a/5_second.pdf", LastModified: time.Now().Add(-2 * time.Hour)},
	}
	store.On("List", ctx).Return(objects, nil)
	docs.On("ListStorageKeys", ctx).Return([]string{}, nil)
	store.On("Delete", ctx, "client-a/4_first.pdf").Return(errors.New("access denied"))
	store.On("Delete", ctx, "client-a/5_second.pdf").Return(nil)

	sweeper := NewOrphanSweeper(store, docs, time.Hour)
	err := sweeper.Sweep(ctx)
	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestSweep_MissingBinariesAreReportedNotDeleted(t *testing.T) {
	store := &mockObjectStore{}
	docs := &mockDocumentRepo{}
	ctx := context.Background()

	store.On("List", ctx).Return([]services.StoredObject{}, nil)
	docs.On("ListStorageKeys", ctx).Return([]string{"client-a/6_gone.pdf"}, nil)

	sweeper := NewOrphanSweeper(store, docs, time.Hour)
	err := sweeper.Sweep(ctx)
	assert.NoError(t, err)
	// The dangling record stays; only a human removes metadata
	docs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestSweep_ListFailureAborts(t *testing.T) {
	store := &mockObjectStore{}
	docs := &mockDocumentRepo{}
	ctx := context.Background()

	store.On("List", ctx).Return(nil, errors.New("bucket unavailable"))

	sweeper := NewOrphanSweeper(store, docs, time.Hour)
	err := sweeper.Sweep(ctx)
	assert.Error(t, err)
	docs.AssertNotCalled(t, "ListStorageKeys", mock.Anything)
}
