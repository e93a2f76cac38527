package services

import (
	"context"
	"sync"
	"time"

	"github.com/lmercadier/sentinelle/internal/models"
	"github.com/lmercadier/sentinelle/internal/reputation"
)

// StubClassifier implements reputation.Classifier for testing
type StubClassifier struct {
	ClassifyFunc func(ctx context.Context, ip string) reputation.Classification
}

func (s *StubClassifier) Classify(ctx context.Context, ip string) reputation.Classification {
	if s.ClassifyFunc != nil {
		return s.ClassifyFunc(ctx, ip)
	}
	return reputation.Neutral()
}

// FixedClassifier always returns the same classification
func FixedClassifier(c reputation.Classification) *StubClassifier {
	return &StubClassifier{
		ClassifyFunc: func(ctx context.Context, ip string) reputation.Classification {
			return c
		},
	}
}

// MockNotifier records lock notifications for testing
type MockNotifier struct {
	mu    sync.Mutex
	Calls []MockNotification
}

type MockNotification struct {
	Email       string
	Reason      string
	LockedUntil time.Time
}

func (m *MockNotifier) SendLockNotification(ctx context.Context, email, reason string, lockedUntil time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockNotification{Email: email, Reason: reason, LockedUntil: lockedUntil})
	return nil
}

func (m *MockNotifier) Notifications() []MockNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockNotification, len(m.Calls))
	copy(out, m.Calls)
	return out
}

// MockHistoryRepository implements HistoryRepository with overridable behavior
type MockHistoryRepository struct {
	AppendFunc  func(ctx context.Context, record *models.LoginRecord) error
	LatestFunc  func(ctx context.Context, identity string) (*models.LoginRecord, error)
	ReplaceFunc func(ctx context.Context, record *models.LoginRecord) error
	ListFunc    func(ctx context.Context, identity string) ([]*models.LoginRecord, error)
}

func (m *MockHistoryRepository) Append(ctx context.Context, record *models.LoginRecord) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, record)
	}
	return nil
}

func (m *MockHistoryRepository) Latest(ctx context.Context, identity string) (*models.LoginRecord, error) {
	if m.LatestFunc != nil {
		return m.LatestFunc(ctx, identity)
	}
	return nil, nil
}

func (m *MockHistoryRepository) Replace(ctx context.Context, record *models.LoginRecord) error {
	if m.ReplaceFunc != nil {
		return m.ReplaceFunc(ctx, record)
	}
	return nil
}

func (m *MockHistoryRepository) List(ctx context.Context, identity string) ([]*models.LoginRecord, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, identity)
	}
	return nil, nil
}

// MockBlockRepository implements BlockRepository with overridable behavior
type MockBlockRepository struct {
	IsBlockedFunc func(ctx context.Context, scope, value string) (bool, error)
	AddFunc       func(ctx context.Context, entry *models.BlockEntry) error
	ListFunc      func(ctx context.Context, scope string) ([]*models.BlockEntry, error)
	DeleteFunc    func(ctx context.Context, id string) error
}

func (m *MockBlockRepository) IsBlocked(ctx context.Context, scope, value string) (bool, error) {
	if m.IsBlockedFunc != nil {
		return m.IsBlockedFunc(ctx, scope, value)
	}
	return false, nil
}

func (m *MockBlockRepository) Add(ctx context.Context, entry *models.BlockEntry) error {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, entry)
	}
	return nil
}

func (m *MockBlockRepository) List(ctx context.Context, scope string) ([]*models.BlockEntry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, scope)
	}
	return nil, nil
}

func (m *MockBlockRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}
