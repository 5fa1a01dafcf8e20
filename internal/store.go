package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Store holds one collection of subscription records per user.
type Store interface {
	List() ([]Subscription, error)
	Get(id string) (Subscription, error)
	Create(sub Subscription) (Subscription, error)
	// Update applies fn to a copy of the record and persists the result as one write.
	// If fn returns an error nothing is stored.
	Update(id string, fn func(*Subscription) error) (Subscription, error)
	Delete(id string) error
}

// FileStore keeps a user's subscriptions in <dir>/<user>.yaml.
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

type storeFile struct {
	Subscriptions []Subscription `yaml:"subscriptions"`
}

func NewFileStore(dir, user string) (*FileStore, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: store user is required", ErrInvalidConfiguration)
	}
	return &FileStore{
		path: filepath.Join(dir, user+".yaml"),
		now:  time.Now,
	}, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) List() ([]Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return nil, err
	}
	return f.Subscriptions, nil
}

func (s *FileStore) Get(id string) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return Subscription{}, err
	}
	i := f.indexOf(id)
	if i < 0 {
		return Subscription{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return f.Subscriptions[i], nil
}

func (s *FileStore) Create(sub Subscription) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := sub.Validate(); err != nil {
		return Subscription{}, err
	}
	f, err := s.load()
	if err != nil {
		return Subscription{}, err
	}

	created := sub.Clone()
	if created.ID == "" {
		created.ID = uuid.NewString()
	} else if f.indexOf(created.ID) >= 0 {
		return Subscription{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidConfiguration, created.ID)
	}
	created.CreatedAt = s.now()
	f.Subscriptions = append(f.Subscriptions, created)

	if err := s.save(f); err != nil {
		return Subscription{}, err
	}
	Logger.WithFields(logrus.Fields{"id": created.ID, "name": created.Name}).Debug("created subscription")
	return created, nil
}

func (s *FileStore) Update(id string, fn func(*Subscription) error) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return Subscription{}, err
	}
	i := f.indexOf(id)
	if i < 0 {
		return Subscription{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated := f.Subscriptions[i].Clone()
	if err := fn(&updated); err != nil {
		return Subscription{}, err
	}
	updated.ID = id
	if err := updated.Validate(); err != nil {
		return Subscription{}, err
	}
	updated.UpdatedAt = s.now()
	f.Subscriptions[i] = updated

	if err := s.save(f); err != nil {
		return Subscription{}, err
	}
	Logger.WithFields(logrus.Fields{"id": id}).Debug("updated subscription")
	return updated, nil
}

func (s *FileStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	i := f.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	f.Subscriptions = append(f.Subscriptions[:i], f.Subscriptions[i+1:]...)
	return s.save(f)
}

func (s *FileStore) load() (*storeFile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &storeFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading store: %w", err)
	}
	var f storeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing store %s: %w", s.path, err)
	}
	return &f, nil
}

func (s *FileStore) save(f *storeFile) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling store: %w", err)
	}
	return writeFileAtomic(s.path, data)
}

func (f *storeFile) indexOf(id string) int {
	for i, sub := range f.Subscriptions {
		if sub.ID == id {
			return i
		}
	}
	return -1
}

// MarkPaid appends the payment entry and moves the due date in a single store update.
func MarkPaid(store Store, id string, strategy Strategy, resetDate Date) (Subscription, MarkPaidResult, error) {
	var result MarkPaidResult
	updated, err := store.Update(id, func(sub *Subscription) error {
		plan, err := PlanMarkPaid(*sub, strategy, resetDate)
		if err != nil {
			return err
		}
		result = plan
		*sub = ApplyMarkPaid(*sub, plan)
		return nil
	})
	if err != nil {
		return Subscription{}, MarkPaidResult{}, fmt.Errorf("marking %s as paid: %w", id, err)
	}
	return updated, result, nil
}

// SetActive stops or resumes a subscription.
func SetActive(store Store, id string, active bool) (Subscription, error) {
	return store.Update(id, func(sub *Subscription) error {
		sub.Active = active
		return nil
	})
}

// DeleteHistoryEntry removes one payment history entry by its index.
func DeleteHistoryEntry(store Store, id string, index int) (Subscription, error) {
	return store.Update(id, func(sub *Subscription) error {
		if index < 0 || index >= len(sub.PaymentHistory) {
			return fmt.Errorf("%w: history index %d out of range (0-%d)", ErrInvalidConfiguration, index, len(sub.PaymentHistory)-1)
		}
		sub.PaymentHistory = append(sub.PaymentHistory[:index], sub.PaymentHistory[index+1:]...)
		return nil
	})
}
