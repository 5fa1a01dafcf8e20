package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Deliverer is the local notification capability of a device.
type Deliverer interface {
	// Permission returns ErrPermissionDenied when notifications may not be shown.
	Permission(ctx context.Context) error
	CancelAll(ctx context.Context) error
	Schedule(ctx context.Context, notifications []Notification) error
}

// Resyncer replaces the scheduled set on a Deliverer, one resync at a time.
type Resyncer struct {
	mu        sync.Mutex
	deliverer Deliverer
	rules     NotificationRules
}

func NewResyncer(d Deliverer, rules NotificationRules) *Resyncer {
	return &Resyncer{deliverer: d, rules: rules}
}

// Resync derives the notifications for subs at now, cancels everything pending
// and schedules the new set. Permission failures are returned, not retried.
func (r *Resyncer) Resync(ctx context.Context, subs []Subscription, now time.Time) ([]Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.deliverer.Permission(ctx); err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			Logger.Warn("notification permission denied, skipping resync")
		}
		return nil, err
	}

	notifications := DeriveNotifications(subs, now, r.rules)

	if err := r.deliverer.CancelAll(ctx); err != nil {
		return nil, fmt.Errorf("cancelling pending notifications: %w", err)
	}
	if len(notifications) == 0 {
		return nil, nil
	}
	if err := r.deliverer.Schedule(ctx, notifications); err != nil {
		return nil, fmt.Errorf("scheduling notifications: %w", err)
	}

	Logger.WithFields(logrus.Fields{
		"count": len(notifications),
	}).Info("scheduled notifications")
	return notifications, nil
}

// OutboxDeliverer keeps the pending notifications in a YAML file. It stands in
// for a device scheduler and lets other tools pick the reminders up.
type OutboxDeliverer struct {
	Path string
	// Disabled simulates a user who has turned notifications off.
	Disabled bool
}

type outboxFile struct {
	UpdatedAt     time.Time      `yaml:"updated_at"`
	Notifications []Notification `yaml:"notifications"`
}

func (o *OutboxDeliverer) Permission(ctx context.Context) error {
	if o.Disabled {
		return ErrPermissionDenied
	}
	return nil
}

func (o *OutboxDeliverer) CancelAll(ctx context.Context) error {
	return o.write(nil)
}

func (o *OutboxDeliverer) Schedule(ctx context.Context, notifications []Notification) error {
	existing, err := o.Pending()
	if err != nil {
		return err
	}
	return o.write(mergeByID(existing, notifications))
}

// Pending returns the scheduled notifications ordered by fire time.
func (o *OutboxDeliverer) Pending() ([]Notification, error) {
	data, err := os.ReadFile(o.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading outbox: %w", err)
	}
	var f outboxFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing outbox: %w", err)
	}
	return f.Notifications, nil
}

func (o *OutboxDeliverer) write(notifications []Notification) error {
	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].FireAt.Before(notifications[j].FireAt)
	})
	data, err := yaml.Marshal(outboxFile{UpdatedAt: time.Now(), Notifications: notifications})
	if err != nil {
		return fmt.Errorf("marshaling outbox: %w", err)
	}
	return writeFileAtomic(o.Path, data)
}

// MemoryDeliverer records scheduled notifications in memory.
type MemoryDeliverer struct {
	mu      sync.Mutex
	Denied  bool
	pending []Notification
	Cancels int
}

func (m *MemoryDeliverer) Permission(ctx context.Context) error {
	if m.Denied {
		return ErrPermissionDenied
	}
	return nil
}

func (m *MemoryDeliverer) CancelAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
	m.Cancels++
	return nil
}

func (m *MemoryDeliverer) Schedule(ctx context.Context, notifications []Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = mergeByID(m.pending, notifications)
	return nil
}

func (m *MemoryDeliverer) Pending() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, len(m.pending))
	copy(out, m.pending)
	return out
}

// mergeByID adds notifications to existing; a repeated id replaces the earlier entry.
func mergeByID(existing, added []Notification) []Notification {
	index := make(map[int32]int, len(existing))
	out := make([]Notification, 0, len(existing)+len(added))
	for _, n := range existing {
		index[n.ID] = len(out)
		out = append(out, n)
	}
	for _, n := range added {
		if i, ok := index[n.ID]; ok {
			out[i] = n
			continue
		}
		index[n.ID] = len(out)
		out = append(out, n)
	}
	return out
}

// writeFileAtomic writes to a temp file in the same directory and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
