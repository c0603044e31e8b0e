package hardware

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

// fakeUnlockStore records unlock calls in memory.
type fakeUnlockStore struct {
	mu       sync.Mutex
	unlocked map[string]string // room -> card uid
	failWith error
}

func newFakeUnlockStore() *fakeUnlockStore {
	return &fakeUnlockStore{unlocked: make(map[string]string)}
}

func (f *fakeUnlockStore) IsUnlocked(_ context.Context, roomNumber string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.unlocked[roomNumber]
	return ok, nil
}

func (f *fakeUnlockStore) Unlock(_ context.Context, roomNumber, cardUID string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unlocked[roomNumber] = cardUID
	return nil
}

func (f *fakeUnlockStore) Lock(_ context.Context, roomNumber string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.unlocked, roomNumber)
	return nil
}

func (f *fakeUnlockStore) ResetAll(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unlocked = make(map[string]string)
	return nil
}

func TestRecordTapUnlocksAssignedRoom(t *testing.T) {
	store := newFakeUnlockStore()
	svc := NewReaderService(store, zap.NewNop())

	svc.AssignReader("reader-1", "101")

	room, err := svc.RecordTap(context.Background(), "reader-1", "card-abc")
	if err != nil {
		t.Fatalf("RecordTap() error = %v", err)
	}
	if room != "101" {
		t.Errorf("Expected room 101, got %s", room)
	}

	unlocked, _ := store.IsUnlocked(context.Background(), "101")
	if !unlocked {
		t.Error("Expected room 101 to be unlocked after tap")
	}
}

func TestRecordTapUnassignedReader(t *testing.T) {
	svc := NewReaderService(newFakeUnlockStore(), zap.NewNop())

	_, err := svc.RecordTap(context.Background(), "reader-9", "card-abc")
	if !errors.Is(err, ErrReaderUnassigned) {
		t.Errorf("Expected ErrReaderUnassigned, got %v", err)
	}
}

func TestCardWriteQueueOrder(t *testing.T) {
	svc := NewReaderService(newFakeUnlockStore(), zap.NewNop())

	first := svc.EnqueueCardWrite("reader-1", "101", "guest-a")
	second := svc.EnqueueCardWrite("reader-1", "102", "guest-b")

	job, ok := svc.NextCardWrite("reader-1")
	if !ok || job.ID != first.ID {
		t.Errorf("Expected first job %s, got %+v", first.ID, job)
	}

	job, ok = svc.NextCardWrite("reader-1")
	if !ok || job.ID != second.ID {
		t.Errorf("Expected second job %s, got %+v", second.ID, job)
	}

	if _, ok := svc.NextCardWrite("reader-1"); ok {
		t.Error("Expected empty queue after draining")
	}
}

func TestNextCardWriteOtherReaderEmpty(t *testing.T) {
	svc := NewReaderService(newFakeUnlockStore(), zap.NewNop())
	svc.EnqueueCardWrite("reader-1", "101", "guest-a")

	if _, ok := svc.NextCardWrite("reader-2"); ok {
		t.Error("Expected no jobs for an unrelated reader")
	}
}
