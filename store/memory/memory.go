// Package memory provides an in-memory TxStore implementation
// (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/leave-tracker/core"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of core.TxStore
// =============================================================================

type Store struct {
	mu     sync.RWMutex
	users  map[core.UserID]core.User
	leaves map[core.LeaveID]core.Leave
}

func New() *Store {
	return &Store{
		users:  make(map[core.UserID]core.User),
		leaves: make(map[core.LeaveID]core.Leave),
	}
}

var _ core.TxStore = (*Store)(nil)

// =============================================================================
// USER STORE
// =============================================================================

func (s *Store) SaveUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveUserLocked(u)
	return nil
}

func (s *Store) GetUser(_ context.Context, id core.UserID) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getUserLocked(id), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getUserByEmailLocked(email), nil
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listUsersLocked(), nil
}

func (s *Store) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *Store) saveUserLocked(u core.User) { s.users[u.ID] = u }

func (s *Store) getUserLocked(id core.UserID) *core.User {
	if u, ok := s.users[id]; ok {
		cp := u
		return &cp
	}
	return nil
}

func (s *Store) getUserByEmailLocked(email string) *core.User {
	for _, u := range s.users {
		if u.Email == email {
			cp := u
			return &cp
		}
	}
	return nil
}

func (s *Store) listUsersLocked() []core.User {
	result := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// =============================================================================
// LEAVE STORE
// =============================================================================

func (s *Store) SaveLeave(_ context.Context, l core.Leave) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLeaveLocked(l)
	return nil
}

func (s *Store) GetLeave(_ context.Context, id core.LeaveID) (*core.Leave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLeaveLocked(id), nil
}

func (s *Store) ListLeavesByUser(_ context.Context, userID core.UserID) ([]core.Leave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLeavesByUserLocked(userID), nil
}

func (s *Store) DeleteLeave(_ context.Context, id core.LeaveID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLeaveLocked(id)
}

func (s *Store) saveLeaveLocked(l core.Leave) { s.leaves[l.ID] = l }

func (s *Store) getLeaveLocked(id core.LeaveID) *core.Leave {
	if l, ok := s.leaves[id]; ok {
		cp := l
		return &cp
	}
	return nil
}

func (s *Store) listLeavesByUserLocked(userID core.UserID) []core.Leave {
	var result []core.Leave
	for _, l := range s.leaves {
		if l.UserID == userID {
			result = append(result, l)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].StartDate.Before(result[j].StartDate)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (s *Store) deleteLeaveLocked(id core.LeaveID) error {
	if _, ok := s.leaves[id]; !ok {
		return core.NewNotFound("leave", string(id))
	}
	delete(s.leaves, id)
	return nil
}

// =============================================================================
// TRANSACTIONS - Simulated with snapshot + rollback on error
// =============================================================================

// WithTx executes fn against a view of the store that bypasses the outer
// lock. On error the pre-transaction state is restored, so a leave write
// and its balance adjustment commit or roll back together.
func (s *Store) WithTx(_ context.Context, fn func(core.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshot()

	if err := fn(&txView{parent: s}); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

type storeSnapshot struct {
	users  map[core.UserID]core.User
	leaves map[core.LeaveID]core.Leave
}

func (s *Store) snapshot() storeSnapshot {
	users := make(map[core.UserID]core.User, len(s.users))
	for k, v := range s.users {
		users[k] = v
	}
	leaves := make(map[core.LeaveID]core.Leave, len(s.leaves))
	for k, v := range s.leaves {
		leaves[k] = v
	}
	return storeSnapshot{users: users, leaves: leaves}
}

func (s *Store) restore(snap storeSnapshot) {
	s.users = snap.users
	s.leaves = snap.leaves
}

// txView exposes the locked store to a WithTx callback.
type txView struct {
	parent *Store
}

var _ core.Store = (*txView)(nil)

func (v *txView) SaveUser(_ context.Context, u core.User) error {
	v.parent.saveUserLocked(u)
	return nil
}

func (v *txView) GetUser(_ context.Context, id core.UserID) (*core.User, error) {
	return v.parent.getUserLocked(id), nil
}

func (v *txView) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	return v.parent.getUserByEmailLocked(email), nil
}

func (v *txView) ListUsers(_ context.Context) ([]core.User, error) {
	return v.parent.listUsersLocked(), nil
}

func (v *txView) CountUsers(_ context.Context) (int, error) {
	return len(v.parent.users), nil
}

func (v *txView) SaveLeave(_ context.Context, l core.Leave) error {
	v.parent.saveLeaveLocked(l)
	return nil
}

func (v *txView) GetLeave(_ context.Context, id core.LeaveID) (*core.Leave, error) {
	return v.parent.getLeaveLocked(id), nil
}

func (v *txView) ListLeavesByUser(_ context.Context, userID core.UserID) ([]core.Leave, error) {
	return v.parent.listLeavesByUserLocked(userID), nil
}

func (v *txView) DeleteLeave(_ context.Context, id core.LeaveID) error {
	return v.parent.deleteLeaveLocked(id)
}
