// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package moneycart

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/moneycart/errs"
	"github.com/zintix-labs/moneycart/spec"
)

var (
	ErrSessionNotFound = errs.NewWarn("session not found")
	ErrSessionFull     = errs.NewWarn("too many sessions")
	ErrRuntimeClosed   = errs.NewFatal("session runtime closed")
)

// Session 一個對外連線（presentation client）持有的一台機台。
type Session struct {
	ID       string
	Created  time.Time
	Machine  *Machine
	lastUsed atomic.Int64 // unix nano
}

func (s *Session) touch(now time.Time) { s.lastUsed.Store(now.UnixNano()) }

// LastUsed 最後一次被 Get 取用的時間。
func (s *Session) LastUsed() time.Time { return time.Unix(0, s.lastUsed.Load()) }

// Sessions 以 uuid 為 key 的機台池。
//
// 每個 Session 的操作由 Machine 自己的 mutex 序列化；這裡只保護 map 本身。
type Sessions struct {
	lab *Lab

	mu    sync.RWMutex
	items map[string]*Session
	max   int

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string

	now func() time.Time
}

// BuildSessions 建立 session runtime；max <= 0 表示不限數量。
func (p *Lab) BuildSessions(max int) (*Sessions, error) {
	if !p.cat.IsFrozen() {
		return nil, ErrNotFrozen
	}
	return &Sessions{
		lab:   p,
		items: make(map[string]*Session),
		max:   max,
		done:  make(chan struct{}),
		now:   time.Now,
	}, nil
}

// Create 為 gid 建立新機台並登記。seed 為 nil 時使用 crypto seed。
func (rt *Sessions) Create(ctx context.Context, gid spec.GID, seed *int64, coinValue decimal.Decimal) (*Session, error) {
	if err := rt.alive(ctx); err != nil {
		return nil, err
	}
	var (
		m   *Machine
		err error
	)
	if seed != nil {
		m, err = rt.lab.NewMachineWithSeed(gid, *seed)
	} else {
		m, err = rt.lab.NewMachine(gid)
	}
	if err != nil {
		return nil, err
	}
	m.SetCoinValue(coinValue)

	now := rt.now()
	s := &Session{ID: uuid.NewString(), Created: now, Machine: m}
	s.touch(now)

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.max > 0 && len(rt.items) >= rt.max {
		return nil, errs.Sentinelf(ErrSessionFull, "max=%d", rt.max)
	}
	rt.items[s.ID] = s
	rt.lab.log.Debug("session.create", "sid", s.ID, "gid", uint64(gid), "seed", m.Seed())
	return s, nil
}

// Get 取得 session；id 必須是合法 uuid。
func (rt *Sessions) Get(ctx context.Context, id string) (*Session, error) {
	if err := rt.alive(ctx); err != nil {
		return nil, err
	}
	if err := uuid.Validate(id); err != nil {
		return nil, errs.Sentinelf(ErrSessionNotFound, "invalid id %q", id)
	}
	rt.mu.RLock()
	s, ok := rt.items[id]
	rt.mu.RUnlock()
	if !ok {
		return nil, errs.Sentinelf(ErrSessionNotFound, "id=%s", id)
	}
	s.touch(rt.now())
	return s, nil
}

// Delete 放棄 session 的回合並移除。
func (rt *Sessions) Delete(id string) error {
	rt.mu.Lock()
	s, ok := rt.items[id]
	delete(rt.items, id)
	rt.mu.Unlock()
	if !ok {
		return errs.Sentinelf(ErrSessionNotFound, "id=%s", id)
	}
	s.Machine.abort()
	return nil
}

// Sweep 移除閒置超過 idle 的 session，回傳移除數量。
func (rt *Sessions) Sweep(idle time.Duration) int {
	cut := rt.now().Add(-idle)
	rt.mu.Lock()
	var stale []*Session
	for id, s := range rt.items {
		if s.LastUsed().Before(cut) {
			stale = append(stale, s)
			delete(rt.items, id)
		}
	}
	rt.mu.Unlock()
	for _, s := range stale {
		s.Machine.abort()
	}
	return len(stale)
}

func (rt *Sessions) Len() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.items)
}

func (rt *Sessions) alive(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errs.WrapAs(errs.Warn, ctx.Err(), "session canceled/timeout")
	case <-rt.done:
		// done is the source of truth; keep a fast boolean for cheap reads.
		rt.closed.Store(true)
		return errs.Sentinelf(ErrRuntimeClosed, "%s", rt.ClosedReason())
	default:
		return nil
	}
}

// Close transitions the runtime into a closed state. It is safe to call multiple times.
func (rt *Sessions) Close() {
	rt.closeWithReason("closed")
}

// closeWithReason closes the runtime and records the reason (written once).
func (rt *Sessions) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
		rt.mu.Lock()
		clear(rt.items)
		rt.mu.Unlock()
	})
}

// Closed reports whether the runtime has been closed.
func (rt *Sessions) Closed() bool {
	return rt.closed.Load()
}

func (rt *Sessions) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
