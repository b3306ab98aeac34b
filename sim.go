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
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/moneycart/errs"
	"github.com/zintix-labs/moneycart/recorder"
	"github.com/zintix-labs/moneycart/sdk/core"
	"github.com/zintix-labs/moneycart/spec"
	"github.com/zintix-labs/moneycart/stats"
)

const capPrepare int = 64

// Simulator 以整回合為單位做 Monte-Carlo：建立多台機台並平行紀錄統計。
type Simulator struct {
	GameName  string
	GameId    spec.GID
	bs        *spec.BonusSetting
	cf        core.PRNGFactory
	initSeed  int64
	seedmaker *seedMaker
	mBuf      []*Machine                // 併發執行機台實例
	rBuf      []*recorder.RoundRecorder // 併發紀錄員
}

func newSimulatorWithSeed(bs *spec.BonusSetting, cf core.PRNGFactory, seed int64) (*Simulator, error) {
	s := &Simulator{
		GameName:  bs.GameName,
		GameId:    bs.GameID,
		bs:        bs,
		cf:        cf,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		mBuf:      make([]*Machine, 1, capPrepare),
		rBuf:      make([]*recorder.RoundRecorder, 0, capPrepare),
	}
	m, err := newMachineWithSeed(bs, cf, s.initSeed, nil)
	if err != nil {
		return nil, err
	}
	s.mBuf[0] = m
	return s, nil
}

func (s *Simulator) Seed() int64 { return s.initSeed }

// Sim 單線模擬器：以一台機台連續跑指定回合數，回傳統計結果與用時。
//
// ctx 只在回合之間檢查。
func (s *Simulator) Sim(ctx context.Context, rounds int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if rounds < 1 {
		return nil, 0, errs.NewWarn("round must > 0")
	}
	if err := s.prepare(1); err != nil {
		return nil, 0, err
	}
	m, r := s.mBuf[0], s.rBuf[0]

	bar := pb.StartNew(rounds)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for range rounds {
		if err := ctx.Err(); err != nil {
			bar.Finish()
			return nil, time.Since(bar.StartTime()), errs.WrapAs(errs.Warn, err, "simulate canceled")
		}
		st, err := m.PlayRound()
		if err != nil {
			bar.Finish()
			return nil, time.Since(bar.StartTime()), err
		}
		r.Record(st)
		bar.Increment()
	}
	used := time.Since(bar.StartTime())
	bar.Finish()
	return r.Done(), used, nil
}

// SimMP 平行執行 mp 台機台，每台跑 rounds 回合（總計 rounds*mp），合併統計結果後回傳。
func (s *Simulator) SimMP(ctx context.Context, rounds int, mp int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if rounds < 1 {
		return nil, 0, errs.NewWarn("round must > 0")
	}
	if err := s.prepare(mp); err != nil {
		return nil, 0, err
	}

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
		failed   atomic.Bool
	)
	bar := pb.StartNew(rounds * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := range mp {
		wg.Add(1)
		go func(m *Machine, rec *recorder.RoundRecorder) {
			defer wg.Done()
			for range rounds {
				if ctx.Err() != nil || failed.Load() {
					return
				}
				st, err := m.PlayRound()
				if err != nil {
					errMu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					errMu.Unlock()
					failed.Store(true)
					return
				}
				rec.Record(st)
				bar.Increment()
			}
		}(s.mBuf[i], s.rBuf[i])
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	if firstErr != nil {
		return nil, used, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, used, errs.WrapAs(errs.Warn, err, "simulate canceled")
	}
	rec, err := recorder.Merge(s.rBuf[:mp])
	if err != nil {
		return nil, used, err
	}
	return rec.Done(), used, nil
}

// prepare 補足 mp 台機台（seed 由 seedMaker 推導）與 mp 份空白紀錄。
func (s *Simulator) prepare(mp int) error {
	for len(s.mBuf) < mp {
		m, err := newMachineWithSeed(s.bs, s.cf, s.seedmaker.next(), nil)
		if err != nil {
			return err
		}
		s.mBuf = append(s.mBuf, m)
	}
	for len(s.rBuf) < mp {
		r, err := recorder.NewRoundRecorder(s.bs)
		if err != nil {
			return err
		}
		s.rBuf = append(s.rBuf, r)
	}
	return nil
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// state 走全週期（不重複），再用可逆 mix63 打散
//
// 注意：此方法可能在併發環境下被多 goroutines 同時呼叫（例如 SimMP / SimPlayers）。
// 因此 state 的推進必須是原子的：
//   - 使用 CAS（Compare-And-Swap）迴圈確保每次呼叫都會取得唯一的下一個 state。
//   - 回傳值使用推進後的 state 經 mix63 打散後的結果。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()                                            // always masked
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63 // 乘奇數 ⇒ mod 2^63 可逆
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
