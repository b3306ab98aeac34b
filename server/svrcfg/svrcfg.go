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

package svrcfg

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/moneycart"
	"github.com/zintix-labs/moneycart/errs"
	"github.com/zintix-labs/moneycart/server/logger"
)

const (
	DefaultAddr         = ":5808"
	DefaultMaxSessions  = 1024
	DefaultSessionIdle  = 30 * time.Minute
	DefaultSpinTimeout  = 5 * time.Second
	DefaultSimTimeout   = 60 * time.Second
	DefaultMaxSimRounds = 1_000_000
	DefaultMaxWorkers   = 8
)

// SvrCfg server 的所有依賴與限制，皆由呼叫端明確注入；零值欄位在 Valid 時補上預設。
type SvrCfg struct {
	Log          *slog.Logger
	Lab          *moneycart.Lab
	Addr         string
	MaxSessions  int           // 同時存在的 session 上限
	SessionIdle  time.Duration // 閒置超過即回收
	SpinTimeout  time.Duration // 單一 session 操作的逾時
	SimTimeout   time.Duration
	MaxSimRounds int // 單次模擬總回合上限
	MaxWorkers   int
	CORSOrigins  []string
}

func (sc *SvrCfg) Valid() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}
	if sc.Lab == nil {
		return errs.NewFatal("lab is required")
	}
	if sc.Addr == "" {
		sc.Addr = DefaultAddr
	}
	if sc.MaxSessions <= 0 {
		sc.MaxSessions = DefaultMaxSessions
	}
	if sc.SessionIdle <= 0 {
		sc.SessionIdle = DefaultSessionIdle
	}
	if sc.SpinTimeout <= 0 {
		sc.SpinTimeout = DefaultSpinTimeout
	}
	if sc.SimTimeout <= 0 {
		sc.SimTimeout = DefaultSimTimeout
	}
	if sc.MaxSimRounds <= 0 {
		sc.MaxSimRounds = DefaultMaxSimRounds
	}
	if sc.MaxWorkers <= 0 {
		sc.MaxWorkers = DefaultMaxWorkers
	}
	// MaxWorkers <= 64，資源管理
	sc.MaxWorkers = min(64, sc.MaxWorkers)
	return nil
}
