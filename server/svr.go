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

package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/moneycart"
	"github.com/zintix-labs/moneycart/errs"
	"github.com/zintix-labs/moneycart/server/api"
	"github.com/zintix-labs/moneycart/server/app"
	"github.com/zintix-labs/moneycart/server/logger"
	"github.com/zintix-labs/moneycart/server/netsvr"
	"github.com/zintix-labs/moneycart/server/svrcfg"
)

// Run 是 server 套件的「組裝器（assembler）」與「啟動入口（runtime entry）」。
//
// 它負責：
//  1. 驗證輸入的 SvrCfg（補上預設限制與 logger）。
//  2. 建立 HTTP server（netsvr，WriteTimeout 大於模擬逾時）。
//  3. 建立 session runtime 與閒置回收元件。
//  4. 註冊路由與 middleware（api.RegisterRoutes），啟動 app.Run() 並記錄停止原因。
//
// Run 不綁定任何檔案路徑或環境變數策略；所有依賴都透過 SvrCfg 明確注入。
func Run(sCfg *svrcfg.SvrCfg) {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	svr := netsvr.NewChiServer(sCfg.Addr, sCfg.SimTimeout+sCfg.SpinTimeout)
	RunWithSvr(sCfg, svr)
}

// RunWithSvr 與 Run() 相同，但允許呼叫端注入自訂的 NetSvr（自訂 listener、TLS、或掛到既有框架）。
//
// svr 必須非 nil，且若是 ChiAdapter 會要求 Ready() 為 true。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if svr == nil {
		sCfg.Log.Error(errs.NewFatal("svr is required").Error())
		return
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		sCfg.Log.Error(errs.NewFatal("default server is not ready").Error())
		return
	}

	rt, err := sCfg.Lab.BuildSessions(sCfg.MaxSessions)
	if err != nil {
		sCfg.Log.Error("build sessions", slog.Any("err", err))
		return
	}
	if err := api.RegisterRoutes(svr, sCfg, rt); err != nil {
		sCfg.Log.Error("register routes", slog.Any("err", err))
		return
	}

	a := app.NewWith(newJanitor(sCfg, rt), svr).WithLogger(sCfg.Log)
	if c, ok := svr.(*netsvr.ChiAdapter); ok {
		sCfg.Log.Info("[moneycart] listening on http://localhost" + c.Address())
	} else {
		sCfg.Log.Info("[moneycart] listening")
	}
	if err := a.Run(); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
	}
	// 最後把非同步 logger 的佇列寫完
	if ah, ok := sCfg.Log.Handler().(*logger.AsyncHandler); ok {
		ah.Close()
	}
}

// newJanitor 週期回收閒置 session；app 關閉時一併關閉 runtime。
func newJanitor(sCfg *svrcfg.SvrCfg, rt *moneycart.Sessions) *app.Ticker {
	idle := sCfg.SessionIdle
	return app.NewTicker(max(idle/4, 1), func() {
		if n := rt.Sweep(idle); n > 0 {
			sCfg.Log.Info("session.sweep", slog.Int("removed", n), slog.Int("alive", rt.Len()))
		}
	}, func() {
		rt.Close()
	})
}
