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

package api

import (
	"net/http"

	"github.com/zintix-labs/moneycart"
	v1 "github.com/zintix-labs/moneycart/server/api/v1"
	"github.com/zintix-labs/moneycart/server/netsvr"
	"github.com/zintix-labs/moneycart/server/netsvr/middleware"
	"github.com/zintix-labs/moneycart/server/svrcfg"
)

// RegisterRoutes 註冊 middleware、健康檢查與 v1 api。
func RegisterRoutes(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg, rt *moneycart.Sessions) error {
	registerMiddleware(svr, sCfg)
	registerHealth(svr, rt)
	return registerV1API(svr, sCfg, rt)
}

// 註冊 middleware
func registerMiddleware(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(sCfg.Log))
	svr.Use(middleware.Recover(sCfg.Log))
	svr.Use(middleware.CORS(sCfg.CORSOrigins))
	svr.Use(middleware.Compression)
}

func registerHealth(svr netsvr.NetSvr, rt *moneycart.Sessions) {
	svr.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if rt.Closed() {
			http.Error(w, "closed: "+rt.ClosedReason(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg, rt *moneycart.Sessions) error {
	sh, err := v1.NewSessionHandler(sCfg, rt)
	if err != nil {
		return err
	}
	sim, err := v1.NewSimHandler(sCfg)
	if err != nil {
		return err
	}
	games := v1.NewGamesHandler(sCfg.Lab)

	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/games", games.List)

		vOne.Post("/sessions", sh.Create)
		vOne.Get("/sessions/{id}", sh.Get)
		vOne.Delete("/sessions/{id}", sh.Delete)
		vOne.Post("/sessions/{id}/start", sh.Start)
		vOne.Post("/sessions/{id}/spin", sh.Spin)
		vOne.Post("/sessions/{id}/autoplay", sh.Autoplay)
		vOne.Post("/sessions/{id}/reset", sh.Reset)
		vOne.Put("/sessions/{id}/turbo", sh.Turbo)

		vOne.Get("/sim", sim.Sim)
		vOne.Post("/sim", sim.Sim)
		vOne.Post("/simbycfg", sim.SimByCfg)
	})
	return nil
}
