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

package main

import (
	"flag"
	"log"
	"strings"
	"time"

	"github.com/zintix-labs/moneycart"
	"github.com/zintix-labs/moneycart/configs"
	"github.com/zintix-labs/moneycart/sdk/core"
	"github.com/zintix-labs/moneycart/server"
	"github.com/zintix-labs/moneycart/server/logger"
	"github.com/zintix-labs/moneycart/server/svrcfg"
	_ "go.uber.org/automaxprocs"
)

// money cart lab server：對外提供 session / sim API，設定全部走 flag。
func main() {
	cfg, err := loadConfigFromFlags()
	if err != nil {
		log.Fatal(err)
	}
	server.Run(cfg)
}

type config struct {
	LogMode     string
	Addr        string
	PRNG        string
	MaxSessions int
	SessionIdle time.Duration
	MaxRounds   int
	MaxWorkers  int
	Origins     string
}

func loadConfigFromFlags() (*svrcfg.SvrCfg, error) {
	cfg := new(config)
	flag.StringVar(&cfg.LogMode, "log-mode", "dev", "log mode: dev|prod|silence")
	flag.StringVar(&cfg.Addr, "addr", svrcfg.DefaultAddr, "listen address")
	flag.StringVar(&cfg.PRNG, "prng", "pcg64", "prng: pcg64|pcg32")
	flag.IntVar(&cfg.MaxSessions, "sessions", svrcfg.DefaultMaxSessions, "max concurrent sessions")
	flag.DurationVar(&cfg.SessionIdle, "idle", svrcfg.DefaultSessionIdle, "idle session ttl")
	flag.IntVar(&cfg.MaxRounds, "sim-rounds", svrcfg.DefaultMaxSimRounds, "max rounds per sim request")
	flag.IntVar(&cfg.MaxWorkers, "sim-workers", svrcfg.DefaultMaxWorkers, "max workers per sim request")
	flag.StringVar(&cfg.Origins, "cors", "", "comma separated allowed origins (empty = all)")

	flag.Parse()

	mode, err := logger.ParseLogMode(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	log, _ := logger.NewAsync(4096, mode)

	cf, ok := core.FactoryByName(cfg.PRNG)
	if !ok {
		cf = core.Default()
		log.Warn("svr.prng", "unknown", cfg.PRNG, "use", "pcg64")
	}
	lab, err := moneycart.NewAuto(cf, moneycart.Configs(configs.FS))
	if err != nil {
		return nil, err
	}
	lab.WithLogger(log)

	sCfg := &svrcfg.SvrCfg{
		Log:          log,
		Lab:          lab,
		Addr:         cfg.Addr,
		MaxSessions:  cfg.MaxSessions,
		SessionIdle:  cfg.SessionIdle,
		MaxSimRounds: cfg.MaxRounds,
		MaxWorkers:   cfg.MaxWorkers,
		CORSOrigins:  cfg.origins(),
	}
	return sCfg, nil
}

func (cfg *config) origins() []string {
	var out []string
	for o := range strings.SplitSeq(cfg.Origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
