package v1

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/zintix-labs/moneycart"
	"github.com/zintix-labs/moneycart/catalog"
	"github.com/zintix-labs/moneycart/dto"
	"github.com/zintix-labs/moneycart/errs"
	"github.com/zintix-labs/moneycart/server/httperr"
	"github.com/zintix-labs/moneycart/server/svrcfg"
	"github.com/zintix-labs/moneycart/stats"
)

// SimResponse 模擬結果；rounds 為實際跑的總回合（workers 整除後）。
type SimResponse struct {
	Stats    *stats.StatReport `json:"stats"`
	Seed     int64             `json:"seed"`
	Rounds   int               `json:"rounds"`
	Workers  int               `json:"workers"`
	UsedTime int64             `json:"used_ms"`
}

type SimHandler struct {
	lab        *moneycart.Lab
	timeout    time.Duration
	maxRounds  int
	maxWorkers int
}

func NewSimHandler(sCfg *svrcfg.SvrCfg) (*SimHandler, error) {
	if sCfg.Lab == nil {
		return nil, errs.NewFatal("lab is required")
	}
	return &SimHandler{
		lab:        sCfg.Lab,
		timeout:    sCfg.SimTimeout,
		maxRounds:  sCfg.MaxSimRounds,
		maxWorkers: sCfg.MaxWorkers,
	}, nil
}

// plan 檢查 rounds/workers 並回傳每個 worker 的回合數。
func (sh *SimHandler) plan(rounds, workers int) (per int, mp int, err error) {
	if rounds < 1 || rounds > sh.maxRounds {
		return 0, 0, errs.NewWarn(fmt.Sprintf("rounds must be between 1 and %d", sh.maxRounds))
	}
	mp = max(1, workers)
	if mp > sh.maxWorkers {
		return 0, 0, errs.NewWarn(fmt.Sprintf("workers must be <= %d", sh.maxWorkers))
	}
	mp = min(mp, rounds)
	return rounds / mp, mp, nil
}

func (sh *SimHandler) run(w http.ResponseWriter, r *http.Request, sim *moneycart.Simulator, per, mp int) {
	ctx, cancel := context.WithTimeout(r.Context(), sh.timeout)
	defer cancel()
	var (
		st   *stats.StatReport
		used time.Duration
		err  error
	)
	if mp == 1 {
		st, used, err = sim.Sim(ctx, per, false)
	} else {
		st, used, err = sim.SimMP(ctx, per, mp, false)
	}
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "simulate err"))
		return
	}
	writeJSON(w, http.StatusOK, SimResponse{
		Stats:    st,
		Seed:     sim.Seed(),
		Rounds:   per * mp,
		Workers:  mp,
		UsedTime: used.Milliseconds(),
	})
}

// Sim GET|POST /v1/sim
func (sh *SimHandler) Sim(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeSimRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if _, ok := sh.lab.EntryById(req.GameId); !ok {
		httperr.Errs(w, errs.Sentinelf(catalog.ErrNotFound, "gid=%d", req.GameId))
		return
	}
	per, mp, err := sh.plan(req.Rounds, req.Workers)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	var sim *moneycart.Simulator
	if req.Seed != nil {
		sim, err = sh.lab.NewSimulatorWithSeed(req.GameId, *req.Seed)
	} else {
		sim, err = sh.lab.NewSimulator(req.GameId)
	}
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, fmt.Sprintf("build simulator err: %d", req.GameId)))
		return
	}
	sh.run(w, r, sim, per, mp)
}

// SimByCfg POST /v1/simbycfg：以調整中的設定草稿模擬。
func (sh *SimHandler) SimByCfg(w http.ResponseWriter, r *http.Request) {
	req := new(dto.SimByCfgRequest)
	if err := dto.DecodeJSON(r, req); err != nil {
		httperr.Errs(w, err)
		return
	}
	if len(req.Cfg) == 0 {
		httperr.Errs(w, errs.NewWarn("cfg is required"))
		return
	}
	per, mp, err := sh.plan(req.Rounds, req.Workers)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	seed := rand.Int64()
	if req.Seed != nil {
		seed = *req.Seed
	}
	sim, err := sh.lab.NewSimulatorByJSON(req.Cfg, seed)
	if err != nil {
		// 外部設定錯誤屬於請求問題
		httperr.Errs(w, errs.WrapAs(errs.Warn, err, "invalid cfg"))
		return
	}
	sh.run(w, r, sim, per, mp)
}
