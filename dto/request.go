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

package dto

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/zintix-labs/moneycart/errs"
	"github.com/zintix-labs/moneycart/sdk/bonus"
	"github.com/zintix-labs/moneycart/sdk/symbol"
	"github.com/zintix-labs/moneycart/spec"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// 防止 body 過大（1MiB）
const maxBody = 1 << 20

// CreateSessionRequest 建立一個綁定單一遊戲的 session（一台 Machine）。
//
// gid 與 game 擇一即可；兩者都有時必須指向同一款。seed 缺省時由 crypto/rand 產生。
type CreateSessionRequest struct {
	GameId    spec.GID `json:"gid,omitempty"`
	GameName  string   `json:"game,omitempty"`
	Seed      *int64   `json:"seed,omitempty"`
	CoinValue string   `json:"coin_value,omitempty"` // decimal 字串，缺省為 "1"
}

// Placement 開局指定圖標
type Placement struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Kind  string `json:"kind"`
	Value int64  `json:"value"`
}

// StartRequest 開始新回合。
//
//   - placements：觸發回合的開局圖標（可空）。
//   - start_b64u：開局前先把 Core 還原到此快照（回放用）；缺省沿用目前 Core。
type StartRequest struct {
	Placements []Placement `json:"placements,omitempty"`
	StartB64U  string      `json:"start_b64u,omitempty"`
}

type TurboRequest struct {
	On bool `json:"on"`
}

// SimRequest 模擬請求（GET query 或 POST JSON）。
type SimRequest struct {
	GameId  spec.GID `json:"gid"`
	Rounds  int      `json:"rounds"`
	Workers int      `json:"workers,omitempty"`
	Seed    *int64   `json:"seed,omitempty"`
}

// BonusPlacements 轉成引擎的 Placement；未知 kind 回傳 Warn。
func (r *StartRequest) BonusPlacements() ([]bonus.Placement, error) {
	if len(r.Placements) == 0 {
		return nil, nil
	}
	out := make([]bonus.Placement, len(r.Placements))
	for i, p := range r.Placements {
		k, ok := symbol.ParseKind(p.Kind)
		if !ok {
			return nil, errs.Sentinelf(bonus.ErrPlacement, "placements[%d]: unknown kind %q", i, p.Kind)
		}
		out[i] = bonus.Placement{Cell: symbol.CellRef{Row: p.Row, Col: p.Col}, Kind: k, Value: p.Value}
	}
	return out, nil
}

// DecodeJSON 以嚴格模式解碼 JSON body 到 dst。
//
//   - body 限制 1MiB。
//   - 開啟 DisallowUnknownFields()，未知欄位直接拒絕，避免靜默丟資料。
//   - 空 body 視為零值（例如 POST /start 不帶參數）。
func DecodeJSON[T any](r *http.Request, dst *T) error {
	if r == nil || r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errs.NewWarn(fmt.Sprintf("invalid json: %v", err))
	}
	return nil
}

// DecodeSimRequest 會把 HTTP 請求解碼成 SimRequest。
//
// 支援：
//   - GET：從 query string 讀取參數（gid/rounds/workers/seed）。
//   - POST：從 JSON body 反序列化。
//
// 這裡只負責解碼與基本型別轉換，rounds/workers 上限由上層決定。
func DecodeSimRequest(r *http.Request) (*SimRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	req := new(SimRequest)
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		if s := q.Get("gid"); s != "" {
			u, err := strconv.ParseUint(s, 10, 0)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid gid: %v", err))
			}
			req.GameId = spec.GID(u)
		}
		if s := q.Get("rounds"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid rounds: %v", err))
			}
			req.Rounds = v
		}
		if s := q.Get("workers"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid workers: %v", err))
			}
			req.Workers = v
		}
		if s := q.Get("seed"); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid seed: %v", err))
			}
			req.Seed = &v
		}
		return req, nil
	case http.MethodPost:
		if err := DecodeJSON(r, req); err != nil {
			return nil, err
		}
		return req, nil
	default:
		return nil, errs.NewWarn("method not allowed")
	}
}

// SimByCfgRequest 以外部設定（JSON）模擬；cfg 的 gid 與 game 必須已在 catalog 中。
type SimByCfgRequest struct {
	Rounds  int                 `json:"rounds"`
	Workers int                 `json:"workers,omitempty"`
	Seed    *int64              `json:"seed,omitempty"`
	Cfg     jsoniter.RawMessage `json:"cfg"`
}
