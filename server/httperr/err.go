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

package httperr

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/zintix-labs/moneycart"
	"github.com/zintix-labs/moneycart/catalog"
	"github.com/zintix-labs/moneycart/errs"
	"github.com/zintix-labs/moneycart/sdk/bonus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// sentinels 先於等級判斷的特定錯誤映射（errors.Is）。
var sentinels = []struct {
	err    error
	status int
}{
	{moneycart.ErrSessionNotFound, http.StatusNotFound},
	{catalog.ErrNotFound, http.StatusNotFound},
	{bonus.ErrNoRound, http.StatusConflict},
	{bonus.ErrRoundEnded, http.StatusConflict},
	{bonus.ErrBusy, http.StatusConflict},
	{moneycart.ErrSessionFull, http.StatusTooManyRequests},
	{moneycart.ErrRuntimeClosed, http.StatusServiceUnavailable},
}

// StatusCode 將錯誤映射成 HTTP status code。
//
// 規則（邊界層最小映射、可預期）：
//   - ctx timeout/cancel → 504/408（請求生命週期問題）
//   - 已知 sentinel      → 404/409/429/503
//   - errs.Warn         → 400（請求/參數問題）
//   - errs.Fatal        → 500（系統/不可恢復問題）
//
// 本函數屬於 HTTP 邊界層，因此放在 server/*（而不是 core errs）。
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	if e, ok := errs.AsErr(err); ok && e.ErrLv == errs.Warn {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Body 錯誤回應的 JSON 形狀。
type Body struct {
	Status int    `json:"status"`
	Level  string `json:"level"`
	Error  string `json:"error"`
}

// Errs 寫回 JSON 錯誤；5xx 不外洩內部訊息。
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	status := StatusCode(err)
	msg := err.Error()
	if status >= 500 && status != http.StatusGatewayTimeout && status != http.StatusServiceUnavailable {
		msg = http.StatusText(status)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Body{Status: status, Level: errs.ErrLv(errs.LevelOf(err)), Error: msg})
}

// Log 依 status 決定等級：4xx 中的 408/409/429 記 Warn，5xx 記 Error，其餘不記。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	status := StatusCode(err)
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusConflict || status == http.StatusTooManyRequests:
		log.Warn(msg, slog.Int("status", status), slog.Any("err", err))
	case status >= 500:
		log.Error(msg, slog.Int("status", status), slog.Any("err", err))
	}
}
