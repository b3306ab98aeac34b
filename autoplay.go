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
	"time"

	"github.com/zintix-labs/moneycart/dto"
	"github.com/zintix-labs/moneycart/errs"
)

// Autoplay 連續 Spin 直到回合結束、ctx 取消或 onResult 回傳 false。
//
// ctx 只在兩轉之間檢查，一轉一旦開始必定完整結算。
// delay > 0 時每轉之後等待 delay（表演節奏）。
// 回傳最後一轉的結果；被取消時同時回傳 Warn 等級的錯誤。
func Autoplay(ctx context.Context, m *Machine, delay time.Duration, onResult func(dto.SpinResult) bool) (dto.SpinResult, error) {
	var last dto.SpinResult
	var timer *time.Timer
	if delay > 0 {
		timer = time.NewTimer(delay)
		timer.Stop()
		defer timer.Stop()
	}
	for {
		if err := ctx.Err(); err != nil {
			return last, errs.WrapAs(errs.Warn, err, "autoplay canceled")
		}
		res, err := m.Spin()
		if err != nil {
			return last, err
		}
		last = res
		if onResult != nil && !onResult(res) {
			return last, nil
		}
		if res.IsEnd {
			return last, nil
		}
		if timer == nil {
			continue
		}
		timer.Reset(delay)
		select {
		case <-ctx.Done():
			return last, errs.WrapAs(errs.Warn, ctx.Err(), "autoplay canceled")
		case <-timer.C:
		}
	}
}
