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
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/moneycart/errs"
)

// maxCoinScale coin value 最多允許的小數位數
const maxCoinScale = 4

var (
	ErrCoinValue = errs.NewWarn("invalid coin value")
	one          = decimal.NewFromInt(1)
)

// ParseCoinValue 解析每一單位值對應的金額；空字串回傳 1。必須 > 0 且小數位數 <= 4。
func ParseCoinValue(s string) (decimal.Decimal, error) {
	if s == "" {
		return one, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errs.Sentinelf(ErrCoinValue, "%q: %v", s, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, errs.Sentinelf(ErrCoinValue, "%q must be positive", s)
	}
	if d.Exponent() < -maxCoinScale && !d.Equal(d.Round(maxCoinScale)) {
		return decimal.Zero, errs.Sentinelf(ErrCoinValue, "%q has more than %d decimals", s, maxCoinScale)
	}
	return d, nil
}

// Amount 派彩金額 = coinValue × units
func Amount(coinValue decimal.Decimal, units int64) decimal.Decimal {
	return coinValue.Mul(decimal.NewFromInt(units))
}
