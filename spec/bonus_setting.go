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

package spec

import (
	"fmt"

	"github.com/zintix-labs/moneycart/errs"
	"github.com/zintix-labs/moneycart/sdk/sampler"
	"github.com/zintix-labs/moneycart/sdk/symbol"
)

// GID 遊戲（bonus 變體）編號。
type GID uint

// LogicKey 對應的引擎邏輯名稱。目前只有 "moneycart"。
type LogicKey string

const LogicMoneyCart LogicKey = "moneycart"

// BonusSetting 包含啟動一個 Money Cart bonus 所需的所有設定。
type BonusSetting struct {
	GameName    string              `yaml:"game_name"     json:"game_name"`
	GameID      GID                 `yaml:"game_id"       json:"game_id"`
	LogicKey    LogicKey            `yaml:"logic_key"     json:"logic_key"`
	BaseBet     int64               `yaml:"base_bet"      json:"base_bet"`
	Grid        GridSetting         `yaml:"grid"          json:"grid"`
	Respin      RespinSetting       `yaml:"respin"        json:"respin"`
	Cap         int64               `yaml:"cap"           json:"cap"`
	BigWin      int64               `yaml:"big_win"       json:"big_win"`
	DeepAbove   int                 `yaml:"deep_above_rows" json:"deep_above_rows"`
	SpawnCount  SpawnCountSetting   `yaml:"spawn_count"   json:"spawn_count"`
	Weights     SymbolWeightSetting `yaml:"symbol_weights" json:"symbol_weights"`
	CoinValues  []int64             `yaml:"coin_values"   json:"coin_values"`
	SniperShots SniperShotSetting   `yaml:"sniper_shots"  json:"sniper_shots"`
	NecroTarget Range               `yaml:"necro_targets" json:"necro_targets"`
	Mutate      Ratio               `yaml:"mutate_chance" json:"mutate_chance"`
	Upgrade     Ratio               `yaml:"upgrade_chance" json:"upgrade_chance"`
	MutateKinds []symbol.Kind       `yaml:"arms_dealer_kinds" json:"arms_dealer_kinds"`
	// 替代圖標（ArmsDealer/Upgrader）是否在換上的同一轉就參與常駐結算。
	ReplacementsFireSameSpin bool `yaml:"replacements_fire_same_spin" json:"replacements_fire_same_spin"`

	// 以下為 init 後的衍生表
	SpawnNormal *sampler.Table[int]         `yaml:"-" json:"-"`
	SpawnTurbo  *sampler.Table[int]         `yaml:"-" json:"-"`
	BaseKinds   *sampler.Table[symbol.Kind] `yaml:"-" json:"-"`
	DeepKinds   *sampler.Table[symbol.Kind] `yaml:"-" json:"-"`
}

// GridSetting 盤面尺寸與起始列數。
type GridSetting struct {
	Cols      int `yaml:"cols"       json:"cols"`
	MaxRows   int `yaml:"max_rows"   json:"max_rows"`
	StartRows int `yaml:"start_rows" json:"start_rows"`
}

// RespinSetting 起始與最大重轉次數。
type RespinSetting struct {
	Base    int `yaml:"base"     json:"base"`
	BaseMax int `yaml:"base_max" json:"base_max"`
}

// SpawnCountSetting 每轉生成數量的權重，index 即生成數量。
type SpawnCountSetting struct {
	Normal []int `yaml:"normal" json:"normal"`
	Turbo  []int `yaml:"turbo"  json:"turbo"`
}

// SymbolWeightSetting Base/Deep 兩張圖標種類權重表，列表順序即抽樣順序。
type SymbolWeightSetting struct {
	Base []KindWeight `yaml:"base" json:"base"`
	Deep []KindWeight `yaml:"deep" json:"deep"`
}

type KindWeight struct {
	Kind   symbol.Kind `yaml:"kind"   json:"kind"`
	Weight int         `yaml:"weight" json:"weight"`
}

type SniperShotSetting struct {
	Transient  Range `yaml:"transient"  json:"transient"`
	Persistent Range `yaml:"persistent" json:"persistent"`
}

// Range 閉區間 [Min, Max]。
type Range struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Ratio 機率 Num/Den。
type Ratio struct {
	Num int `yaml:"num" json:"num"`
	Den int `yaml:"den" json:"den"`
}

// init 補預設值、檢查並建立衍生表
func (bs *BonusSetting) init() error {
	bs.fillDefaults()
	if err := bs.valid(); err != nil {
		return err
	}
	return bs.buildTables()
}

func (bs *BonusSetting) fillDefaults() {
	if bs.LogicKey == "" {
		bs.LogicKey = LogicMoneyCart
	}
	if bs.BaseBet == 0 {
		bs.BaseBet = 1
	}
	if bs.Grid == (GridSetting{}) {
		bs.Grid = GridSetting{Cols: 6, MaxRows: 8, StartRows: 4}
	}
	if bs.Respin == (RespinSetting{}) {
		bs.Respin = RespinSetting{Base: 3, BaseMax: 5}
	}
	if len(bs.SpawnCount.Normal) == 0 {
		bs.SpawnCount.Normal = []int{5, 3, 1}
	}
	if len(bs.SpawnCount.Turbo) == 0 {
		bs.SpawnCount.Turbo = []int{3, 4, 1}
	}
	if len(bs.CoinValues) == 0 {
		bs.CoinValues = []int64{1, 1, 1, 1, 1, 1, 2, 2, 2, 3, 3, 5}
	}
	if bs.SniperShots.Transient == (Range{}) {
		bs.SniperShots.Transient = Range{Min: 1, Max: 2}
	}
	if bs.SniperShots.Persistent == (Range{}) {
		bs.SniperShots.Persistent = Range{Min: 1, Max: 1}
	}
	if bs.NecroTarget == (Range{}) {
		bs.NecroTarget = Range{Min: 1, Max: 2}
	}
	if bs.Mutate == (Ratio{}) {
		bs.Mutate = Ratio{Num: 1, Den: 2}
	}
	if bs.Upgrade == (Ratio{}) {
		bs.Upgrade = Ratio{Num: 1, Den: 2}
	}
	if len(bs.MutateKinds) == 0 {
		bs.MutateKinds = []symbol.Kind{symbol.Collector, symbol.Payer, symbol.Sniper, symbol.Necromancer}
	}
	if len(bs.Weights.Base) == 0 {
		bs.Weights.Base = defaultBaseWeights()
	}
	if len(bs.Weights.Deep) == 0 {
		bs.Weights.Deep = defaultDeepWeights()
	}
}

// 預設 Base 表（rows <= 5）。ResetPlus 權重固定為 0。
func defaultBaseWeights() []KindWeight {
	return []KindWeight{
		{symbol.Coin, 600}, {symbol.Collector, 50}, {symbol.Payer, 60}, {symbol.ComboCP, 10},
		{symbol.Sniper, 40}, {symbol.Necromancer, 15}, {symbol.Unlocker, 30}, {symbol.ArmsDealer, 20},
		{symbol.Upgrader, 20}, {symbol.ResetPlus, 0}, {symbol.PCollector, 8}, {symbol.PPayer, 8},
		{symbol.PSniper, 6}, {symbol.PComboCP, 2}, {symbol.PArmsDealer, 4},
	}
}

// 預設 Deep 表（rows > 5），特殊圖標比例較高。
func defaultDeepWeights() []KindWeight {
	return []KindWeight{
		{symbol.Coin, 520}, {symbol.Collector, 65}, {symbol.Payer, 70}, {symbol.ComboCP, 18},
		{symbol.Sniper, 50}, {symbol.Necromancer, 22}, {symbol.Unlocker, 30}, {symbol.ArmsDealer, 25},
		{symbol.Upgrader, 25}, {symbol.ResetPlus, 0}, {symbol.PCollector, 12}, {symbol.PPayer, 12},
		{symbol.PSniper, 9}, {symbol.PComboCP, 4}, {symbol.PArmsDealer, 6},
	}
}

// newBonusSetting 解碼前先放好純量預設值；檔案有寫的欄位（包含 0）會覆蓋。
// big_win / deep_above_rows 寫 0 是合法設定，因此不在 fillDefaults 以零值判斷。
func newBonusSetting() *BonusSetting {
	return &BonusSetting{Cap: 15000, BigWin: 100, DeepAbove: 5}
}

// Default 回傳以內建預設值初始化完成的設定。
func Default(name string, id GID) *BonusSetting {
	bs := newBonusSetting()
	bs.GameName, bs.GameID = name, id
	if err := bs.init(); err != nil {
		panic(err)
	}
	return bs
}

// valid 執行設定檢查，錯誤一律為 Fatal。
func (bs *BonusSetting) valid() error {
	name := bs.GameName
	if name == "" {
		return errs.NewFatal("empty game_name")
	}
	if bs.LogicKey != LogicMoneyCart {
		return errs.NewFatal(fmt.Sprintf("game_name: %s err:unknown logic_key %q", name, bs.LogicKey))
	}
	if bs.BaseBet < 1 {
		return errs.NewFatal(fmt.Sprintf("game_name: %s err:base_bet must be >= 1", name))
	}
	g := bs.Grid
	if g.Cols <= 0 || g.MaxRows <= 0 || g.StartRows <= 0 || g.StartRows > g.MaxRows {
		return errs.NewFatal(fmt.Sprintf("game_name: %s err:invalid grid cols=%d max_rows=%d start_rows=%d", name, g.Cols, g.MaxRows, g.StartRows))
	}
	if bs.Respin.Base < 1 || bs.Respin.BaseMax < bs.Respin.Base {
		return errs.NewFatal(fmt.Sprintf("game_name: %s err:invalid respin base=%d base_max=%d", name, bs.Respin.Base, bs.Respin.BaseMax))
	}
	if bs.Cap <= 0 || bs.BigWin < 0 {
		return errs.NewFatal(fmt.Sprintf("game_name: %s err:invalid cap=%d big_win=%d", name, bs.Cap, bs.BigWin))
	}
	if bs.DeepAbove < 0 {
		return errs.NewFatal(fmt.Sprintf("game_name: %s err:negative deep_above_rows", name))
	}
	for _, v := range bs.CoinValues {
		if v < 0 {
			return errs.NewFatal(fmt.Sprintf("game_name: %s err:negative coin value %d", name, v))
		}
	}
	ranges := []struct {
		label string
		r     Range
	}{
		{"sniper_shots.transient", bs.SniperShots.Transient},
		{"sniper_shots.persistent", bs.SniperShots.Persistent},
		{"necro_targets", bs.NecroTarget},
	}
	for _, it := range ranges {
		if it.r.Min < 0 || it.r.Max < it.r.Min {
			return errs.NewFatal(fmt.Sprintf("game_name: %s err:invalid %s [%d,%d]", name, it.label, it.r.Min, it.r.Max))
		}
	}
	ratios := []struct {
		label string
		p     Ratio
	}{
		{"mutate_chance", bs.Mutate},
		{"upgrade_chance", bs.Upgrade},
	}
	for _, it := range ratios {
		if it.p.Den <= 0 || it.p.Num < 0 || it.p.Num > it.p.Den {
			return errs.NewFatal(fmt.Sprintf("game_name: %s err:invalid %s %d/%d", name, it.label, it.p.Num, it.p.Den))
		}
	}
	for _, k := range bs.MutateKinds {
		if !k.Valid() || k == symbol.Coin {
			return errs.NewFatal(fmt.Sprintf("game_name: %s err:invalid arms_dealer kind %s", name, k))
		}
	}
	return nil
}

func (bs *BonusSetting) buildTables() error {
	var err error
	if bs.SpawnNormal, err = spawnTable(bs.SpawnCount.Normal); err != nil {
		return errs.WrapAs(errs.Fatal, err, fmt.Sprintf("game_name: %s err:spawn_count.normal", bs.GameName))
	}
	if bs.SpawnTurbo, err = spawnTable(bs.SpawnCount.Turbo); err != nil {
		return errs.WrapAs(errs.Fatal, err, fmt.Sprintf("game_name: %s err:spawn_count.turbo", bs.GameName))
	}
	if bs.BaseKinds, err = kindTable(bs.Weights.Base); err != nil {
		return errs.WrapAs(errs.Fatal, err, fmt.Sprintf("game_name: %s err:symbol_weights.base", bs.GameName))
	}
	if bs.DeepKinds, err = kindTable(bs.Weights.Deep); err != nil {
		return errs.WrapAs(errs.Fatal, err, fmt.Sprintf("game_name: %s err:symbol_weights.deep", bs.GameName))
	}
	return nil
}

func spawnTable(weights []int) (*sampler.Table[int], error) {
	labels := make([]int, len(weights))
	for i := range labels {
		labels[i] = i
	}
	return sampler.NewTable(labels, weights)
}

func kindTable(kws []KindWeight) (*sampler.Table[symbol.Kind], error) {
	seen := make(map[symbol.Kind]struct{}, len(kws))
	entries := make([]sampler.Entry[symbol.Kind], 0, len(kws))
	for _, kw := range kws {
		if !kw.Kind.Valid() {
			return nil, errs.Warnf("invalid kind %d", uint8(kw.Kind))
		}
		if _, ok := seen[kw.Kind]; ok {
			return nil, errs.Warnf("duplicate kind %s", kw.Kind)
		}
		seen[kw.Kind] = struct{}{}
		entries = append(entries, sampler.Entry[symbol.Kind]{Label: kw.Kind, Weight: kw.Weight})
	}
	return sampler.NewTableFromEntries(entries)
}

// IsDeep rows 超過 deep_above_rows 時改用 Deep 表。
func (bs *BonusSetting) IsDeep(rows int) bool { return rows > bs.DeepAbove }

// KindTable 依目前列數回傳圖標種類表。
func (bs *BonusSetting) KindTable(rows int) *sampler.Table[symbol.Kind] {
	if bs.IsDeep(rows) {
		return bs.DeepKinds
	}
	return bs.BaseKinds
}

// SpawnTable 依 turbo 回傳生成數量表。
func (bs *BonusSetting) SpawnTable(turbo bool) *sampler.Table[int] {
	if turbo {
		return bs.SpawnTurbo
	}
	return bs.SpawnNormal
}

// Init 讓以程式碼組裝（非檔案解碼）的設定也能補預設值與建表。
func (bs *BonusSetting) Init() error { return bs.init() }
