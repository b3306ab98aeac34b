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

// Package moneycart 提供 Money Cart bonus 引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Lab 把兩個必需的地基組裝在一起，並提供建立 Machine / Simulator / Sessions 的入口：
//  1. Catalog：bonus 變體目錄（Single Source of Truth），定義有哪些變體、各自對應的設定檔名稱。
//  2. PRNGFactory：亂數核心工廠，保證可重現（reproducible）與可審計（auditable）。
//
// Lab 本身不綁定任何「檔案路徑」概念：設定檔來源一律以 fs.FS 注入（go:embed 或 os.DirFS）。
//
// 典型使用情境：
//
//	lab, _ := moneycart.NewAuto(core.Default(), moneycart.Configs(configs.FS))
//	m, _ := lab.NewMachineWithSeed(1, 42)
//	_, _ = m.StartBonus()
//	res, _ := m.Spin() // 直到 res.IsEnd
package moneycart

import (
	"crypto/rand"
	"io/fs"
	"log/slog"
	"math"
	"math/big"

	"github.com/zintix-labs/moneycart/catalog"
	"github.com/zintix-labs/moneycart/errs"
	"github.com/zintix-labs/moneycart/sdk/core"
	"github.com/zintix-labs/moneycart/spec"
)

var (
	ErrNotFrozen = errs.NewFatal("catalog is not frozen yet")
	ErrNoFactory = errs.NewFatal("core factory required")
	ErrNoConfigs = errs.NewFatal("configs required")
)

// Configs 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Lab 組裝器。
//
// 使用流程分成兩階段：
//   - 註冊/組裝階段：建立 catalog、檢查重複與缺漏（Register / RegisterAll），最後 Freeze。
//   - 執行階段：依 GID 產生 Machine / Simulator，或 BuildSessions 對外服務。
//
// runtime 開始後 Catalog 不再變更。
type Lab struct {
	cat *catalog.Catalog
	cf  core.PRNGFactory
	log *slog.Logger
	sum []catalog.Summary
}

// New 建立一個 Lab instance（尚未註冊任何變體）。
func New(cf core.PRNGFactory, cfgs []fs.FS) (*Lab, error) {
	if cf == nil {
		return nil, ErrNoFactory
	}
	if len(cfgs) == 0 {
		return nil, ErrNoConfigs
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	return &Lab{
		cat: cata,
		cf:  cf,
		log: slog.New(slog.DiscardHandler),
	}, nil
}

// NewAuto 註冊所有設定檔並 Freeze，直接進入執行階段。
func NewAuto(cf core.PRNGFactory, cfgs []fs.FS) (*Lab, error) {
	lab, err := New(cf, cfgs)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

// WithLogger 設定之後建立的 Machine 使用的 logger；nil 表示靜默。
func (p *Lab) WithLogger(l *slog.Logger) *Lab {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	p.log = l
	return p
}

func (p *Lab) Logger() *slog.Logger { return p.log }

func (p *Lab) Register(ents ...catalog.Entry) error {
	return p.cat.Register(ents...)
}

// RegisterAll 掃描所有設定檔並一次性註冊。
//
// Fail-fast 且原子：任何一個檔案失敗都不會寫入 catalog。
func (p *Lab) RegisterAll() error {
	ents, err := p.cat.Scan()
	if err != nil {
		return err
	}
	return p.cat.Register(ents...)
}

func (p *Lab) Freeze() {
	p.cat.Freeze()
}

func (p *Lab) EntryById(id spec.GID) (catalog.Entry, bool) {
	return p.cat.GetByID(id)
}

func (p *Lab) EntryByName(name string) (catalog.Entry, bool) {
	return p.cat.GetByName(name)
}

func (p *Lab) IDs() []spec.GID {
	return p.cat.IDs()
}

func (p *Lab) All() []catalog.Entry {
	return p.cat.All()
}

// Summary 列舉所有變體（結果快取）。
func (p *Lab) Summary() ([]catalog.Summary, error) {
	if !p.cat.IsFrozen() {
		return nil, ErrNotFrozen
	}
	if p.sum != nil {
		return p.sum, nil
	}
	ids := p.cat.IDs()
	cs := make([]catalog.Summary, 0, len(ids))
	for _, id := range ids {
		bs, err := p.cat.SettingByID(id)
		if err != nil {
			return nil, err
		}
		cs = append(cs, catalog.SummaryOf(bs))
	}
	p.sum = cs
	return p.sum, nil
}

// Setting 取得某變體的設定（每次新解析一份）。
func (p *Lab) Setting(id spec.GID) (*spec.BonusSetting, error) {
	if !p.cat.IsFrozen() {
		return nil, ErrNotFrozen
	}
	return p.cat.SettingByID(id)
}

// NewMachine 依據 Catalog 內的 GID 建立一台 Machine（seed 由 crypto/rand 產生）。
func (p *Lab) NewMachine(id spec.GID) (*Machine, error) {
	seed, err := cryptoSeed()
	if err != nil {
		return nil, err
	}
	return p.NewMachineWithSeed(id, seed)
}

// NewMachineWithSeed 與 NewMachine 相同，但由呼叫端指定初始 seed。
//
// seed 只是「出生入口」。若要在任意時間點完整重現，請使用 SnapshotCore / RestoreCore。
func (p *Lab) NewMachineWithSeed(id spec.GID, seed int64) (*Machine, error) {
	bs, err := p.Setting(id)
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(bs, p.cf, seed, p.log)
}

// NewMachineByYAML 以外部設定建立機台；設定宣告的 GID 與名稱必須已在 catalog 內且互相對應。
func (p *Lab) NewMachineByYAML(raw []byte, seed int64) (*Machine, error) {
	bs, err := p.parseExternal(raw, spec.GetBonusSettingByYAML)
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(bs, p.cf, seed, p.log)
}

func (p *Lab) NewMachineByJSON(raw []byte, seed int64) (*Machine, error) {
	bs, err := p.parseExternal(raw, spec.GetBonusSettingByJSON)
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(bs, p.cf, seed, p.log)
}

func (p *Lab) NewSimulator(id spec.GID) (*Simulator, error) {
	seed, err := cryptoSeed()
	if err != nil {
		return nil, err
	}
	return p.NewSimulatorWithSeed(id, seed)
}

func (p *Lab) NewSimulatorWithSeed(id spec.GID, seed int64) (*Simulator, error) {
	bs, err := p.Setting(id)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(bs, p.cf, seed)
}

// NewSimulatorByYAML 以外部設定（例如調整權重後的草稿）建立模擬器。
func (p *Lab) NewSimulatorByYAML(raw []byte, seed int64) (*Simulator, error) {
	bs, err := p.parseExternal(raw, spec.GetBonusSettingByYAML)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(bs, p.cf, seed)
}

func (p *Lab) NewSimulatorByJSON(raw []byte, seed int64) (*Simulator, error) {
	bs, err := p.parseExternal(raw, spec.GetBonusSettingByJSON)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(bs, p.cf, seed)
}

func (p *Lab) parseExternal(raw []byte, parse func([]byte) (*spec.BonusSetting, error)) (*spec.BonusSetting, error) {
	if !p.cat.IsFrozen() {
		return nil, ErrNotFrozen
	}
	bs, err := parse(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(bs); err != nil {
		return nil, err
	}
	return bs, nil
}

func (p *Lab) validCfg(bs *spec.BonusSetting) error {
	ent, ok := p.cat.GetByID(bs.GameID)
	if !ok {
		return errs.Sentinelf(catalog.ErrNotFound, "gid=%d", bs.GameID)
	}
	ent2, ok := p.cat.GetByName(bs.GameName)
	if !ok {
		return errs.Sentinelf(catalog.ErrNotFound, "name=%s", bs.GameName)
	}
	if ent.GID != ent2.GID {
		return errs.NewWarn("game id is not matched game name")
	}
	return nil
}

// cryptoSeed 對外服務情境避免可預測 RNG；seed 仍記錄在 Machine 內以便追溯。
func cryptoSeed() (int64, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return seed.Int64(), nil
}
