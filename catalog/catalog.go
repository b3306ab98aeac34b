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

// Package catalog 維護 bonus 變體目錄：GID ↔ 名稱 ↔ 設定檔名，設定來源為一或多個平面 fs.FS。
package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zintix-labs/moneycart/errs"
	"github.com/zintix-labs/moneycart/spec"
)

var (
	ErrDupID    = errs.NewFatal("duplicate game id")
	ErrDupName  = errs.NewFatal("duplicate game name")
	ErrNotFound = errs.NewWarn("game not found in catalog")
	ErrFrozen   = errs.NewWarn("can not register when catalog already frozen")
)

type Entry struct {
	GID        spec.GID
	Name       string
	ConfigName string
}

// Summary 對外列舉用（GET /v1/games）。
type Summary struct {
	GID       spec.GID      `json:"gid"`
	Name      string        `json:"name"`
	Logic     spec.LogicKey `json:"logic"`
	BaseBet   int64         `json:"base_bet"`
	Cap       int64         `json:"cap"`
	Cols      int           `json:"cols"`
	MaxRows   int           `json:"max_rows"`
	StartRows int           `json:"start_rows"`
}

// SummaryOf 由設定產生 Summary。
func SummaryOf(bs *spec.BonusSetting) Summary {
	return Summary{
		GID:       bs.GameID,
		Name:      bs.GameName,
		Logic:     bs.LogicKey,
		BaseBet:   bs.BaseBet,
		Cap:       bs.Cap,
		Cols:      bs.Grid.Cols,
		MaxRows:   bs.Grid.MaxRows,
		StartRows: bs.Grid.StartRows,
	}
}

type Catalog struct {
	byID   map[spec.GID]Entry
	byName map[string]Entry
	ids    []spec.GID          // 用來穩定排序
	unique map[string]struct{} // 一組遊戲，檔名需唯一
	config *multiFS
	frozen bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byID:   map[spec.GID]Entry{},
		byName: map[string]Entry{},
		ids:    make([]spec.GID, 0, 16),
		unique: map[string]struct{}{},
		config: multFS,
		frozen: false,
	}, nil
}

func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return ErrFrozen
	}
	seenID := map[spec.GID]struct{}{}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for i := range metas {
		meta := &metas[i]
		meta.Name = strings.ToLower(strings.TrimSpace(meta.Name))
		if meta.Name == "" {
			return errs.NewFatal("game name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.NewFatal(fmt.Sprintf("config file not found: %s", meta.ConfigName))
		}
		if _, ok := c.byID[meta.GID]; ok {
			return errs.Sentinelf(ErrDupID, "gid=%d", meta.GID)
		}
		if _, ok := c.byName[meta.Name]; ok {
			return errs.Sentinelf(ErrDupName, "name=%s", meta.Name)
		}
		if _, ok := seenID[meta.GID]; ok {
			return errs.Sentinelf(ErrDupID, "gid=%d", meta.GID)
		}
		if _, ok := seenName[meta.Name]; ok {
			return errs.Sentinelf(ErrDupName, "name=%s", meta.Name)
		}
		_, inCat := c.unique[meta.ConfigName]
		_, inBatch := seenCfg[meta.ConfigName]
		if inCat || inBatch {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		seenID[meta.GID] = struct{}{}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}
	}
	for _, meta := range metas {
		c.unique[meta.ConfigName] = struct{}{}
		c.byID[meta.GID] = meta
		c.byName[meta.Name] = meta
		c.ids = append(c.ids, meta.GID)
	}
	sort.Slice(c.ids, func(i, j int) bool { return c.ids[i] < c.ids[j] })
	return nil
}

// Scan 依檔名排序掃描所有來源，把可解析的 bonus 設定轉成 Entry。
//
// Fail-fast：任一檔案讀取/解析失敗立即回傳；全部成功才回傳 entries，由呼叫端一次 Register。
func (c *Catalog) Scan() ([]Entry, error) {
	names := make([]string, 0, len(c.config.index))
	for name := range c.config.index {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	seenID := map[spec.GID]string{}
	seenName := map[string]string{}
	for _, base := range names {
		if strings.HasPrefix(base, ".") {
			continue
		}
		bs, err := c.load(base)
		if err != nil {
			return nil, errs.WrapAs(errs.Fatal, err, fmt.Sprintf("parse bonus setting failed: %s", base))
		}
		name := strings.ToLower(strings.TrimSpace(bs.GameName))
		if prev, ok := seenID[bs.GameID]; ok {
			return nil, errs.Sentinelf(ErrDupID, "%d (config=%s and %s)", bs.GameID, prev, base)
		}
		if prev, ok := seenName[name]; ok {
			return nil, errs.Sentinelf(ErrDupName, "%s (config=%s and %s)", name, prev, base)
		}
		seenID[bs.GameID] = base
		seenName[name] = base
		entries = append(entries, Entry{GID: bs.GameID, Name: name, ConfigName: base})
	}
	if len(entries) == 0 {
		return nil, errs.NewFatal("no config files found to register")
	}
	return entries, nil
}

func (c *Catalog) GetByID(id spec.GID) (Entry, bool) {
	m, ok := c.byID[id]
	return m, ok
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	m, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

func (c *Catalog) IDs() []spec.GID {
	if len(c.ids) == 0 {
		return nil
	}
	return append([]spec.GID(nil), c.ids...)
}

func (c *Catalog) All() []Entry {
	m := make([]Entry, 0, len(c.ids))
	for _, id := range c.ids {
		if meta, ok := c.GetByID(id); ok {
			m = append(m, meta)
		}
	}
	return m
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	// 1) 不能包含路徑或類似字元
	if strings.ContainsAny(file, `/\:`) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must be a basename; no / \\\\ :) ", file))
	}
	// 2) 必須以 .yaml/.yml/.json 結尾（大小寫不敏感）
	if !isConfigName(file) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file))
	}
	// 3) 不能以 . 開頭
	if strings.HasPrefix(file, ".") {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (cannot start with '.')", file))
	}
	return nil
}

func isConfigName(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func parseByExt(filename string, raw []byte) (*spec.BonusSetting, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return spec.GetBonusSettingByYAML(raw)
	case ".json":
		return spec.GetBonusSettingByJSON(raw)
	default:
		return nil, errs.NewFatal(fmt.Sprintf("unsupported config format: %q", filename))
	}
}

func (c *Catalog) load(configName string) (*spec.BonusSetting, error) {
	src, ok := c.config.GetFS(configName)
	if !ok {
		return nil, errs.Sentinelf(ErrNotFound, "config=%s", configName)
	}
	raw, err := fs.ReadFile(src, configName)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read file error")
	}
	return parseByExt(configName, raw)
}

// SettingByID
//
// 每次呼叫都重新讀取並初始化，回傳的設定由呼叫端獨佔。
func (c *Catalog) SettingByID(id spec.GID) (*spec.BonusSetting, error) {
	e, ok := c.GetByID(id)
	if !ok {
		return nil, errs.Sentinelf(ErrNotFound, "gid=%d", id)
	}
	return c.load(e.ConfigName)
}

func (c *Catalog) SettingByName(name string) (*spec.BonusSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.Sentinelf(ErrNotFound, "name=%s", name)
	}
	return c.load(e.ConfigName)
}

type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewFatal(fmt.Sprintf("fs[%d] is nil", i))
		}
	}

	m := &multiFS{
		src:   src,
		index: make(map[string]int, 16),
	}

	for i := range src {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// configs 必須是平面目錄，只允許根目錄 "."
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("config FS must be flat (no subdirectories): %q", path))
			}
			if strings.Contains(path, "/") {
				return errs.NewFatal(fmt.Sprintf("config FS must be flat (no subdirectories): %q", path))
			}
			// 只索引 yaml/json，其餘檔案（例如 embed.go）忽略
			if !isConfigName(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i))
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], ok
	}
	return nil, false
}
