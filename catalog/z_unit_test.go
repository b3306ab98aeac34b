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

package catalog

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/moneycart/configs"
	"github.com/zintix-labs/moneycart/spec"
)

func TestScanEmbeddedConfigs(t *testing.T) {
	c, err := New(configs.FS)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	ents, err := c.Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if err := c.Register(ents...); err != nil {
		t.Fatalf("register: %v", err)
	}
	c.Freeze()
	ids := c.IDs()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("ids=%v", ids)
	}
	bs, err := c.SettingByName("MoneyCart ")
	if err != nil {
		t.Fatalf("by name: %v", err)
	}
	if bs.LogicKey != spec.LogicMoneyCart || bs.GameID != 1 {
		t.Fatalf("unexpected setting %+v", SummaryOf(bs))
	}
	if err := c.Register(Entry{GID: 9, Name: "x", ConfigName: "moneycart.yaml"}); !errors.Is(err, ErrFrozen) {
		t.Fatalf("frozen catalog accepted register: %v", err)
	}
	if _, err := c.SettingByID(77); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	src := fstest.MapFS{
		"a.yaml": {Data: []byte("game_name: a\ngame_id: 1\n")},
		"b.yaml": {Data: []byte("game_name: b\ngame_id: 2\n")},
	}
	c, err := New(src)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Register(Entry{GID: 1, Name: "a", ConfigName: "a.yaml"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Register(Entry{GID: 1, Name: "b", ConfigName: "b.yaml"}); !errors.Is(err, ErrDupID) {
		t.Fatalf("dup id: %v", err)
	}
	if err := c.Register(Entry{GID: 2, Name: "A", ConfigName: "b.yaml"}); !errors.Is(err, ErrDupName) {
		t.Fatalf("dup name: %v", err)
	}
	if err := c.Register(Entry{GID: 3, Name: "c", ConfigName: "c.yaml"}); err == nil {
		t.Fatalf("missing config accepted")
	}
	if err := c.Register(Entry{GID: 3, Name: "c", ConfigName: "../a.yaml"}); err == nil {
		t.Fatalf("path config name accepted")
	}
}

func TestScanRejectsDuplicateIDs(t *testing.T) {
	src := fstest.MapFS{
		"a.yaml": {Data: []byte("game_name: a\ngame_id: 5\n")},
		"b.json": {Data: []byte(`{"game_name":"b","game_id":5}`)},
	}
	c, err := New(src)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Scan(); !errors.Is(err, ErrDupID) {
		t.Fatalf("expected dup id, got %v", err)
	}
}

func TestMultiFSRejectsNested(t *testing.T) {
	src := fstest.MapFS{"sub/a.yaml": {Data: []byte("game_name: a\n")}}
	if _, err := New(src); err == nil {
		t.Fatalf("nested config dir accepted")
	}
	dup := fstest.MapFS{"a.yaml": {Data: []byte("game_name: a\n")}}
	if _, err := New(dup, dup); err == nil {
		t.Fatalf("duplicate config across sources accepted")
	}
}
