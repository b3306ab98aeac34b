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
	"bytes"

	jsoniter "github.com/json-iterator/go"
	"github.com/zintix-labs/moneycart/errs"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GetBonusSettingByYAML
// 會讀取 YAML 設定、補預設值、執行檢查並建立權重表後回傳。
// 採嚴格解碼：多寫或拼錯欄位直接報錯。
func GetBonusSettingByYAML(data []byte) (*BonusSetting, error) {
	bs := newBonusSetting()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(bs); err != nil {
		return nil, errs.WrapAs(errs.Fatal, err, "failed to unmarshall yaml")
	}

	// 設定檔初始化
	if err := bs.init(); err != nil {
		return nil, errs.Wrap(err, "bonus setting initialized err")
	}

	return bs, nil
}

// GetBonusSettingByJSON
// 會讀取 Json 設定、補預設值、執行檢查並建立權重表後回傳
func GetBonusSettingByJSON(data []byte) (*BonusSetting, error) {
	bs := newBonusSetting()
	if err := json.Unmarshal(data, bs); err != nil {
		return nil, errs.WrapAs(errs.Fatal, err, "can not unmarshall json byte")
	}

	// 設定檔初始化
	if err := bs.init(); err != nil {
		return nil, errs.Wrap(err, "bonus setting initialized err")
	}

	return bs, nil
}
