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

package corefmt

import (
	"bytes"
	"testing"

	"github.com/zintix-labs/moneycart/errs"
)

func TestBase64URLRejectsGarbage(t *testing.T) {
	if _, err := DecodeBase64URL("***"); err == nil || errs.LevelOf(err) != errs.Warn {
		t.Fatalf("expected warn error, got %v", err)
	}
	s := EncodeBase64URL([]byte{0xfb, 0xff})
	if s != "-_8" {
		t.Fatalf("unexpected url alphabet: %q", s)
	}
}

func TestBlobFrames(t *testing.T) {
	var b bytes.Buffer
	if err := WriteBlobFrame(&b, []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := WriteBlobFrame(&b, []byte("second")); err != nil {
		t.Fatal(err)
	}
	r := bytes.NewReader(b.Bytes())
	for _, want := range []string{"one", "second"} {
		got, err := ReadBlobFrame(r, 64)
		if err != nil || string(got) != want {
			t.Fatalf("frame got %q err %v want %q", got, err, want)
		}
	}
	b.Reset()
	_ = WriteBlobFrame(&b, make([]byte, 100))
	if _, err := ReadBlobFrame(&b, 10); err == nil {
		t.Fatalf("oversized frame accepted")
	}
}
