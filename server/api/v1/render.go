package v1

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/zintix-labs/moneycart/errs"
	"github.com/zintix-labs/moneycart/server/httperr"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// writeJSON 先完整序列化再寫出，避免寫到一半才出錯。
func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		httperr.Errs(w, errs.WrapAs(errs.Fatal, err, "encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
