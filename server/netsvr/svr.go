package netsvr

import (
	"net/http"

	"github.com/zintix-labs/moneycart/server/app"
)

// NetSvr 可被 app 管理生命週期的 HTTP server；只有 server 組裝層持有。
// Handler 讓測試以 httptest 直接驅動完整路由與 middleware，不必真的 listen。
type NetSvr interface {
	NetRouter
	app.Component
	Handler() http.Handler
}

// NetRouter 純路由介面。api 層只拿得到這個，碰不到 Run/Shutdown。
type NetRouter interface {
	Use(middleware func(http.Handler) http.Handler)

	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)
	Put(path string, h http.HandlerFunc)
	Delete(path string, h http.HandlerFunc)

	// Group 以 path 為前綴註冊一組路由（/v1）
	Group(path string, fn func(NetRouter))
}
