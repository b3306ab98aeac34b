// Package app 定義應用程式根目錄用以管理長期運行元件的最小生命週期抽象。
package app

import (
	"context"
	"sync"
	"time"
)

// Component 抽象任何「可啟動 / 可關閉」的長生命週期元件。
// - Run() 應該是阻塞呼叫，直到元件停止為止（正常或錯誤）。
// - Shutdown(ctx) 用於要求優雅關閉；實作方應該尊重 ctx deadline/cancel。
// 典型實例：HTTP Server、Background Worker（例如 session 回收）。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// Ticker 每隔 every 執行一次 fn 的背景元件；Shutdown 後執行 onStop（可為 nil）。
type Ticker struct {
	every  time.Duration
	fn     func()
	onStop func()
	stop   chan struct{}
	once   sync.Once
}

func NewTicker(every time.Duration, fn func(), onStop func()) *Ticker {
	return &Ticker{every: every, fn: fn, onStop: onStop, stop: make(chan struct{})}
}

func (t *Ticker) Run() error {
	tk := time.NewTicker(t.every)
	defer tk.Stop()
	for {
		select {
		case <-t.stop:
			return nil
		case <-tk.C:
			t.fn()
		}
	}
}

func (t *Ticker) Shutdown(context.Context) error {
	t.once.Do(func() {
		close(t.stop)
		if t.onStop != nil {
			t.onStop()
		}
	})
	return nil
}
