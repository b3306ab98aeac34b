package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/moneycart/errs"
)

// DefaultDir pprof檔案寫入路徑
const DefaultDir = "build/profiling"

// Modes 可用的 profiling 模式
var Modes = []string{"cpu", "heap", "allocs"}

// RunPProf 根據 mode 決定執行哪種 Profiling；mode 為空字串時只執行 exe。
//
// Usage like:
//
//	go run ./cmd/run -pprof cpu
func RunPProf(exe func(), mode string, dir string) error {
	if mode == "" {
		exe()
		return nil
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(err, "create pprof dir failed")
	}
	switch mode {
	case "cpu":
		return PProfCPU(exe, dir)
	case "heap":
		return PProfHeap(exe, dir)
	case "allocs":
		return PProfAllocs(exe, dir)
	default:
		return errs.Warnf("unknown pprof mode %q", mode)
	}
}

// PProfCPU 對 exe 做 CPU profiling，也可以拿來做構建時給pgo的優化blueprint
func PProfCPU(exe func(), dir string) error {
	f, err := os.Create(filepath.Join(dir, "cpu.pprof"))
	if err != nil {
		return errs.Wrap(err, "failed to create cpu.pprof")
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "failed to start pprof")
	}
	defer pprof.StopCPUProfile()

	exe()
	return nil
}

// PProfHeap 會在 exe() 執行完後，寫出一次 Heap Snapshot（in-use memory）。
// 寫出前先 runtime.GC()，以獲得較準確的 Live Objects 視圖。
func PProfHeap(exe func(), dir string) error {
	exe()
	runtime.GC()

	f, err := os.Create(filepath.Join(dir, "heap.pprof"))
	if err != nil {
		return errs.Wrap(err, "failed to create heap.pprof")
	}
	defer f.Close()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return errs.Wrap(err, "failed to write heap profile")
	}
	return nil
}

// PProfAllocs 會在 exe() 後寫出「累積配置」(allocs) Profile，
// 搭配 -alloc_space / -alloc_objects 查看分配熱點。
func PProfAllocs(exe func(), dir string) error {
	exe()

	f, err := os.Create(filepath.Join(dir, "allocs.pprof"))
	if err != nil {
		return errs.Wrap(err, "failed to create allocs.pprof")
	}
	defer f.Close()
	if prof := pprof.Lookup("allocs"); prof != nil {
		if err := prof.WriteTo(f, 0); err != nil {
			return errs.Wrap(err, "failed to write allocs profile")
		}
	}
	return nil
}
