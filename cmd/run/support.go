package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/big"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/moneycart"
	"github.com/zintix-labs/moneycart/configs"
	"github.com/zintix-labs/moneycart/sdk/core"
	"github.com/zintix-labs/moneycart/server/logger"
	"github.com/zintix-labs/moneycart/spec"
	"github.com/zintix-labs/moneycart/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	name      string
	id        spec.GID
	cfgPath   string
	worker    int
	rounds    int
	seed      int64
	prng      string
	out       string
	logMode   string
	pprofmode string
}

type gidFlag struct{ p *spec.GID }

func (f gidFlag) String() string {
	if f.p == nil {
		return "0"
	}
	return fmt.Sprint(uint(*f.p))
}

func (f gidFlag) Set(s string) error {
	u, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return err
	}
	*f.p = spec.GID(uint(u))
	return nil
}

func bindVar() {
	cfg.id = 1
	flag.Var(gidFlag{&cfg.id}, "game", "target game id")
	flag.StringVar(&cfg.cfgPath, "cfg", "", "external bonus yaml/json (overrides -game)")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.rounds, "rounds", 100000, "bonus rounds per worker")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator")
	flag.StringVar(&cfg.prng, "prng", "pcg64", "prng: pcg64|pcg32")
	flag.StringVar(&cfg.out, "out", "", "write report to file: *.json|*.yaml, append .zst to compress")
	flag.StringVar(&cfg.logMode, "log", "silence", "log mode: dev|prod|silence")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()

	// given seed illeagel -> default seed
	if cfg.seed < 1 {
		seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			log.Fatal(err)
		}
		cfg.seed = seed.Int64()
	}
}

func executeSimulator() {
	cfg.valid()

	mode, err := logger.ParseLogMode(cfg.logMode)
	if err != nil {
		log.Fatal(err)
	}
	cf, ok := core.FactoryByName(cfg.prng)
	if !ok {
		log.Fatalf("value err : unknown prng %q", cfg.prng)
	}
	lab, err := moneycart.NewAuto(cf, moneycart.Configs(configs.FS))
	if err != nil {
		log.Fatal(err)
	}
	lab.WithLogger(logger.NewDefaultLogger(mode))

	s, err := cfg.simulator(lab)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)

	var (
		st   *stats.StatReport
		used time.Duration
	)
	if cfg.worker == 1 {
		p.Printf("%s[GAME:%s] [SEED:%d] [ROUNDS:%d]%s\n", green, cfg.name, s.Seed(), cfg.rounds, reset)
		r, u, err := s.Sim(ctx, cfg.rounds, true)
		if err != nil {
			log.Fatal(err)
		}
		st, used = r, u
	} else {
		p.Printf("%s[WORKERS:%d] [GAME:%s] [SEED:%d] [ROUNDS:%d]%s\n", green, cfg.worker, cfg.name, s.Seed(), cfg.worker*cfg.rounds, reset)
		r, u, err := s.SimMP(ctx, cfg.rounds, cfg.worker, true)
		if err != nil {
			log.Fatal(err)
		}
		st, used = r, u
	}
	st.StdOut(used)
	if st.Est != nil {
		st.Est.Out()
	}
	if cfg.out != "" {
		if err := writeReport(cfg.out, st); err != nil {
			log.Fatal(err)
		}
		p.Printf("report written to %s\n", cfg.out)
	}
}

func (cfg *config) simulator(lab *moneycart.Lab) (*moneycart.Simulator, error) {
	if cfg.cfgPath == "" {
		s, err := lab.NewSimulatorWithSeed(cfg.id, cfg.seed)
		if err != nil {
			return nil, err
		}
		cfg.name = s.GameName
		return s, nil
	}
	raw, err := os.ReadFile(cfg.cfgPath)
	if err != nil {
		return nil, err
	}
	var s *moneycart.Simulator
	if strings.EqualFold(filepath.Ext(cfg.cfgPath), ".json") {
		s, err = lab.NewSimulatorByJSON(raw, cfg.seed)
	} else {
		s, err = lab.NewSimulatorByYAML(raw, cfg.seed)
	}
	if err != nil {
		return nil, err
	}
	cfg.name = s.GameName
	return s, nil
}

// writeReport 依副檔名選 render；結尾為 .zst 時以 zstd 壓縮寫出。
func writeReport(path string, st *stats.StatReport) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var w io.Writer = f
	name := path
	if base, ok := strings.CutSuffix(path, ".zst"); ok {
		zw, zerr := zstd.NewWriter(f)
		if zerr != nil {
			return zerr
		}
		defer func() {
			if cerr := zw.Close(); err == nil {
				err = cerr
			}
		}()
		w, name = zw, base
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	render, ok := stats.RenderByName(ext)
	if !ok {
		return fmt.Errorf("unknown report format %q", ext)
	}
	return st.WriteWith(w, render)
}

func (cfg *config) valid() {
	// 工作協程檢查(併發數)
	if cfg.worker < 1 {
		log.Fatal("value err : workers must > 0")
	}
	// 回合數檢查
	if cfg.rounds < 1 {
		log.Fatal("value err : rounds must > 0")
	}
}
