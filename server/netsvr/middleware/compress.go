package middleware

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const (
	encZstd = "zstd"
	encGzip = "gzip"
)

// CompressConfig 壓縮等級與最小壓縮大小。
type CompressConfig struct {
	GzipLevel int
	ZstdLevel zstd.EncoderLevel
	MinSize   int // 小於此大小的 body 不壓縮（事件流通常很小）
}

var DefaultCompressConfig = CompressConfig{
	GzipLevel: gzip.DefaultCompression,
	ZstdLevel: zstd.SpeedFastest,
	MinSize:   512,
}

// resetWriter gzip.Writer 與 zstd.Encoder 的共同形狀。
type resetWriter interface {
	io.WriteCloser
	Reset(io.Writer)
	Flush() error
}

type encoderPool struct {
	pool sync.Pool
	make func(io.Writer) resetWriter
}

func (p *encoderPool) get(w io.Writer) resetWriter {
	if v := p.pool.Get(); v != nil {
		e := v.(resetWriter)
		e.Reset(w)
		return e
	}
	return p.make(w)
}

func (p *encoderPool) put(e resetWriter) {
	p.pool.Put(e)
}

func newPools(cfg CompressConfig) map[string]*encoderPool {
	return map[string]*encoderPool{
		encZstd: {make: func(w io.Writer) resetWriter {
			zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(cfg.ZstdLevel), zstd.WithEncoderConcurrency(1))
			if err != nil {
				panic(err)
			}
			return zw
		}},
		encGzip: {make: func(w io.Writer) resetWriter {
			gw, err := gzip.NewWriterLevel(w, cfg.GzipLevel)
			if err != nil {
				gw = gzip.NewWriter(w)
			}
			return gw
		}},
	}
}

// negotiate 依 Accept-Encoding 的 q 值挑選編碼；同分時 zstd 優先，q=0 視為拒絕。
func negotiate(accept string) string {
	best, bestQ := "", 0.0
	for part := range strings.SplitSeq(accept, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		if name != encZstd && name != encGzip {
			continue
		}
		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				q = f
			}
		}
		if q <= 0 {
			continue
		}
		if q > bestQ || (q == bestQ && name == encZstd) {
			best, bestQ = name, q
		}
	}
	return best
}

func skipCompress(r *http.Request) bool {
	return r.Method == http.MethodHead ||
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade") ||
		r.Header.Get("Upgrade") != ""
}

// compressWriter 延遲決定是否壓縮：累積到 MinSize 或 handler 結束時才決定。
type compressWriter struct {
	http.ResponseWriter
	pool     *encoderPool
	encoding string
	minSize  int

	enc     resetWriter
	buf     []byte
	status  int
	decided bool
	passthr bool
}

func (cw *compressWriter) WriteHeader(code int) {
	if cw.status != 0 {
		return
	}
	cw.status = code
	if (code >= 100 && code < 200) || code == http.StatusNoContent || code == http.StatusNotModified {
		cw.passthrough()
	}
}

func (cw *compressWriter) Write(b []byte) (int, error) {
	if cw.status == 0 {
		cw.status = http.StatusOK
	}
	if cw.decided {
		if cw.passthr {
			return cw.ResponseWriter.Write(b)
		}
		return cw.enc.Write(b)
	}
	cw.buf = append(cw.buf, b...)
	if len(cw.buf) >= cw.minSize {
		if err := cw.startCompress(); err != nil {
			return 0, err
		}
	}
	return len(b), nil
}

// passthrough 不壓縮，先送出 header 再送出暫存。
func (cw *compressWriter) passthrough() {
	if cw.decided {
		return
	}
	cw.decided, cw.passthr = true, true
	cw.ResponseWriter.WriteHeader(cw.statusOr200())
}

func (cw *compressWriter) startCompress() error {
	cw.decided = true
	h := cw.Header()
	if h.Get("Content-Encoding") != "" {
		cw.passthr = true
		cw.ResponseWriter.WriteHeader(cw.statusOr200())
		_, err := cw.ResponseWriter.Write(cw.buf)
		cw.buf = nil
		return err
	}
	if h.Get("Content-Type") == "" {
		h.Set("Content-Type", http.DetectContentType(cw.buf))
	}
	h.Del("Content-Length")
	h.Set("Content-Encoding", cw.encoding)
	h.Add("Vary", "Accept-Encoding")
	cw.ResponseWriter.WriteHeader(cw.statusOr200())
	cw.enc = cw.pool.get(cw.ResponseWriter)
	_, err := cw.enc.Write(cw.buf)
	cw.buf = nil
	return err
}

func (cw *compressWriter) statusOr200() int {
	if cw.status == 0 {
		return http.StatusOK
	}
	return cw.status
}

// finish handler 結束：小 body 原樣送出，否則關閉編碼器並還回 pool。
func (cw *compressWriter) finish() {
	if !cw.decided {
		cw.decided, cw.passthr = true, true
		if cw.status == 0 && len(cw.buf) == 0 {
			return
		}
		cw.ResponseWriter.WriteHeader(cw.statusOr200())
		if len(cw.buf) > 0 {
			_, _ = cw.ResponseWriter.Write(cw.buf)
		}
		cw.buf = nil
		return
	}
	if cw.enc != nil {
		_ = cw.enc.Close()
		cw.pool.put(cw.enc)
		cw.enc = nil
	}
}

func (cw *compressWriter) Flush() {
	if !cw.decided {
		if err := cw.startCompress(); err != nil {
			return
		}
	}
	if cw.enc != nil {
		_ = cw.enc.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := cw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying response writer does not support Hijacker")
	}
	return hj.Hijack()
}

// Compress 依 Accept-Encoding 以 zstd 或 gzip 壓縮回應（klauspost/compress）。
func Compress(cfg CompressConfig) func(http.Handler) http.Handler {
	pools := newPools(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipCompress(r) {
				next.ServeHTTP(w, r)
				return
			}
			enc := negotiate(r.Header.Get("Accept-Encoding"))
			if enc == "" {
				next.ServeHTTP(w, r)
				return
			}
			cw := &compressWriter{ResponseWriter: w, pool: pools[enc], encoding: enc, minSize: max(cfg.MinSize, 1)}
			defer cw.finish()
			next.ServeHTTP(cw, r)
		})
	}
}

// Compression 以預設設定壓縮。
func Compression(next http.Handler) http.Handler {
	return Compress(DefaultCompressConfig)(next)
}
