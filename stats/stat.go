package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/moneycart/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat/distuv"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// StatReport bonus 回合統計報告
type StatReport struct {
	Summary *SummaryReport `json:"Summary"`
	Mult    *MultReport    `json:"Mult"`
	Dist    *DistReport    `json:"Dist"`
	Est     *Estimates     `json:"Est,omitempty"`
	Samples []float64      `json:"-" yaml:"-"` // 單回合贏倍樣本（分位數用）
	isDone  bool
}

type SummaryReport struct {
	GameName    string   `json:"GameName"`
	GameId      spec.GID `json:"GameId"`
	BaseBet     int64    `json:"BaseBet"`
	Cap         int64    `json:"Cap"`
	Rounds      int      `json:"Rounds"`
	Spins       int      `json:"Spins"`
	TotalPayout int64    `json:"TotalPayout"`
	AvgMult     float64  `json:"AvgMult"`
	MultCI      CI       `json:"MultCI"`
	Std         float64  `json:"Std"`
	Cv          float64  `json:"Cv"`
	CapHits     int      `json:"CapHits"`
	CapRate     float64  `json:"CapRate"`
	BigWins     int      `json:"BigWins"`
	BigWinRate  float64  `json:"BigWinRate"`
	ZeroRounds  int      `json:"ZeroRounds"`
	HitRate     float64  `json:"HitRate"`
	AvgSpins    float64  `json:"AvgSpins"`
	AvgRows     float64  `json:"AvgRows"`
}

// MultReport 贏倍累計
//
// 紀錄時不紀錄，避免轉型成本。紀錄完成後Done()會將結果整理填入
type MultReport struct {
	TotalMult      float64 `json:"TotalMult"`
	TotalMultSqSum float64 `json:"TotalMultSqSum"` // 平方和
}

// DistReport 分布統計
type DistReport struct {
	WinBucket    []string  `json:"WinBucket"`
	WinCollect   []int     `json:"WinCollect"`
	WinDist      []float64 `json:"WinDist"`
	RowsLabel    []string  `json:"RowsLabel"`
	RowsCollect  []int     `json:"RowsCollect"`
	RowsDist     []float64 `json:"RowsDist"`
	SpinsLabel   []string  `json:"SpinsLabel"`
	SpinsCollect []int     `json:"SpinsCollect"`
	SpinsDist    []float64 `json:"SpinsDist"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
//
// 統計過程因為性能原因只處理int的紀錄，統計完成後請呼叫 Done 一次性計算結果
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	sum := s.Summary
	sum.AvgMult = s.Mean()
	sum.MultCI = s.Ci()
	sum.Std = s.Std()
	sum.Cv = s.Cv()
	if sum.Rounds > 0 {
		rf := float64(sum.Rounds)
		sum.CapRate = float64(sum.CapHits) / rf
		sum.BigWinRate = float64(sum.BigWins) / rf
		sum.HitRate = 1.0 - float64(sum.ZeroRounds)/rf
		sum.AvgSpins = float64(sum.Spins) / rf
	}
	s.Dist.WinDist = normalize(s.Dist.WinCollect, sum.Rounds)
	s.Dist.RowsDist = normalize(s.Dist.RowsCollect, sum.Rounds)
	s.Dist.SpinsDist = normalize(s.Dist.SpinsCollect, sum.Rounds)
	s.Est = estimate(s)
	s.isDone = true
}

// Mean 回傳單回合平均贏倍（以 base bet 為單位）
func (s *StatReport) Mean() float64 {
	if s.Summary.Rounds == 0 {
		return 0
	}
	return s.Mult.TotalMult / float64(s.Summary.Rounds)
}

// Std 回傳單回合贏倍的樣本標準差
func (s *StatReport) Std() float64 {
	if s.Summary.Rounds < 2 {
		return 0
	}
	rounds := float64(s.Summary.Rounds)
	multPow := s.Mult.TotalMult * s.Mult.TotalMult
	variance := (s.Mult.TotalMultSqSum - multPow/rounds) / (rounds - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Cv 回傳單回合贏倍的變異係數
func (s *StatReport) Cv() float64 {
	mean := s.Mean()
	if mean <= 0 {
		return 0
	}
	return s.Std() / mean
}

// Ci 回傳平均贏倍的 95% 常態信賴區間
func (s *StatReport) Ci() CI {
	mean := s.Mean()
	se := 0.0
	if s.Summary.Rounds > 1 {
		se = s.Std() / math.Sqrt(float64(s.Summary.Rounds))
	}
	z := distuv.UnitNormal.Quantile(0.975)
	return CI{
		Lo: max(mean-z*se, 0.0),
		Hi: mean + z*se,
	}
}

func (s *StatReport) WriteWith(w io.Writer, rep StatReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

// StdOut 輸出用時與摘要表
func (s *StatReport) StdOut(ut time.Duration) {
	s.Done()
	fmt.Print(formatDuration(ut, s.Summary.Rounds))
	fmt.Println(s.Table())
}

// Table 回傳摘要表字串
func (s *StatReport) Table() string {
	sk, sm := s.fmtBasic()
	return fmtTable(s.Summary.GameName, sk, sm)
}

// ============================================================
// ** 內部方法 **
// ============================================================

func normalize(collect []int, rounds int) []float64 {
	out := make([]float64, len(collect))
	if rounds == 0 {
		return out
	}
	rf := float64(rounds)
	for i, c := range collect {
		out[i] = float64(c) / rf
	}
	return out
}

func formatDuration(d time.Duration, rounds int) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	rps := int(float64(rounds) / sec)
	if sec < 60.0 {
		return p.Sprintf("used: %.2f seconds\nrps : %d rounds/sec\n", sec, rps)
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("used: %dm %ds\nrps : %d rounds/sec\n", m, s, rps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\nrps : %d rounds/sec\n", h, m, s, rps)
}

func (s *StatReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	sum := s.Summary
	basic := map[string]string{
		"Game Name":    p.Sprintf("%s", sum.GameName),
		"Game ID":      fmt.Sprintf("%d", sum.GameId),
		"Base Bet":     p.Sprintf("%d", sum.BaseBet),
		"Cap":          p.Sprintf("%dx", sum.Cap),
		"Total Rounds": p.Sprintf("%d", sum.Rounds),
		"Total Spins":  p.Sprintf("%d", sum.Spins),
		"Total Payout": p.Sprintf("%d", sum.TotalPayout),
		"Avg Mult":     p.Sprintf("%.3fx", sum.AvgMult),
		"Mult 95% CI":  p.Sprintf("[%.3fx,%.3fx]", sum.MultCI.Lo, sum.MultCI.Hi),
		"Cap Hits":     p.Sprintf("%d (%.4f %%)", sum.CapHits, 100.0*sum.CapRate),
		"Big Wins":     p.Sprintf("%d (%.2f %%)", sum.BigWins, 100.0*sum.BigWinRate),
		"Zero Rounds":  p.Sprintf("%d", sum.ZeroRounds),
		"Avg Spins":    p.Sprintf("%.2f", sum.AvgSpins),
		"Avg Rows":     p.Sprintf("%.2f", sum.AvgRows),
		"STD":          p.Sprintf("%.3f", sum.Std),
		"CV":           p.Sprintf("%.3f", sum.Cv),
	}
	keys := []string{"Game Name", "Game ID", "Base Bet", "Cap", "Total Rounds", "Total Spins", "Total Payout", "Avg Mult", "Mult 95% CI", "Cap Hits", "Big Wins", "Zero Rounds", "Avg Spins", "Avg Rows", "STD", "CV"}
	if e := s.Est; e != nil {
		for _, q := range e.Quantiles {
			k := fmt.Sprintf("Mult P%g", q.Q*100)
			basic[k] = p.Sprintf("%.0fx [%.0fx,%.0fx]", q.Hat, q.CI.Lo, q.CI.Hi)
			keys = append(keys, k)
		}
	}
	return keys, basic
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
