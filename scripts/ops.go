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

// ops 開發用任務：go run ./scripts [test|test-detail|smoke]
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const (
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

func paint(color, msg string) { fmt.Printf("%s%s%s\n", color, msg, colorReset) }

// task 一個任務 = 若干條依序執行的指令；filter 為 nil 時原樣輸出。
type task struct {
	desc   string
	cmds   [][]string
	filter func(line string) (string, bool)
}

var tasks = map[string]task{
	"test": {
		desc:   "all packages, summary only",
		cmds:   [][]string{{"go", "clean", "-testcache"}, {"go", "test", "./...", "-cover", "-count=1"}},
		filter: summaryOnly,
	},
	"test-detail": {
		desc: "verbose tests without [no test files]",
		cmds: [][]string{{"go", "test", "./...", "-v", "-count=1"}},
		filter: func(line string) (string, bool) {
			return line, !strings.Contains(line, "[no test files]")
		},
	},
	"smoke": {
		desc: "short multi-worker simulation of every embedded variant",
		cmds: [][]string{
			{"go", "run", "./cmd/run", "-game", "1", "-worker", "4", "-rounds", "20000", "-seed", "1"},
			{"go", "run", "./cmd/run", "-game", "2", "-worker", "4", "-rounds", "20000", "-seed", "1"},
		},
	},
}

func main() {
	if len(os.Args) < 2 {
		paint(colorYellow, "Usage: go run ./scripts [command]")
		for name, t := range tasks {
			fmt.Printf("  %-12s %s\n", name, t.desc)
		}
		os.Exit(1)
	}
	t, ok := tasks[os.Args[1]]
	if !ok {
		paint(colorYellow, fmt.Sprintf("Unknown task: %s", os.Args[1]))
		os.Exit(1)
	}
	paint(colorGreen, "running "+os.Args[1])
	for _, argv := range t.cmds {
		if err := run(argv, t.filter); err != nil {
			paint(colorRed, fmt.Sprintf("\n%s: %v", strings.Join(argv, " "), err))
			os.Exit(1)
		}
	}
}

func run(argv []string, filter func(string) (string, bool)) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	if filter == nil {
		cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
		return cmd.Run()
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return err
	}
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		line, keep := filter(sc.Text())
		if !keep {
			continue
		}
		switch {
		case strings.HasPrefix(line, "ok"):
			paint(colorGreen, line)
		case strings.HasPrefix(line, "FAIL"):
			paint(colorRed, line)
		default:
			fmt.Println(line)
		}
	}
	return cmd.Wait()
}

// summaryOnly 只留 ok/FAIL 與編譯失敗訊息。
func summaryOnly(line string) (string, bool) {
	keep := strings.HasPrefix(line, "ok") || strings.HasPrefix(line, "FAIL") ||
		strings.Contains(line, "build failed") || strings.Contains(line, "setup failed")
	return line, keep
}
