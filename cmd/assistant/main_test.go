package main

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"docassist-web/internal/progress"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		cmd     string
		arg     string
		matched bool
	}{
		{line: "/generate rec-1", cmd: "generate", arg: "rec-1", matched: true},
		{line: "  /QUIT ", cmd: "quit", matched: true},
		{line: "/", matched: false},
		{line: "привет", matched: false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, arg, ok := parseCommand(tt.line)
			if ok != tt.matched || cmd != tt.cmd || arg != tt.arg {
				t.Fatalf("parseCommand(%q) = %q, %q, %v", tt.line, cmd, arg, ok)
			}
		})
	}
}

func TestProgressLine(t *testing.T) {
	color.NoColor = true
	line := progressLine(progress.Snapshot{Percent: 50, Stage: progress.Lookup(progress.StageStarting)})

	if !strings.Contains(line, strings.Repeat("#", barWidth/2)+strings.Repeat(".", barWidth/2)) {
		t.Fatalf("unexpected bar %q", line)
	}
	if !strings.Contains(line, " 50%") || !strings.Contains(line, "Запуск анализа") {
		t.Fatalf("unexpected label %q", line)
	}
}
