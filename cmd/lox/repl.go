package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"lox-lang/internal/config"
	"lox-lang/internal/driver"
	"lox-lang/internal/lexer"
	"lox-lang/internal/token"
)

// ---- ANSI colors ----

const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// palette switches ANSI styling on or off.
type palette bool

func (p palette) paint(code, s string) string {
	if !p {
		return s
	}
	return code + s + colorReset
}

// ---- repl ----

func runREPL(cfg config.Config, logger *slog.Logger) int {
	colors := palette(cfg.Color)
	prompt := colors.paint(colorGreen, cfg.Prompt)
	continuation := colors.paint(colorGray, strings.Repeat(".", max(len(cfg.Prompt)-1, 1))+" ")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       cfg.HistoryFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline init failed: %v\n", err)
		return exitSoftware
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "%s %s\n\n",
		colors.paint(colorBold+colorCyan, "lox REPL"),
		colors.paint(colorGray, "(:env lists globals, 'exit' or Ctrl+D quits)"))

	d := newDriver(cfg, logger, "<repl>", rl.Stdout(), rl.Stderr(), cfg.Color)
	var session replSession

	for {
		if session.pending() {
			rl.SetPrompt(continuation)
		} else {
			rl.SetPrompt(prompt)
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if session.pending() {
					session.reset()
					continue
				}
				fmt.Fprintf(rl.Stdout(), "%s\n", colors.paint(colorGray, "(use 'exit' or Ctrl+D to quit)"))
				continue
			}
			// EOF (Ctrl+D) or other error
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(rl.Stdout())
			}
			return exitOK
		}

		if !session.pending() {
			switch strings.TrimSpace(line) {
			case "exit":
				return exitOK
			case ":env":
				printGlobals(rl.Stdout(), d.Globals())
				continue
			}
		}

		source, ready := session.feed(line)
		if !ready {
			continue
		}
		// errors were already reported by the driver; the session goes on
		d.RunInteractive(source)
	}
}

// replSession accumulates lines until brace tokens balance. Braces inside
// strings and comments do not count.
type replSession struct {
	buf        strings.Builder
	braceDepth int
}

func (s *replSession) pending() bool { return s.braceDepth > 0 }

func (s *replSession) reset() {
	s.buf.Reset()
	s.braceDepth = 0
}

// feed adds a line and returns the accumulated source once it is complete.
func (s *replSession) feed(line string) (string, bool) {
	tokens, _ := lexer.Scan(line)
	for _, tok := range tokens {
		switch tok.Kind {
		case token.LEFT_BRACE:
			s.braceDepth++
		case token.RIGHT_BRACE:
			s.braceDepth--
		}
	}
	s.buf.WriteString(line)
	s.buf.WriteString("\n")
	if s.braceDepth > 0 {
		return "", false
	}
	source := s.buf.String()
	s.reset()
	return source, true
}

func printGlobals(w io.Writer, globals []driver.Binding) {
	for _, b := range globals {
		fmt.Fprintf(w, "%-12s %-10s %s\n", b.Name, b.Value.TypeName(), b.Value.String())
	}
}
