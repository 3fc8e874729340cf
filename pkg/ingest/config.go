package ingest

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

// Line is one configuration statement and the statements indented below it.
type Line struct {
	Text     string
	Indent   int
	Children []*Line
}

// Walk calls fn for every line below l, depth first.
func (l *Line) Walk(fn func(*Line)) {
	for _, c := range l.Children {
		fn(c)
		c.Walk(fn)
	}
}

// Config is a device configuration parsed into an indentation tree.
type Config struct {
	Device string
	Lines  []*Line
}

// ParseConfig reads a running configuration. Blank lines and "!" separators
// are dropped. Nesting follows leading whitespace, which covers both IOS
// and NX-OS layouts.
func ParseConfig(device string, r io.Reader) (*Config, error) {
	cfg := &Config{Device: device}
	var stack []*Line

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		raw := strings.TrimRight(scanner.Text(), " \t\r")
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "!") {
			continue
		}
		indent := len(raw) - len(strings.TrimLeft(raw, " \t"))
		line := &Line{Text: text, Indent: indent}

		for len(stack) > 0 && stack[len(stack)-1].Indent >= indent {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			cfg.Lines = append(cfg.Lines, line)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, line)
		}
		stack = append(stack, line)
	}
	return cfg, scanner.Err()
}

// Find returns every line, at any depth, whose text matches re.
func (c *Config) Find(re *regexp.Regexp) []*Line {
	var out []*Line
	visit := func(l *Line) {
		if re.MatchString(l.Text) {
			out = append(out, l)
		}
	}
	for _, l := range c.Lines {
		visit(l)
		l.Walk(visit)
	}
	return out
}

// Top returns the top-level lines matching re.
func (c *Config) Top(re *regexp.Regexp) []*Line {
	var out []*Line
	for _, l := range c.Lines {
		if re.MatchString(l.Text) {
			out = append(out, l)
		}
	}
	return out
}
