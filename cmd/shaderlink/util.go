package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
)

var (
	red   = color.New(color.FgRed).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

func fatal(msg any) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		s = msg.Error()
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", red(s))
	os.Exit(1)
}

// openFile opens path after expanding a leading "~".
func openFile(path string) (*os.File, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	return os.Open(expanded)
}

// createFile creates path after expanding a leading "~".
func createFile(path string) (*os.File, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	return os.Create(expanded)
}

// parsePriorities reads "set=priority" pairs.
func parsePriorities(pairs []string) (map[string]int, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]int, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid priority %q, want set=priority", pair)
		}
		p, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid priority %q: %w", pair, err)
		}
		out[name] = p
	}
	return out, nil
}
