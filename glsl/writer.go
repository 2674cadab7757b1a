// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strconv"
	"strings"
)

const indentUnit = "    "

// Writer accumulates indented GLSL source text.
type Writer struct {
	buf   strings.Builder
	depth int
}

// NewWriter creates an empty writer.
func NewWriter() *Writer {
	return &Writer{}
}

// String returns the text written so far.
func (w *Writer) String() string {
	return w.buf.String()
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.buf.Len()
}

//nolint:goprintffuncname
func (w *Writer) writeLine(format string, args ...any) {
	w.buf.WriteString(strings.Repeat(indentUnit, w.depth))
	if len(args) > 0 {
		format = fmt.Sprintf(format, args...)
	}
	w.buf.WriteString(format)
	w.buf.WriteByte('\n')
}

// WriteLine writes one formatted line at the current indentation.
//
//nolint:goprintffuncname
func (w *Writer) WriteLine(format string, args ...any) {
	w.writeLine(format, args...)
}

// WriteRaw appends text verbatim.
func (w *Writer) WriteRaw(text string) {
	w.buf.WriteString(text)
}

func (w *Writer) pushIndent() { w.depth++ }

func (w *Writer) popIndent() {
	if w.depth > 0 {
		w.depth--
	}
}

// namer hands out identifiers that are unique within one module. Clashes
// get a numeric suffix from a counter shared by all bases.
type namer struct {
	taken  map[string]bool
	suffix int
}

func newNamer() *namer {
	return &namer{taken: make(map[string]bool)}
}

func (n *namer) call(base string) string {
	name := escapeKeyword(base)
	for n.taken[name] {
		n.suffix++
		name = escapeKeyword(base) + "_" + strconv.Itoa(n.suffix)
	}
	n.taken[name] = true
	return name
}

// reserve marks a name chosen elsewhere as taken.
func (n *namer) reserve(name string) {
	n.taken[name] = true
}

// formatFloat writes f so that GLSL reads it as a float literal.
func formatFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'g', -1, 32)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// formatFloat64 writes f as a double literal.
func formatFloat64(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s + "lf"
}
