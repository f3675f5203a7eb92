package launch

import (
	"bytes"
	"strings"

	"github.com/kballard/go-shellquote"
)

type Shell int

const (
	POSIX Shell = iota
	Batch
)

func ShellFor(goos string) Shell {
	if goos == "windows" {
		return Batch
	}
	return POSIX
}

// Script renders the plan as a script the user can rerun by hand. Every
// file and program name is quoted for the target shell.
func Script(p Plan, sh Shell) []byte {
	if sh == Batch {
		return batchScript(p)
	}
	return posixScript(p)
}

func posixScript(p Plan) []byte {
	var b bytes.Buffer
	line := func(s string) { b.WriteString(s + "\n") }

	line("#!/bin/sh")
	line("set -e")
	line(posixCommand(p.Generate))
	line("mv -f " + shellquote.Join(p.Rename[0], p.Rename[1]))
	for _, t := range p.Transient {
		line("rm -f " + shellquote.Join(t))
	}
	if p.Convert != nil {
		line(posixCommand(*p.Convert))
		line("rm -f " + shellquote.Join(p.Convert.Stdin))
	}
	if p.View != nil {
		line(posixCommand(*p.View) + " &")
	}
	return b.Bytes()
}

func posixCommand(c Command) string {
	s := shellquote.Join(append([]string{c.Path}, c.Args...)...)
	if c.Stdin != "" {
		s += " < " + shellquote.Join(c.Stdin)
	}
	return s
}

func batchScript(p Plan) []byte {
	var b bytes.Buffer
	line := func(s string) { b.WriteString(s + "\r\n") }

	line("@echo off")
	line(batchCommand(p.Generate))
	line("move /Y " + batchQuote(p.Rename[0]) + " " + batchQuote(p.Rename[1]))
	for _, t := range p.Transient {
		line("if exist " + batchQuote(t) + " del " + batchQuote(t))
	}
	return b.Bytes()
}

func batchCommand(c Command) string {
	parts := []string{batchQuote(c.Path)}
	for _, a := range c.Args {
		parts = append(parts, batchQuote(a))
	}
	s := strings.Join(parts, " ")
	if c.Stdin != "" {
		s += " < " + batchQuote(c.Stdin)
	}
	return s
}

// cmd.exe has no escape for a double quote inside quotes; they are not
// valid in Windows file names either, so drop them.
func batchQuote(s string) string {
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, "%", "%%")
	return `"` + s + `"`
}
