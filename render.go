/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/gookit/color"
)

var (
	statusStyle = color.Style{color.FgGray, color.OpItalic}
	userStyle   = color.Style{color.FgCyan, color.OpBold}
	alertStyle  = color.Style{color.FgYellow, color.OpBold}
)

// termRenderer appends chat lines to a terminal. It keeps no history; the
// terminal's own scrollback is the message log.
type termRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	styled bool
}

func newTermRenderer(out io.Writer, styled bool) *termRenderer {
	return &termRenderer{out: out, styled: styled}
}

func (r *termRenderer) Status(text string) {
	r.line(r.paint(statusStyle, "* "+text))
}

func (r *termRenderer) Message(user, text string) {
	r.line(r.paint(userStyle, user+":") + " " + text)
}

func (r *termRenderer) paint(s color.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Sprint(text)
}

func (r *termRenderer) line(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintln(r.out, text)
}

// termNavigator prints alerts and remembers where the user was sent.
type termNavigator struct {
	out    io.Writer
	styled bool
	target string
}

func newTermNavigator(out io.Writer, styled bool) *termNavigator {
	return &termNavigator{out: out, styled: styled}
}

func (n *termNavigator) Alert(msg string) {
	if n.styled {
		msg = alertStyle.Sprint(msg)
	}
	_, _ = fmt.Fprintln(n.out, msg)
}

func (n *termNavigator) Redirect(view string) {
	n.target = view

	switch view {
	case viewLogin:
		_, _ = fmt.Fprintln(n.out, "Run `exochat login` to sign in.")
	case viewIndex:
		_, _ = fmt.Fprintln(n.out, "Run `exochat planets` to keep exploring.")
	}
}

// Target is the last view the user was redirected to.
func (n *termNavigator) Target() string {
	return n.target
}
