package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cargo-console/internal/bay"
	"cargo-console/internal/participant"
)

var errQuit = errors.New("quit")

// console is the part of a session the command loop drives.
type console interface {
	AddressOf(token bay.Token) (bay.Address, bool)
	Begin(token bay.Token)
	Drag(token bay.Token, source, target bay.Address) (bay.Outcome, error)
	Page() int
	SetPage(page int) error
	View() participant.View
}

func move(s console, out io.Writer, container, target string) error {
	token := bay.Token(container)
	to, err := bay.ParseAddress(target)
	if err != nil {
		return err
	}
	from, ok := s.AddressOf(token)
	if !ok {
		return fmt.Errorf("%w: %q", bay.ErrUnknownToken, container)
	}

	s.Begin(token)
	outcome, err := s.Drag(token, from, to)
	if err != nil {
		return err
	}
	if outcome.Evicted != "" {
		fmt.Fprintf(out, "%s returned to %s\n", outcome.Evicted, outcome.EvictedTo)
	}
	return nil
}

// execute runs one interactive command line.
func execute(s console, out io.Writer, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "move", "mv":
		if len(fields) != 3 {
			return errors.New("usage: move <container> <target>")
		}
		if err := move(s, out, fields[1], fields[2]); err != nil {
			return err
		}
	case "page":
		if len(fields) != 2 {
			return errors.New("usage: page <n>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("invalid page %q", fields[1])
		}
		if err := s.SetPage(n); err != nil {
			return err
		}
	case "next":
		if err := s.SetPage(s.Page() + 1); err != nil {
			return err
		}
	case "prev":
		if err := s.SetPage(s.Page() - 1); err != nil {
			return err
		}
	case "show":
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (move, page, next, prev, show, quit)", fields[0])
	}

	render(out, s.View())
	return nil
}

type watcher struct {
	session *participant.Session
	in      io.Reader
	out     io.Writer
	redraw  chan struct{}
}

func (w *watcher) run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(w.in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	render(w.out, w.session.View())

	for {
		select {
		case d := <-w.session.Departed():
			fmt.Fprintf(w.out, "left room %d: %s\n", d.RoomID, d.Reason)
			return closeSession(ctx, w.session)
		case <-w.redraw:
			render(w.out, w.session.View())
		case line, ok := <-lines:
			if !ok {
				return closeSession(ctx, w.session)
			}
			if err := execute(w.session, w.out, line); err != nil {
				if errors.Is(err, errQuit) {
					return closeSession(ctx, w.session)
				}
				fmt.Fprintln(w.out, "error:", err)
			}
		case <-ctx.Done():
			return closeSession(ctx, w.session)
		}
	}
}
