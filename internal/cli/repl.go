package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for prompt and help output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. App satisfies it.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Publish(ctx context.Context) error
	Unpublish(ctx context.Context, args []string) error
	List(ctx context.Context) error
	Home(ctx context.Context) error
	Archive(ctx context.Context) error
	Months(ctx context.Context, args []string) error
	Token(ctx context.Context, args []string) error
	AddAccount(ctx context.Context) error
}

// runREPL reads one command per line from reader and dispatches it to a.
//
//	Not logged in:
//	  help, login, exit | quit
//
//	Logged in:
//	  publish             prompt for a media file, title and date
//	  unpublish <id>      remove an entry
//	  list                entries as the backend returns them
//	  home | archive      videos or images, newest first
//	  months [kind]       entries grouped by publish month
//	  token set|clear     manage the local contents API token
//	  account add         enroll an operator (identity gate)
//	  logout, exit | quit
//
// Handlers print their own errors; the loop keeps going. It returns on EOF,
// on a read error or on exit.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("porterias %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: publish, unpublish <id>, (l)ist, home, archive, months [image|video], token set|clear, account add, logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "publish":
			_ = a.Publish(ctx)

		case "unpublish":
			_ = a.Unpublish(ctx, args)

		case "l", "list":
			_ = a.List(ctx)

		case "home":
			_ = a.Home(ctx)

		case "archive":
			_ = a.Archive(ctx)

		case "months":
			_ = a.Months(ctx, args)

		case "token":
			_ = a.Token(ctx, args)

		case "account":
			if len(args) != 1 || args[0] != "add" {
				printlnFn("Usage: account add")
				continue
			}
			_ = a.AddAccount(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}

// Root greets the operator, asks for a login and runs the REPL.
func (a *App) Root(ctx context.Context) {
	a.println("Welcome to the porterias console (type 'help' for commands)")
	_ = a.Login(ctx)
	runREPL(ctx, a, a.getStatus, a.reader)
}
