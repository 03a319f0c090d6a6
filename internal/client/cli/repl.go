package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
	ListTrips(ctx context.Context) error
	ShowTrip(ctx context.Context, args []string) error
	OpenShared(ctx context.Context, args []string) error
	AddTrip(ctx context.Context) error
	EditNotes(ctx context.Context, args []string) error
	DeleteTrip(ctx context.Context, args []string) error
	AddExpense(ctx context.Context, args []string) error
	DeleteExpense(ctx context.Context, args []string) error
	AddPhotos(ctx context.Context, args []string) error
	DeletePhoto(ctx context.Context, args []string) error
	Profile(ctx context.Context, args []string) error
	Report(ctx context.Context) error
}

// runREPL reads commands from scanner until EOF, "exit" or "quit". Command
// errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("tk %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		if cmd == "help" {
			if a.isLoggedIn() {
				printlnFn("Available commands: trips, show, shared, addtrip, notes, deltrip, addexpense, delexpense, addphotos, delphoto, profile, report, logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}
			continue
		}

		if cmd != "login" && !a.isLoggedIn() {
			printlnFn("Please login first")
			continue
		}

		var err error
		switch cmd {
		case "login":
			err = a.Login(ctx, args)
		case "logout":
			err = a.Logout(ctx)
		case "l", "trips":
			err = a.ListTrips(ctx)
		case "show":
			err = a.ShowTrip(ctx, args)
		case "shared":
			err = a.OpenShared(ctx, args)
		case "addtrip":
			err = a.AddTrip(ctx)
		case "notes":
			err = a.EditNotes(ctx, args)
		case "deltrip":
			err = a.DeleteTrip(ctx, args)
		case "addexpense":
			err = a.AddExpense(ctx, args)
		case "delexpense":
			err = a.DeleteExpense(ctx, args)
		case "addphotos":
			err = a.AddPhotos(ctx, args)
		case "delphoto":
			err = a.DeletePhoto(ctx, args)
		case "profile":
			err = a.Profile(ctx, args)
		case "report":
			err = a.Report(ctx)
		default:
			printlnFn("Unknown command:", cmd)
		}
		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
