package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	fail     error

	calls []string
}

func (f *fakeExec) record(name string, args ...string) error {
	f.calls = append(f.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	return f.fail
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(ctx context.Context, args []string) error {
	f.loggedIn = true
	return f.record("login", args...)
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) ListTrips(ctx context.Context) error                    { return f.record("trips") }
func (f *fakeExec) ShowTrip(ctx context.Context, args []string) error      { return f.record("show", args...) }
func (f *fakeExec) OpenShared(ctx context.Context, args []string) error    { return f.record("shared", args...) }
func (f *fakeExec) AddTrip(ctx context.Context) error                      { return f.record("addtrip") }
func (f *fakeExec) EditNotes(ctx context.Context, args []string) error     { return f.record("notes", args...) }
func (f *fakeExec) DeleteTrip(ctx context.Context, args []string) error    { return f.record("deltrip", args...) }
func (f *fakeExec) AddExpense(ctx context.Context, args []string) error    { return f.record("addexpense", args...) }
func (f *fakeExec) DeleteExpense(ctx context.Context, args []string) error { return f.record("delexpense", args...) }
func (f *fakeExec) AddPhotos(ctx context.Context, args []string) error     { return f.record("addphotos", args...) }
func (f *fakeExec) DeletePhoto(ctx context.Context, args []string) error   { return f.record("delphoto", args...) }
func (f *fakeExec) Profile(ctx context.Context, args []string) error       { return f.record("profile", args...) }
func (f *fakeExec) Report(ctx context.Context) error                       { return f.record("report") }

func captureOutput(t *testing.T) *strings.Builder {
	t.Helper()
	var out strings.Builder
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) { return fmt.Fprintln(&out, a...) }
	t.Cleanup(func() { printlnFn = origPrint })
	return &out
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	out := captureOutput(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"trips",
		"login u1 a@b.c",
		"help",
		"l",
		"show t1",
		"shared t2",
		"addtrip",
		"notes t1",
		"addexpense t1",
		"delexpense e1",
		"addphotos t1 a.jpg b.jpg",
		"delphoto p1",
		"profile name Ann",
		"report",
		"deltrip t1",
		"foobar",
		"logout",
		"exit",
		"trips",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewScanner(input))

	assert.Equal(t, []string{
		"login u1 a@b.c",
		"trips",
		"show t1",
		"shared t2",
		"addtrip",
		"notes t1",
		"addexpense t1",
		"delexpense e1",
		"addphotos t1 a.jpg b.jpg",
		"delphoto p1",
		"profile name Ann",
		"report",
		"deltrip t1",
		"logout",
	}, exec.calls)

	text := out.String()
	assert.Contains(t, text, "Available commands: login, exit")
	assert.Contains(t, text, "Please login first")
	assert.Contains(t, text, "Unknown command: foobar")
	assert.Contains(t, text, "Bye!")
}

func TestRunREPL_ErrorsAreReported(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{loggedIn: true, fail: errors.New("boom")}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewScanner(strings.NewReader("trips\n\nquit\n")))

	assert.Equal(t, []string{"trips"}, exec.calls)
	assert.Contains(t, out.String(), "Error: boom")
}

func TestRunREPL_StopsAtEOF(t *testing.T) {
	captureOutput(t)

	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewScanner(strings.NewReader("trips")))

	assert.Equal(t, []string{"trips"}, exec.calls)
}
