package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/devauth"
	"github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/MrEthical07/goSession/restclient"
	"golang.org/x/term"
)

func cmdLogin(ctx context.Context, e *env, args []string, in *console, stdout io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	principal := fs.String("u", "", "username or email")
	secret := fs.String("p", "", "password; prompted when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *principal == "" {
		*principal = in.prompt("usuário: ")
	}
	if *secret == "" {
		*secret = in.secret()
	}

	return printResult(stdout, e.manager.Login(ctx, *principal, *secret))
}

func cmdRegister(ctx context.Context, e *env, args []string, in *console, stdout io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email")
	secret := fs.String("p", "", "password; prompted when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *secret == "" {
		*secret = in.secret()
	}

	return printResult(stdout, e.manager.Register(ctx, *name, *email, *secret))
}

func cmdStatus(ctx context.Context, e *env, stdout io.Writer) error {
	res := e.manager.Resolve(ctx)
	if !res.Authenticated() {
		fmt.Fprintln(stdout, "not authenticated")
		return nil
	}
	u := res.Identity
	fmt.Fprintf(stdout, "authenticated as %s <%s> id=%s role=%s (source: %s)\n",
		u.DisplayName, u.Email, u.ID, u.Role, res.Source)
	return nil
}

func cmdRefresh(ctx context.Context, e *env, stdout io.Writer) error {
	if !e.manager.Refresh(ctx) {
		return fmt.Errorf("refresh: %w", errFailed)
	}
	fmt.Fprintln(stdout, "credential refreshed")
	return nil
}

func cmdCall(ctx context.Context, e *env, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("call needs exactly one path")
	}
	client, err := restclient.New(e.apiURL, e.manager, restclient.WithTimeout(e.cfg.httpTimeout()))
	if err != nil {
		return err
	}

	var body json.RawMessage
	if err := client.Get(ctx, args[0], nil, &body); err != nil {
		drainEvents(e, stdout)
		return err
	}
	fmt.Fprintln(stdout, string(body))
	return nil
}

func cmdMetrics(e *env, stdout io.Writer) error {
	_, err := io.WriteString(stdout, prometheus.NewExporter(e.manager).Render())
	return err
}

// cmdDemo walks through the session lifecycle against the in-process stack.
func cmdDemo(ctx context.Context, e *env, stdout io.Writer) error {
	fmt.Fprintln(stdout, "== login with a wrong password")
	_ = printResult(stdout, e.manager.Login(ctx, "admin", "wrong"))

	fmt.Fprintln(stdout, "== login as admin")
	if err := printResult(stdout, e.manager.Login(ctx, "admin", devauth.DemoAccounts["admin"])); err != nil {
		return err
	}
	_ = cmdStatus(ctx, e, stdout)

	fmt.Fprintln(stdout, "== protected call")
	if err := cmdCall(ctx, e, []string{"/admin"}, stdout); err != nil {
		return err
	}

	fmt.Fprintln(stdout, "== update display name")
	name := "Presidente"
	e.manager.UpdateIdentity(ctx, goSession.IdentityPatch{DisplayName: &name})
	_ = cmdStatus(ctx, e, stdout)

	fmt.Fprintln(stdout, "== switch to the regular user and call an admin endpoint")
	if err := printResult(stdout, e.manager.Login(ctx, "user", devauth.DemoAccounts["user"])); err != nil {
		return err
	}
	if err := cmdCall(ctx, e, []string{"/admin"}, stdout); err != nil {
		fmt.Fprintln(stdout, "call failed:", err)
	}
	_ = cmdStatus(ctx, e, stdout)

	fmt.Fprintln(stdout, "== metrics")
	return cmdMetrics(e, stdout)
}

func printResult(stdout io.Writer, res goSession.Result) error {
	if !res.Success {
		fmt.Fprintln(stdout, "erro:", res.Error)
		return errFailed
	}
	fmt.Fprintf(stdout, "ok: %s (%s)\n", res.Identity.DisplayName, res.Identity.Role)
	return nil
}

func drainEvents(e *env, stdout io.Writer) {
	for {
		select {
		case ev := <-e.events.Events():
			fmt.Fprintf(stdout, "session ended: %s (user %s)\n", ev.Reason, ev.UserID)
		default:
			return
		}
	}
}

// console reads prompted input; one buffered reader serves every prompt so
// piped input is not lost between reads.
type console struct {
	raw   io.Reader
	lines *bufio.Reader
	out   io.Writer
}

func newConsole(stdin io.Reader, stdout io.Writer) *console {
	return &console{raw: stdin, lines: bufio.NewReader(stdin), out: stdout}
}

func (c *console) prompt(label string) string {
	fmt.Fprint(c.out, label)
	line, _ := c.lines.ReadString('\n')
	return strings.TrimSpace(line)
}

// secret hides input on a terminal and falls back to a plain line read.
func (c *console) secret() string {
	if f, ok := c.raw.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(c.out, "senha: ")
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.out)
		if err == nil {
			return string(secret)
		}
	}
	return c.prompt("senha: ")
}
