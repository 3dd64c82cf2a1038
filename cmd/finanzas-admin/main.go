// finanzas-admin is the operator's console for the account directory:
// registering accounts, inspecting the user base, changing roles and
// active flags, deleting accounts with their data, and checking the
// integrity of every finance store.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"finanzas/internal/config"
	"finanzas/internal/core"
	"finanzas/internal/directory"
	"finanzas/internal/log"
)

func main() {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	// Keep routine info lines out of command output; warnings and errors
	// still reach stderr.
	log.SetDefault(log.New(log.Config{Level: slog.LevelWarn}))

	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stdout)
		return errors.New("missing command")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	dir, err := directory.Open(cfg)
	if err != nil {
		return fmt.Errorf("open account directory: %w", err)
	}
	defer dir.Close()

	ctx := context.Background()

	switch args[0] {
	case "register":
		return register(ctx, dir, args[1:], stdin, stdout, stderr)
	case "list":
		return list(ctx, dir, stdout)
	case "stats":
		return stats(ctx, dir, stdout)
	case "set-role":
		return setRole(ctx, dir, args[1:], stdout, stderr)
	case "set-active":
		return setActive(ctx, dir, args[1:], stdout, stderr)
	case "delete":
		return deleteAccount(ctx, dir, args[1:], stdout, stderr)
	case "check":
		return check(ctx, dir, stdout)
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	}

	usage(stdout)
	return fmt.Errorf("unknown command %q", args[0])
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `Usage: finanzas-admin <command> [flags]

Commands:
  register    create an account (-name, -email, -password optional: prompts)
  list        list all accounts, newest registration first
  stats       directory-wide account statistics
  set-role    change an account's role (-id, -role standard|admin)
  set-active  activate or deactivate an account (-id, -active)
  delete      delete an account and all its financial data (-id)
  check       run an integrity check over every finance store`)
}

func register(ctx context.Context, dir *directory.Directory, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(stderr)
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Email (unique)")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *email == "" {
		fs.PrintDefaults()
		return errors.New("missing required flags: name, email")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}

	res := dir.Register(ctx, *name, *email, password)
	fmt.Fprintln(stdout, res.Message)
	if !res.OK {
		return errors.New("registration failed")
	}
	return nil
}

func list(ctx context.Context, dir *directory.Directory, stdout io.Writer) error {
	accounts, err := dir.ListAccounts(ctx, core.RoleAdmin)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%-5s %-20s %-30s %-9s %-8s %-20s %s\n",
		"ID", "NAME", "EMAIL", "ROLE", "ACTIVE", "REGISTERED", "LAST ACCESS")
	for _, a := range accounts {
		lastAccess := "never"
		if a.LastAccessAt != nil {
			lastAccess = a.LastAccessAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(stdout, "%-5d %-20s %-30s %-9s %-8t %-20s %s\n",
			a.ID, a.Name, a.Email, a.Role, a.Active,
			a.RegisteredAt.Format("2006-01-02 15:04:05"), lastAccess)
	}
	return nil
}

func stats(ctx context.Context, dir *directory.Directory, stdout io.Writer) error {
	s, err := dir.AdminStats(ctx, core.RoleAdmin)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Total accounts:      %d\n", s.TotalAccounts)
	fmt.Fprintf(stdout, "Active accounts:     %d\n", s.ActiveAccounts)
	fmt.Fprintf(stdout, "Inactive accounts:   %d\n", s.InactiveAccounts)
	fmt.Fprintf(stdout, "Admin accounts:      %d\n", s.AdminAccounts)
	fmt.Fprintf(stdout, "Registered (30d):    %d\n", s.RecentAccounts)
	return nil
}

func setRole(ctx context.Context, dir *directory.Directory, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("set-role", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.Int64("id", 0, "Account id")
	role := fs.String("role", "", "New role: standard or admin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 || *role == "" {
		fs.PrintDefaults()
		return errors.New("missing required flags: id, role")
	}

	res := dir.SetRole(ctx, core.RoleAdmin, *id, core.Role(*role))
	fmt.Fprintln(stdout, res.Message)
	if !res.OK {
		return errors.New("role change failed")
	}
	return nil
}

func setActive(ctx context.Context, dir *directory.Directory, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("set-active", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.Int64("id", 0, "Account id")
	active := fs.Bool("active", true, "true to activate, false to deactivate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		fs.PrintDefaults()
		return errors.New("missing required flag: id")
	}

	res := dir.SetActive(ctx, core.RoleAdmin, *id, *active)
	fmt.Fprintln(stdout, res.Message)
	if !res.OK {
		return errors.New("status change failed")
	}
	return nil
}

func deleteAccount(ctx context.Context, dir *directory.Directory, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.Int64("id", 0, "Account id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		fs.PrintDefaults()
		return errors.New("missing required flag: id")
	}

	res := dir.DeleteAccount(ctx, core.RoleAdmin, *id)
	fmt.Fprintln(stdout, res.Message)
	if !res.OK {
		return errors.New("account deletion failed")
	}
	return nil
}

func check(ctx context.Context, dir *directory.Directory, stdout io.Writer) error {
	checks, err := dir.CheckStores(ctx, core.RoleAdmin)
	if err != nil {
		return err
	}

	failures := 0
	for _, c := range checks {
		status := "ok"
		if !c.OK {
			status = "FAIL"
			failures++
		}
		fmt.Fprintf(stdout, "account %-5d %-5s %s\n", c.AccountID, status, c.Detail)
	}
	if failures > 0 {
		return fmt.Errorf("%d store(s) failed the integrity check", failures)
	}
	fmt.Fprintf(stdout, "%d store(s) checked\n", len(checks))
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal input (tests, pipes).
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
