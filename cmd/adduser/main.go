package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"expense-tracker/internal/backend"
	"expense-tracker/internal/config"
	"expense-tracker/internal/repository/documents"
	"expense-tracker/internal/service"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Email address")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dbPath := fs.String("db", "", "Path to a sqlite store (overrides the configured store)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		fmt.Fprintln(stdout, "Usage: adduser -email <email> [-password <password>] [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}

	password, confirm := *passwordFlag, *passwordFlag
	if password == "" {
		prompt := newPrompter(stdin)
		var err error
		fmt.Fprint(stdout, "Password: ")
		if password, err = prompt.readPassword(); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)

		fmt.Fprint(stdout, "Confirm password: ")
		if confirm, err = prompt.readPassword(); err != nil {
			return fmt.Errorf("failed to read password confirmation: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *dbPath != "" {
		cfg.Store.Driver = config.DriverSQLite
		cfg.Store.SQLitePath = *dbPath
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetLevel(logrus.WarnLevel)

	ctx := context.Background()
	store, err := backend.OpenStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close(ctx)

	users := service.NewUserService(
		documents.NewUserRepository(store),
		documents.NewExpenseRepository(store, logger),
		logger,
	)

	user, err := users.Register(ctx, *email, password, confirm)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			return fmt.Errorf("user %s already exists", *email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %s\n", user.Email, user.ID)
	return nil
}

type prompter struct {
	stdin  io.Reader
	reader *bufio.Reader
}

func newPrompter(stdin io.Reader) *prompter {
	return &prompter{stdin: stdin, reader: bufio.NewReader(stdin)}
}

func (p *prompter) readPassword() (string, error) {
	if f, ok := p.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// non-terminal input, e.g. pipes
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
