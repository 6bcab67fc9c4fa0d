// Command main provides operator utilities for hearth accounts.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"hearth/internal/config"
	"hearth/internal/database"
	"hearth/internal/repository"

	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

type dbOpener func() (*gorm.DB, error)

func connect() (*gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return database.Connect(cfg)
}

func main() {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))
	newApp(connect, os.Stdout).RunAndExitOnError()
}

func newApp(open dbOpener, out io.Writer) *cli.App {
	app := &cli.App{
		Name:      "hearth-admin",
		Usage:     "operator commands for hearth accounts",
		Writer:    out,
		ErrWriter: out,
	}
	app.Commands = []*cli.Command{
		{
			Name:      "promote",
			Usage:     "grant admin rights to a user",
			ArgsUsage: "<user_id>",
			Action:    setAdminAction(open, true),
		},
		{
			Name:      "demote",
			Usage:     "revoke admin rights from a user",
			ArgsUsage: "<user_id>",
			Action:    setAdminAction(open, false),
		},
		{
			Name:      "suspend",
			Usage:     "stop a user from posting and moderating",
			ArgsUsage: "<user_id>",
			Action:    setSuspendedAction(open, true),
		},
		{
			Name:      "unsuspend",
			Usage:     "lift a suspension",
			ArgsUsage: "<user_id>",
			Action:    setSuspendedAction(open, false),
		},
		{
			Name:   "list-admins",
			Usage:  "list all admins",
			Action: listAdminsAction(open),
		},
		{
			Name:   "prune-keys",
			Usage:  "delete expired forgot-password keys",
			Action: pruneKeysAction(open),
		},
	}
	return app
}

func userArg(cctx *cli.Context) (uint, error) {
	if cctx.NArg() != 1 {
		return 0, cli.Exit(fmt.Sprintf("usage: %s %s", cctx.Command.FullName(), cctx.Command.ArgsUsage), 1)
	}
	id, err := strconv.ParseUint(cctx.Args().First(), 10, 32)
	if err != nil || id == 0 {
		return 0, cli.Exit(fmt.Sprintf("invalid user id %q", cctx.Args().First()), 1)
	}
	return uint(id), nil
}

func setAdminAction(open dbOpener, admin bool) cli.ActionFunc {
	return func(cctx *cli.Context) error {
		id, err := userArg(cctx)
		if err != nil {
			return err
		}
		db, err := open()
		if err != nil {
			return err
		}
		users := repository.NewUserRepository(db)
		user, err := users.GetByID(cctx.Context, id)
		if err != nil {
			return err
		}
		if user.IsAdmin == admin {
			fmt.Fprintf(cctx.App.Writer, "%s (ID: %d) unchanged, admin=%v\n", user.Username, user.ID, admin)
			return nil
		}
		if err := users.SetAdmin(cctx.Context, id, admin); err != nil {
			return err
		}
		fmt.Fprintf(cctx.App.Writer, "%s (ID: %d) admin=%v\n", user.Username, user.ID, admin)
		return nil
	}
}

func setSuspendedAction(open dbOpener, suspended bool) cli.ActionFunc {
	return func(cctx *cli.Context) error {
		id, err := userArg(cctx)
		if err != nil {
			return err
		}
		db, err := open()
		if err != nil {
			return err
		}
		users := repository.NewUserRepository(db)
		user, err := users.GetByID(cctx.Context, id)
		if err != nil {
			return err
		}
		if err := users.SetSuspended(cctx.Context, id, suspended); err != nil {
			return err
		}
		fmt.Fprintf(cctx.App.Writer, "%s (ID: %d) suspended=%v\n", user.Username, user.ID, suspended)
		return nil
	}
}

func listAdminsAction(open dbOpener) cli.ActionFunc {
	return func(cctx *cli.Context) error {
		db, err := open()
		if err != nil {
			return err
		}
		admins, err := repository.NewUserRepository(db).ListAdmins(cctx.Context)
		if err != nil {
			return err
		}
		if len(admins) == 0 {
			fmt.Fprintln(cctx.App.Writer, "No admins found")
			return nil
		}
		for _, admin := range admins {
			fmt.Fprintf(cctx.App.Writer, "ID: %d | Username: %s\n", admin.ID, admin.Username)
		}
		return nil
	}
}

func pruneKeysAction(open dbOpener) cli.ActionFunc {
	return func(cctx *cli.Context) error {
		db, err := open()
		if err != nil {
			return err
		}
		n, err := repository.NewForgotPasswordKeyRepository(db).DeleteExpired(cctx.Context, time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Fprintf(cctx.App.Writer, "Deleted %d expired keys\n", n)
		return nil
	}
}
