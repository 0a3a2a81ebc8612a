package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atollmatch/atollmatch/pkg/app"
	"github.com/atollmatch/atollmatch/pkg/domain/topup"
	"github.com/atollmatch/atollmatch/webapi/middleware"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

var (
	errUsage = errors.New("invalid arguments")

	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	cyan   = color.New(color.FgCyan)
)

type command struct {
	name    string
	usage   string
	help    string
	minArgs int
	run     func(ctx context.Context, a *app.App, args []string, out io.Writer) error
}

var commands []command

func init() {
	commands = []command{
		{"balance", "balance <user_id>", "print the stored coin balance", 1, balance},
		{"history", "history <user_id> [limit]", "print the newest ledger entries", 1, history},
		{"reconcile", "reconcile <user_id>", "compare balance and ledger sum", 1, reconcile},
		{"approve", "approve <topup_id> <admin_id> [note]", "approve a pending top-up", 2, approve},
		{"reject", "reject <topup_id> <admin_id> [note]", "reject a pending top-up", 2, reject},
		{"pending", "pending", "list pending top-ups", 0, pending},
		{"pricing", "pricing", "print the pricing in force", 0, showPricing},
		{"token", "token <user_id> [admin]", "sign an API token", 1, token},
	}
}

func execute(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	name, rest := args[0], args[1:]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if len(rest) < c.minArgs {
			return fmt.Errorf("%w: usage: %s", errUsage, c.usage)
		}
		return c.run(ctx, a, rest, out)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, name)
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a UUID", errUsage, kind)
	}
	return id, nil
}

func balance(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	userID, err := parseID("user_id", args[0])
	if err != nil {
		return err
	}
	coins, err := a.LedgerService.Balance(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s balance: ", userID)
	green.Fprintf(out, "%d coins\n", coins) //nolint:errcheck
	return nil
}

func history(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	userID, err := parseID("user_id", args[0])
	if err != nil {
		return err
	}
	limit := 0
	if len(args) > 1 {
		if limit, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("%w: limit must be a number", errUsage)
		}
	}
	page, err := a.LedgerService.History(ctx, userID, limit, 0)
	if err != nil {
		return err
	}
	for _, e := range page.Entries {
		delta := green
		if e.Delta < 0 {
			delta = red
		}
		fmt.Fprintf(out, "%6d  %s  ", e.ID, e.CreatedAt.Format("2006-01-02 15:04"))
		delta.Fprintf(out, "%+6d", e.Delta) //nolint:errcheck
		fmt.Fprintf(out, "  %-8s %s\n", e.Reason, e.Description)
	}
	if len(page.Entries) == 0 {
		yellow.Fprintln(out, "no ledger entries") //nolint:errcheck
	}
	return nil
}

func reconcile(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	userID, err := parseID("user_id", args[0])
	if err != nil {
		return err
	}
	rec, err := a.LedgerService.Reconcile(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "balance=%d ledger_sum=%d entries=%d ", rec.Balance, rec.LedgerSum, rec.Entries)
	if rec.Consistent {
		green.Fprintln(out, "consistent") //nolint:errcheck
		return nil
	}
	red.Fprintln(out, "DRIFT") //nolint:errcheck
	return fmt.Errorf("balance drift of %d coins", rec.Balance-rec.LedgerSum)
}

func reviewArgs(args []string) (topupID, adminID uuid.UUID, note string, err error) {
	if topupID, err = parseID("topup_id", args[0]); err != nil {
		return
	}
	if adminID, err = parseID("admin_id", args[1]); err != nil {
		return
	}
	return topupID, adminID, strings.Join(args[2:], " "), nil
}

func approve(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	topupID, adminID, note, err := reviewArgs(args)
	if err != nil {
		return err
	}
	t, err := a.TopupService.Approve(ctx, topupID, adminID, note)
	if err != nil {
		return err
	}
	green.Fprintf(out, "approved %s: %d coins credited to %s\n", t.ID, *t.ComputedCoins, t.UserID) //nolint:errcheck
	return nil
}

func reject(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	topupID, adminID, note, err := reviewArgs(args)
	if err != nil {
		return err
	}
	t, err := a.TopupService.Reject(ctx, topupID, adminID, note)
	if err != nil {
		return err
	}
	yellow.Fprintf(out, "rejected %s\n", t.ID) //nolint:errcheck
	return nil
}

func pending(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
	ts, err := a.TopupService.ListByStatus(ctx, topup.StatusPending)
	if err != nil {
		return err
	}
	for _, t := range ts {
		cyan.Fprintf(out, "%s", t.ID) //nolint:errcheck
		fmt.Fprintf(out, "  user=%s amount=%s MVR slip=%s\n", t.UserID, t.AmountMvr, t.SlipEvidence)
	}
	if len(ts) == 0 {
		yellow.Fprintln(out, "no pending top-ups") //nolint:errcheck
	}
	return nil
}

func showPricing(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
	p, err := a.PricingService.GetPricing(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "coin price: %s MVR\npost: %d coins\nconnect: %d coins\n",
		p.CoinPriceMvr, p.CostPost, p.CostConnect)
	return nil
}

func token(_ context.Context, a *app.App, args []string, out io.Writer) error {
	userID, err := parseID("user_id", args[0])
	if err != nil {
		return err
	}
	if a.Config == nil || a.Config.Auth == nil || a.Config.Auth.Jwt == nil {
		return fmt.Errorf("%w: AUTH_JWT_SECRET is not configured", errUsage)
	}
	role := middleware.RoleUser
	if len(args) > 1 && args[1] == middleware.RoleAdmin {
		role = middleware.RoleAdmin
	}
	signed, err := middleware.NewToken(a.Config.Auth.Jwt, userID, role)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, signed)
	return nil
}
