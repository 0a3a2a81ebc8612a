package main

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/atollmatch/atollmatch/pkg/app"
	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/domain/user"
	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/atollmatch/atollmatch/pkg/testutils"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func newTestApp(t *testing.T) (*app.App, *gorm.DB) {
	t.Helper()
	uow, db := testutils.NewTestUoW(t)
	a := app.New(&config.Deps{
		Uow:    uow,
		Logger: testutils.DiscardLogger(),
		Config: &config.App{
			Auth:    &config.Auth{Jwt: &config.Jwt{Secret: "cli-secret", Expiry: time.Hour}},
			Pricing: &config.Pricing{RatePolicy: config.RatePolicyApproval},
		},
	})
	testutils.SeedPricing(t, db, "10", 2, 1)
	return a, db
}

func exec(t *testing.T, a *app.App, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := execute(testutils.Context(t), a, args, &out)
	return out.String(), err
}

func TestExecute_Balance(t *testing.T) {
	a, db := newTestApp(t)
	userID := testutils.SeedUser(t, db, user.StatusApproved, 12)

	out, err := exec(t, a, "balance", userID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "12 coins")
}

func TestExecute_HistoryAndReconcile(t *testing.T) {
	a, db := newTestApp(t)
	userID := testutils.SeedUser(t, db, user.StatusApproved, 6)

	out, err := exec(t, a, "history", userID.String(), "5")
	require.NoError(t, err)
	assert.Contains(t, out, "+6")
	assert.Contains(t, out, "OTHER")

	out, err = exec(t, a, "reconcile", userID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "consistent")

	require.NoError(t, db.Exec("UPDATE users SET coins = coins + 1 WHERE id = ?", userID).Error)
	out, err = exec(t, a, "reconcile", userID.String())
	assert.Error(t, err)
	assert.Contains(t, out, "DRIFT")
}

func TestExecute_ApproveAndReject(t *testing.T) {
	a, db := newTestApp(t)
	ctx := testutils.Context(t)
	member := testutils.SeedUser(t, db, user.StatusApproved, 0)
	admin := testutils.SeedUser(t, db, user.StatusApproved, 0)

	first, err := a.TopupService.Submit(ctx, member, dto.TopupSubmit{AmountMvr: decimal.NewFromInt(30), SlipEvidence: "a.jpg"})
	require.NoError(t, err)
	second, err := a.TopupService.Submit(ctx, member, dto.TopupSubmit{AmountMvr: decimal.NewFromInt(20), SlipEvidence: "b.jpg"})
	require.NoError(t, err)

	out, err := exec(t, a, "pending")
	require.NoError(t, err)
	assert.Contains(t, out, first.ID.String())
	assert.Contains(t, out, second.ID.String())

	out, err = exec(t, a, "approve", first.ID.String(), admin.String(), "bank", "ok")
	require.NoError(t, err)
	assert.Contains(t, out, "3 coins credited")
	assert.EqualValues(t, 3, testutils.Balance(t, db, member))

	_, err = exec(t, a, "approve", first.ID.String(), admin.String())
	assert.Error(t, err)

	out, err = exec(t, a, "reject", second.ID.String(), admin.String())
	require.NoError(t, err)
	assert.Contains(t, out, "rejected")

	out, err = exec(t, a, "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "no pending top-ups")
}

func TestExecute_PricingAndToken(t *testing.T) {
	a, _ := newTestApp(t)

	out, err := exec(t, a, "pricing")
	require.NoError(t, err)
	assert.Contains(t, out, "coin price: 10 MVR")
	assert.Contains(t, out, "post: 2 coins")

	out, err = exec(t, a, "token", uuid.NewString(), "admin")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "."), 3)
}

func TestExecute_Usage(t *testing.T) {
	a, _ := newTestApp(t)

	_, err := exec(t, a, "balance")
	assert.ErrorIs(t, err, errUsage)
	_, err = exec(t, a, "balance", "not-a-uuid")
	assert.ErrorIs(t, err, errUsage)
	_, err = exec(t, a, "launch")
	assert.ErrorIs(t, err, errUsage)

	var out bytes.Buffer
	usage(&out)
	assert.Contains(t, out.String(), "approve <topup_id> <admin_id> [note]")
}
