package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/keeper-books/keeper_backend/config"
	"github.com/keeper-books/keeper_backend/models"
	"github.com/keeper-books/keeper_backend/utils"
	"github.com/shopspring/decimal"
)

// Ledger lifecycle and balance sheet regression harness.
//
// Usage (requires Docker):
//   INTEGRATION_TESTS=1 go test ./models -run Ledger -v

func setupIntegration(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "keeper_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.MigrateModels(); err != nil {
		t.Fatalf("MigrateModels: %v", err)
	}

	ctx := context.Background()
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUsernameInContext(ctx, "test@local")

	if err := models.SeedDefaultData(ctx); err != nil {
		t.Fatalf("SeedDefaultData: %v", err)
	}
	return ctx
}

func createTestAccount(t *testing.T, ctx context.Context, name, number string, opening string) *models.TransactionAccount {
	t.Helper()
	accountTypes, err := models.GetTransactionAccountTypes(ctx)
	if err != nil {
		t.Fatalf("GetTransactionAccountTypes: %v", err)
	}
	currencies, err := models.GetTransactionCurrencies(ctx)
	if err != nil {
		t.Fatalf("GetTransactionCurrencies: %v", err)
	}
	openingBalance, err := utils.ParseDecimal(opening)
	if err != nil {
		t.Fatalf("ParseDecimal(%q): %v", opening, err)
	}
	account, err := models.CreateTransactionAccount(ctx, &models.NewTransactionAccount{
		AccountName:    name,
		AccountNumber:  number,
		OpeningBalance: openingBalance,
		AccountTypeId:  accountTypes[0].ID,
		CurrencyId:     currencies[0].ID,
	})
	if err != nil {
		t.Fatalf("CreateTransactionAccount(%s): %v", name, err)
	}
	return account
}

func TestLedgerLifecycleAndBalanceSheet(t *testing.T) {
	ctx := setupIntegration(t)

	cash := createTestAccount(t, ctx, "Cash", "1100", "0")
	receivables := createTestAccount(t, ctx, "Accounts Receivable", "1200", "0")
	sales := createTestAccount(t, ctx, "Sales", "4100", "0")

	txnDate := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	// Unbalanced draft: 100 debit vs 90 credit.
	txn, err := models.CreateAccountTransaction(ctx, &models.NewAccountTransaction{
		TransactionDate: txnDate,
		Description:     "unbalanced sale",
		Entries: []models.NewTransactionEntry{
			{TransactionAccountId: cash.ID, EntryType: models.EntryDebit, EntryAmount: decimal.RequireFromString("100.00")},
			{TransactionAccountId: sales.ID, EntryType: models.EntryCredit, EntryAmount: decimal.RequireFromString("90.00")},
		},
	})
	if err != nil {
		t.Fatalf("CreateAccountTransaction: %v", err)
	}
	if txn.Status != models.StatusDraft {
		t.Fatalf("new transaction should be Draft, got %s", txn.Status)
	}
	// A blank reference number is assigned from the redis sequence.
	if !strings.HasPrefix(txn.ReferenceNumber, "TXN-") {
		t.Fatalf("blank reference number should be sequenced, got %q", txn.ReferenceNumber)
	}

	// Lifecycle order is enforced: cannot post a draft directly.
	var transitionErr *models.InvalidTransitionError
	if _, err := models.PostAccountTransaction(ctx, txn.ID); !errors.As(err, &transitionErr) {
		t.Fatalf("posting a draft should be an invalid transition, got %v", err)
	}

	if _, err := models.ProposeAccountTransaction(ctx, txn.ID); err != nil {
		t.Fatalf("ProposeAccountTransaction: %v", err)
	}

	// Posting an unbalanced transaction fails with the exact discrepancy and
	// leaves the state untouched.
	var unbalancedErr *models.UnbalancedTransactionError
	if _, err := models.PostAccountTransaction(ctx, txn.ID); !errors.As(err, &unbalancedErr) {
		t.Fatalf("expected UnbalancedTransactionError, got %v", err)
	}
	if unbalancedErr.Discrepancy().String() != "10" {
		t.Fatalf("discrepancy should be 10, got %s", unbalancedErr.Discrepancy().String())
	}
	after, err := models.GetAccountTransaction(ctx, txn.ID)
	if err != nil {
		t.Fatalf("GetAccountTransaction: %v", err)
	}
	if after.Status != models.StatusProposed {
		t.Fatalf("failed post must not advance status, got %s", after.Status)
	}

	// Balance the transaction (1.50 + 98.5 on varying precision) and post.
	if _, err := models.AddTransactionEntry(ctx, txn.ID, &models.NewTransactionEntry{
		TransactionAccountId: receivables.ID,
		EntryType:            models.EntryCredit,
		EntryAmount:          decimal.RequireFromString("10.00"),
	}); err != nil {
		t.Fatalf("AddTransactionEntry: %v", err)
	}
	posted, err := models.PostAccountTransaction(ctx, txn.ID)
	if err != nil {
		t.Fatalf("PostAccountTransaction: %v", err)
	}
	if posted.Status != models.StatusPosted {
		t.Fatalf("expected Posted, got %s", posted.Status)
	}
	for _, entry := range posted.Entries {
		if entry.Status != models.StatusPosted {
			t.Fatalf("entry %d should mirror Posted, got %s", entry.ID, entry.Status)
		}
	}

	// Posted transactions are frozen.
	if _, err := models.AddTransactionEntry(ctx, txn.ID, &models.NewTransactionEntry{
		TransactionAccountId: cash.ID,
		EntryType:            models.EntryDebit,
		EntryAmount:          decimal.NewFromInt(1),
	}); err == nil {
		t.Fatal("adding an entry to a posted transaction must fail")
	}

	if _, err := models.ApproveAccountTransaction(ctx, txn.ID); err != nil {
		t.Fatalf("ApproveAccountTransaction: %v", err)
	}

	// Ledger balance: cash debit 100 as of transaction date, zero before it.
	balance, err := models.AccountLedgerBalance(ctx, cash.ID, txnDate)
	if err != nil {
		t.Fatalf("AccountLedgerBalance: %v", err)
	}
	if balance.String() != "100" {
		t.Fatalf("cash balance should be 100, got %s", balance.String())
	}
	before, err := models.AccountLedgerBalance(ctx, cash.ID, txnDate.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("AccountLedgerBalance(before): %v", err)
	}
	if !before.IsZero() {
		t.Fatalf("balance before the transaction date should be 0, got %s", before.String())
	}
}

func TestSoftDeleteExcludesFromBalances(t *testing.T) {
	ctx := setupIntegration(t)

	cash := createTestAccount(t, ctx, "Petty Cash", "1110", "0")
	sales := createTestAccount(t, ctx, "Service Revenue", "4200", "0")
	txnDate := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)

	txn, err := models.CreateAccountTransaction(ctx, &models.NewAccountTransaction{
		TransactionDate: txnDate,
		Entries: []models.NewTransactionEntry{
			{TransactionAccountId: cash.ID, EntryType: models.EntryDebit, EntryAmount: decimal.NewFromInt(250)},
			{TransactionAccountId: sales.ID, EntryType: models.EntryCredit, EntryAmount: decimal.NewFromInt(250)},
		},
	})
	if err != nil {
		t.Fatalf("CreateAccountTransaction: %v", err)
	}
	if _, err := models.ProposeAccountTransaction(ctx, txn.ID); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if _, err := models.PostAccountTransaction(ctx, txn.ID); err != nil {
		t.Fatalf("post: %v", err)
	}

	deleted, err := models.DeleteAccountTransaction(ctx, txn.ID)
	if err != nil {
		t.Fatalf("DeleteAccountTransaction: %v", err)
	}
	if !deleted.IsDeleted() {
		t.Fatal("transaction should be marked deleted")
	}
	// Deletion is idempotent.
	if _, err := models.DeleteAccountTransaction(ctx, txn.ID); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}

	// Deleted rows keep the last status they reached.
	entries, err := models.FindEntriesByTransaction(ctx, txn.ID, true)
	if err != nil {
		t.Fatalf("FindEntriesByTransaction: %v", err)
	}
	for _, entry := range entries {
		if entry.Status != models.StatusPosted || !entry.IsDeleted() {
			t.Fatalf("entry %d should stay Posted and deleted, got %s deleted=%v", entry.ID, entry.Status, entry.IsDeleted())
		}
	}

	balance, err := models.AccountLedgerBalance(ctx, cash.ID, txnDate)
	if err != nil {
		t.Fatalf("AccountLedgerBalance: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("deleted transaction must not count, got balance %s", balance.String())
	}
}

func TestBalanceSheetAggregation(t *testing.T) {
	ctx := setupIntegration(t)

	cash := createTestAccount(t, ctx, "Cash On Hand", "1100", "500")
	receivables := createTestAccount(t, ctx, "Trade Receivables", "1200", "300")

	// Current Assets composed of two account-bound leaves.
	parent, err := models.CreateBalanceSheetItemType(ctx, &models.NewBalanceSheetItemType{
		ItemSequence: 1, ItemNumber: "CA", ShortDescription: "Current Assets",
	})
	if err != nil {
		t.Fatalf("create parent item: %v", err)
	}
	if _, err := models.CreateBalanceSheetItemType(ctx, &models.NewBalanceSheetItemType{
		ItemSequence: 1, ItemNumber: "CA.1", ShortDescription: "Cash",
		ParentItemTypeId: parent.ID, TransactionAccountId: cash.ID,
	}); err != nil {
		t.Fatalf("create cash item: %v", err)
	}
	if _, err := models.CreateBalanceSheetItemType(ctx, &models.NewBalanceSheetItemType{
		ItemSequence: 2, ItemNumber: "CA.2", ShortDescription: "Receivables",
		ParentItemTypeId: parent.ID, TransactionAccountId: receivables.ID,
	}); err != nil {
		t.Fatalf("create receivables item: %v", err)
	}

	asOf := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	value, err := models.ComputeItemValue(ctx, parent.ID, asOf)
	if err != nil {
		t.Fatalf("ComputeItemValue: %v", err)
	}
	if value.String() != "800" {
		t.Fatalf("Current Assets should be 500+300=800, got %s", value.String())
	}

	// Plain leaf resolved from recorded values: most recent on or before asOf.
	goodwill, err := models.CreateBalanceSheetItemType(ctx, &models.NewBalanceSheetItemType{
		ItemSequence: 9, ItemNumber: "GW", ShortDescription: "Goodwill",
	})
	if err != nil {
		t.Fatalf("create goodwill item: %v", err)
	}
	var noValue *models.NoValueError
	if _, err := models.ComputeItemValue(ctx, goodwill.ID, asOf); !errors.As(err, &noValue) {
		t.Fatalf("expected NoValueError, got %v", err)
	}
	for _, v := range []struct {
		date   time.Time
		amount int64
	}{
		{time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), 100},
		{time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC), 120},
		{time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC), 999},
	} {
		if _, err := models.CreateBalanceSheetItemValue(ctx, &models.NewBalanceSheetItemValue{
			ItemTypeId:    goodwill.ID,
			EffectiveDate: v.date,
			ItemAmount:    decimal.NewFromInt(v.amount),
		}); err != nil {
			t.Fatalf("CreateBalanceSheetItemValue: %v", err)
		}
	}
	value, err = models.ComputeItemValue(ctx, goodwill.ID, asOf)
	if err != nil {
		t.Fatalf("ComputeItemValue(goodwill): %v", err)
	}
	if value.String() != "120" {
		t.Fatalf("as-of June the May value 120 applies, got %s", value.String())
	}

	// The direct latest-as-of lookup agrees with the aggregation.
	latest, err := models.LatestItemValueAsOf(ctx, goodwill.ID, asOf)
	if err != nil {
		t.Fatalf("LatestItemValueAsOf: %v", err)
	}
	if latest == nil || latest.ItemAmount.String() != "120" {
		t.Fatalf("latest value as of June should be 120, got %+v", latest)
	}
	none, err := models.LatestItemValueAsOf(ctx, goodwill.ID, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("LatestItemValueAsOf(early): %v", err)
	}
	if none != nil {
		t.Fatalf("no value should exist before the first effective date, got %+v", none)
	}

	report, err := models.BuildBalanceSheetReport(ctx, asOf)
	if err != nil {
		t.Fatalf("BuildBalanceSheetReport: %v", err)
	}
	found := false
	for _, row := range report.Rows {
		if row.ItemTypeId == parent.ID {
			found = true
			if row.Value == nil || row.Value.String() != "800" {
				t.Fatalf("report row for Current Assets should be 800, got %v", row.Value)
			}
		}
	}
	if !found {
		t.Fatal("Current Assets row missing from report")
	}
}

func TestEntryWritesHeldOffByTransactionLock(t *testing.T) {
	ctx := setupIntegration(t)

	cash := createTestAccount(t, ctx, "Lockbox Cash", "1120", "0")
	sales := createTestAccount(t, ctx, "Lockbox Revenue", "4300", "0")

	txn, err := models.CreateAccountTransaction(ctx, &models.NewAccountTransaction{
		TransactionDate: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		Entries: []models.NewTransactionEntry{
			{TransactionAccountId: cash.ID, EntryType: models.EntryDebit, EntryAmount: decimal.NewFromInt(40)},
			{TransactionAccountId: sales.ID, EntryType: models.EntryCredit, EntryAmount: decimal.NewFromInt(40)},
		},
	})
	if err != nil {
		t.Fatalf("CreateAccountTransaction: %v", err)
	}

	// Hold the per-transaction lock the way a concurrent post does, then try
	// to mutate the entry set. Every entry write must be refused so a posting
	// writer can never validate a balance that another writer is changing.
	locker := config.GetRedisLock()
	if locker == nil {
		t.Fatal("redis lock client not initialized")
	}
	lock, err := locker.Obtain(ctx, fmt.Sprintf("ledger-tx:%d", txn.ID), 30*time.Second, nil)
	if err != nil {
		t.Fatalf("obtain lock: %v", err)
	}

	extra := &models.NewTransactionEntry{
		TransactionAccountId: cash.ID,
		EntryType:            models.EntryDebit,
		EntryAmount:          decimal.NewFromInt(5),
	}
	if _, err := models.AddTransactionEntry(ctx, txn.ID, extra); err == nil {
		t.Fatal("adding an entry while the transaction lock is held must fail")
	}
	if _, err := models.UpdateTransactionEntry(ctx, txn.Entries[0].ID, extra); err == nil {
		t.Fatal("updating an entry while the transaction lock is held must fail")
	}
	if _, err := models.RemoveTransactionEntry(ctx, txn.Entries[0].ID); err == nil {
		t.Fatal("removing an entry while the transaction lock is held must fail")
	}
	entries, err := models.FindEntriesByTransaction(ctx, txn.ID, true)
	if err != nil {
		t.Fatalf("FindEntriesByTransaction: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entry set must be untouched while locked, got %d entries", len(entries))
	}

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release lock: %v", err)
	}
	if _, err := models.AddTransactionEntry(ctx, txn.ID, extra); err != nil {
		t.Fatalf("entry write after the lock is released should succeed: %v", err)
	}
}

func TestHierarchyCycleRejected(t *testing.T) {
	ctx := setupIntegration(t)

	parent := createTestAccount(t, ctx, "Assets Root", "1000", "0")
	child := createTestAccount(t, ctx, "Bank", "1010", "0")

	if _, err := models.ReparentTransactionAccount(ctx, child.ID, parent.ID); err != nil {
		t.Fatalf("reparent child under parent: %v", err)
	}
	// Moving the parent under its own descendant must fail and leave the
	// tree untouched.
	if _, err := models.ReparentTransactionAccount(ctx, parent.ID, child.ID); !errors.Is(err, models.ErrHierarchyCycle) {
		t.Fatalf("expected ErrHierarchyCycle, got %v", err)
	}
	fetched, err := models.GetTransactionAccount(ctx, parent.ID)
	if err != nil {
		t.Fatalf("GetTransactionAccount: %v", err)
	}
	if fetched.ParentAccountId != 0 {
		t.Fatalf("parent should remain a root, got parent id %d", fetched.ParentAccountId)
	}
}

/* docker harness */

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("keeper-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("keeper-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=keeper_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
