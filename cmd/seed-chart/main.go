package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/keeper-books/keeper_backend/config"
	"github.com/keeper-books/keeper_backend/models"
	"github.com/keeper-books/keeper_backend/utils"
)

// Seeds the reference data, the default balance sheet layout and, with
// -chart, a starter chart of accounts bound to the layout.
func main() {
	withChart := flag.Bool("chart", false, "Also create a starter chart of accounts")
	currencyCode := flag.String("currency", "USD", "Currency code for seeded accounts")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	if err := models.MigrateModels(); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	ctx = utils.SetUserIdInContext(ctx, 0)
	ctx = utils.SetUsernameInContext(ctx, "SeedChart")

	if err := models.SeedDefaultData(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("reference data and balance sheet layout seeded")

	if !*withChart {
		return
	}

	currencies, err := models.GetTransactionCurrencies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list currencies: %v\n", err)
		os.Exit(1)
	}
	currencyId := 0
	for _, currency := range currencies {
		if strings.EqualFold(currency.Code, *currencyCode) {
			currencyId = currency.ID
			break
		}
	}
	if currencyId == 0 {
		fmt.Fprintf(os.Stderr, "currency %q not found; create it first\n", *currencyCode)
		os.Exit(1)
	}

	accountTypes, err := models.GetTransactionAccountTypes(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list account types: %v\n", err)
		os.Exit(1)
	}
	typeByName := make(map[string]int, len(accountTypes))
	for _, accountType := range accountTypes {
		typeByName[accountType.Name] = accountType.ID
	}

	chart := []struct {
		number   string
		name     string
		typeName string
		parent   string
	}{
		{"1000", "Assets", "Asset", ""},
		{"1100", "Cash", "Asset", "1000"},
		{"1200", "Accounts Receivable", "Asset", "1000"},
		{"2000", "Liabilities", "Liability", ""},
		{"2100", "Accounts Payable", "Liability", "2000"},
		{"3000", "Equity", "Equity", ""},
		{"4000", "Revenue", "Revenue", ""},
		{"5000", "Expenses", "Expense", ""},
	}
	createdByNumber := make(map[string]int, len(chart))
	for _, line := range chart {
		parentId := 0
		if line.parent != "" {
			parentId = createdByNumber[line.parent]
		}
		account, err := models.CreateTransactionAccount(ctx, &models.NewTransactionAccount{
			AccountName:     line.name,
			AccountNumber:   line.number,
			ParentAccountId: parentId,
			AccountTypeId:   typeByName[line.typeName],
			CurrencyId:      currencyId,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create account %s: %v\n", line.name, err)
			os.Exit(1)
		}
		createdByNumber[line.number] = account.ID
		fmt.Printf("created account %s %s (id %d)\n", line.number, line.name, account.ID)
	}
}
