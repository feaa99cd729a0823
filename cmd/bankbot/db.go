package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bankbot/internal/store"
)

var transactionLimit int

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the profile database",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the schema and the shared recipient, vendor and depositor accounts",
	Args:  cobra.NoArgs,
	RunE:  dbInit,
}

var dbPopulateCmd = &cobra.Command{
	Use:   "populate <session>",
	Short: "Create (or show) the demo profile of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  dbPopulate,
}

var dbTransactionsCmd = &cobra.Command{
	Use:   "transactions <session>",
	Short: "Show a session's most recent transactions",
	Args:  cobra.ExactArgs(1),
	RunE:  dbTransactions,
}

func dbInit(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	populated, err := s.GeneralAccountsPopulated(ctx)
	if err != nil {
		return err
	}
	if !populated {
		if err := s.AddGeneralAccounts(ctx); err != nil {
			return err
		}
	}
	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s Profile database ready at %s (driver %s, schema v%d)\n",
		color.GreenString("✓"), s.Path(), s.Driver(), version)
	return nil
}

func dbPopulate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	session := args[0]
	existed, err := s.SessionExists(ctx, session)
	if err != nil {
		return err
	}
	account, err := s.PopulateSession(ctx, session)
	if err != nil {
		return err
	}
	if existed {
		fmt.Printf("%s Session %s already has a profile\n", color.YellowString("!"), session)
	} else {
		fmt.Printf("%s Created profile for session %s\n", color.GreenString("✓"), session)
	}

	currency, err := s.Currency(ctx, session)
	if err != nil {
		return err
	}
	balance, err := s.AccountBalance(ctx, session)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s (%s)\n", color.CyanString("Account:"), account.Number(), account.HolderName)
	fmt.Printf("%s %s%.2f\n", color.CyanString("Balance:"), currency, balance)

	cards, err := s.ListCreditCards(ctx, session)
	if err != nil {
		return err
	}
	fmt.Println(color.CyanString("Credit cards:"))
	for _, name := range cards {
		fmt.Printf("  %s", name)
		for _, kind := range store.ListBalanceTypes() {
			amount, err := s.CreditCardBalance(ctx, session, name, kind)
			if err != nil {
				return err
			}
			fmt.Printf("  %s %s%.2f", kind, currency, amount)
		}
		fmt.Println()
	}

	recipients, err := s.ListKnownRecipients(ctx, session)
	if err != nil {
		return err
	}
	fmt.Println(color.CyanString("Known recipients:"))
	for _, name := range recipients {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func dbTransactions(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	txs, err := s.Transactions(ctx, args[0], transactionLimit)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Println("No transactions")
		return nil
	}
	for _, t := range txs {
		fmt.Printf("%s  %s -> %s  %10.2f  %s\n",
			t.Timestamp.Format("2006-01-02 15:04"), t.From, t.To, t.Amount, color.HiBlackString(t.Reference))
	}
	return nil
}
