package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// CreditCard is one of an account holder's cards.
type CreditCard struct {
	ID             int64
	AccountID      int64
	Name           string
	MinimumBalance float64
	CurrentBalance float64
}

// Number returns the card number.
func (c CreditCard) Number() string {
	return fmt.Sprintf("%0*d", CreditCardNumberLength, c.ID)
}

// Balance returns the balance of the given type ("minimum balance" or
// "current balance"; underscores work too).
func (c CreditCard) Balance(balanceType string) (float64, error) {
	switch strings.Join(strings.Fields(strings.ReplaceAll(strings.ToLower(balanceType), "_", " ")), " ") {
	case "minimum balance":
		return c.MinimumBalance, nil
	case "current balance":
		return c.CurrentBalance, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBalanceType, balanceType)
	}
}

// ListBalanceTypes returns the balance types a card has, in the form users
// say them.
func ListBalanceTypes() []string {
	return []string{"minimum balance", "current balance"}
}

const cardColumns = "id, account_id, credit_card_name, minimum_balance, current_balance"

func cardWhere(ctx context.Context, q querier, where string, args ...any) (CreditCard, error) {
	var c CreditCard
	err := q.QueryRowContext(ctx,
		"SELECT "+cardColumns+" FROM credit_cards WHERE "+where+" ORDER BY id LIMIT 1", args...,
	).Scan(&c.ID, &c.AccountID, &c.Name, &c.MinimumBalance, &c.CurrentBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return CreditCard{}, ErrCardNotFound
	}
	if err != nil {
		return CreditCard{}, fmt.Errorf("failed to load credit card: %w", err)
	}
	return c, nil
}

// ListCreditCards returns the names of the session's cards.
func (s *Store) ListCreditCards(ctx context.Context, sessionID string) ([]string, error) {
	a, err := s.AccountForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return queryStrings(ctx, s.db, "SELECT credit_card_name FROM credit_cards WHERE account_id = ? ORDER BY id", a.ID)
}

// CreditCard returns one of the session's cards by name.
func (s *Store) CreditCard(ctx context.Context, sessionID, name string) (CreditCard, error) {
	a, err := s.AccountForSession(ctx, sessionID)
	if err != nil {
		return CreditCard{}, err
	}
	return cardByName(ctx, s.db, a, name)
}

func cardByName(ctx context.Context, q querier, owner Account, name string) (CreditCard, error) {
	c, err := cardWhere(ctx, q, "account_id = ? AND credit_card_name = ?", owner.ID, normalizeName(name))
	if errors.Is(err, ErrCardNotFound) {
		return CreditCard{}, fmt.Errorf("%w: %s", ErrCardNotFound, name)
	}
	return c, err
}

// CreditCardFromNumber looks up a card by number.
func (s *Store) CreditCardFromNumber(ctx context.Context, number string) (CreditCard, error) {
	id, err := parseNumber(number, CreditCardNumberLength)
	if err != nil {
		return CreditCard{}, err
	}
	return cardWhere(ctx, s.db, "id = ?", id)
}

// CreditCardBalance returns one balance of a session's card.
func (s *Store) CreditCardBalance(ctx context.Context, sessionID, name, balanceType string) (float64, error) {
	c, err := s.CreditCard(ctx, sessionID, name)
	if err != nil {
		return 0, err
	}
	return c.Balance(balanceType)
}
