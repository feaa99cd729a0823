package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bankbot/internal/logging"
)

// Account number widths. Card and account numbers share the transaction
// ledger and are told apart by length.
const (
	AccountNumberLength    = 12
	CreditCardNumberLength = 14
)

// GeneralAccounts are the accounts shared by every session, keyed by role.
// Their session ids are "<role>_<index>".
var GeneralAccounts = []struct {
	Role  string
	Names []string
}{
	{"recipient", []string{
		"katy parrow", "evan oslo", "william baker", "karen lancaster",
		"kyle gardner", "john jacob", "percy donald", "lisa macintyre",
	}},
	{"vendor", []string{"target", "starbucks", "amazon"}},
	{"depositor", []string{"interest", "employer"}},
}

// Account is one bank account.
type Account struct {
	ID         int64
	SessionID  string
	HolderName string
	Currency   string
	IsVendor   bool
}

// Number returns the account number.
func (a Account) Number() string {
	return fmt.Sprintf("%0*d", AccountNumberLength, a.ID)
}

const accountColumns = "id, session_id, account_holder_name, currency, is_vendor"

func scanAccount(row interface{ Scan(...any) error }) (Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.SessionID, &a.HolderName, &a.Currency, &a.IsVendor); err != nil {
		return Account{}, err
	}
	return a, nil
}

func accountWhere(ctx context.Context, q querier, where string, args ...any) (Account, error) {
	row := q.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE "+where+" ORDER BY id LIMIT 1", args...)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("failed to load account: %w", err)
	}
	return a, nil
}

// AccountForSession returns the account of a session, creating and
// populating it if the session has none yet.
func (s *Store) AccountForSession(ctx context.Context, sessionID string) (Account, error) {
	a, err := accountWhere(ctx, s.db, "session_id = ?", sessionID)
	if !errors.Is(err, ErrAccountNotFound) {
		return a, err
	}
	logging.Store("Creating account for session %s", sessionID)
	return s.PopulateSession(ctx, sessionID)
}

// SessionExists reports whether sessionID has an account.
func (s *Store) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts WHERE session_id = ?", sessionID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return n > 0, nil
}

// AccountFromNumber looks up a bank account by number.
func (s *Store) AccountFromNumber(ctx context.Context, number string) (Account, error) {
	id, err := parseNumber(number, AccountNumberLength)
	if err != nil {
		return Account{}, err
	}
	return accountWhere(ctx, s.db, "id = ?", id)
}

func parseNumber(number string, length int) (int64, error) {
	if len(number) != length {
		return 0, fmt.Errorf("%q is not a %d digit number", number, length)
	}
	id, err := strconv.ParseInt(number, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q is not a valid number", number)
	}
	return id, nil
}

// Currency returns the currency of a session's account.
func (s *Store) Currency(ctx context.Context, sessionID string) (string, error) {
	a, err := s.AccountForSession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return a.Currency, nil
}

// ListKnownRecipients returns the nicknames of the session's recipients.
func (s *Store) ListKnownRecipients(ctx context.Context, sessionID string) ([]string, error) {
	a, err := s.AccountForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return queryStrings(ctx, s.db,
		"SELECT recipient_nickname FROM recipient_relationships WHERE account_id = ? ORDER BY id", a.ID)
}

// RecipientFromName returns the account behind one of the session's
// recipient nicknames. The first match wins.
func (s *Store) RecipientFromName(ctx context.Context, sessionID, nickname string) (Account, error) {
	a, err := s.AccountForSession(ctx, sessionID)
	if err != nil {
		return Account{}, err
	}
	return recipientFromName(ctx, s.db, a, nickname)
}

func recipientFromName(ctx context.Context, q querier, owner Account, nickname string) (Account, error) {
	r, err := accountWhere(ctx, q,
		"id = (SELECT recipient_account_id FROM recipient_relationships WHERE account_id = ? AND recipient_nickname = ? ORDER BY id LIMIT 1)",
		owner.ID, normalizeName(nickname))
	if errors.Is(err, ErrAccountNotFound) {
		return Account{}, fmt.Errorf("%w: %s", ErrRecipientNotFound, nickname)
	}
	return r, err
}

// Vendors returns the names of all vendor accounts.
func (s *Store) Vendors(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, s.db,
		"SELECT account_holder_name FROM accounts WHERE is_vendor = 1 GROUP BY account_holder_name ORDER BY MIN(id)")
}

// AddVendor registers a new vendor with an empty "credit all" card.
func (s *Store) AddVendor(ctx context.Context, name string) error {
	name = normalizeName(name)
	if name == "" {
		return fmt.Errorf("vendor name is empty")
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := accountWhere(ctx, tx, "is_vendor = 1 AND account_holder_name = ?", name)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrVendorExists, name)
		}
		if !errors.Is(err, ErrAccountNotFound) {
			return err
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO accounts (session_id, account_holder_name, currency, is_vendor) VALUES (?, ?, '$', 1)",
			name+"_vendor", name)
		if err != nil {
			return fmt.Errorf("failed to add vendor %s: %w", name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to add vendor %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO credit_cards (account_id, credit_card_name, minimum_balance, current_balance) VALUES (?, 'credit all', 0, 0)",
			id); err != nil {
			return fmt.Errorf("failed to add vendor card: %w", err)
		}
		logging.Store("Added vendor %s", name)
		return nil
	})
}

// GeneralAccountsPopulated reports whether every shared account exists.
func (s *Store) GeneralAccountsPopulated(ctx context.Context) (bool, error) {
	return generalAccountsPopulated(ctx, s.db)
}

func generalAccountsPopulated(ctx context.Context, q querier) (bool, error) {
	var names []any
	for _, g := range GeneralAccounts {
		for _, n := range g.Names {
			names = append(names, n)
		}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT account_holder_name) FROM accounts WHERE account_holder_name IN ("+placeholders+")",
		names...).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check general accounts: %w", err)
	}
	return n == len(names), nil
}

// AddGeneralAccounts creates the shared recipient, vendor and depositor
// accounts. Existing ones are left alone.
func (s *Store) AddGeneralAccounts(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return addGeneralAccounts(ctx, tx)
	})
}

func addGeneralAccounts(ctx context.Context, q querier) error {
	for _, g := range GeneralAccounts {
		vendor := g.Role == "vendor"
		for i, name := range g.Names {
			_, err := q.ExecContext(ctx,
				"INSERT OR IGNORE INTO accounts (session_id, account_holder_name, currency, is_vendor) VALUES (?, ?, '$', ?)",
				fmt.Sprintf("%s_%d", g.Role, i), name, vendor)
			if err != nil {
				return fmt.Errorf("failed to add %s %s: %w", g.Role, name, err)
			}
		}
	}
	logging.StoreDebug("General accounts ensured")
	return nil
}

func queryStrings(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
