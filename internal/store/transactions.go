package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"bankbot/internal/logging"
)

// timestampLayout sorts lexically in time order. Timestamps are stored in
// UTC.
const timestampLayout = "2006-01-02 15:04:05"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// Transaction is one ledger entry.
type Transaction struct {
	ID        int64
	Reference string
	From      string
	To        string
	Amount    float64
	Timestamp time.Time
}

// SearchQuery selects a session's transactions in [Start, End), matching
// the intervals read from time entities. Zero times leave that end of the
// range open.
type SearchQuery struct {
	Start   time.Time
	End     time.Time
	Deposit bool   // money received instead of money spent
	Vendor  string // spending at one vendor only
}

// Summary aggregates the transactions a search matched.
type Summary struct {
	Count int
	Total float64
}

func insertTransaction(ctx context.Context, q querier, from, to string, amount float64, at time.Time) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO transactions (reference, from_account_number, to_account_number, amount, timestamp) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), from, to, amount, formatTimestamp(at))
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}

func sumAmounts(ctx context.Context, q querier, where string, args ...any) (Summary, error) {
	var (
		count int
		total sql.NullFloat64
	)
	err := q.QueryRowContext(ctx, "SELECT COUNT(*), SUM(amount) FROM transactions WHERE "+where, args...).Scan(&count, &total)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return Summary{Count: count, Total: total.Float64}, nil
}

func balance(ctx context.Context, q querier, a Account) (float64, error) {
	earned, err := sumAmounts(ctx, q, "to_account_number = ?", a.Number())
	if err != nil {
		return 0, err
	}
	spent, err := sumAmounts(ctx, q, "from_account_number = ?", a.Number())
	if err != nil {
		return 0, err
	}
	return roundCents(earned.Total - spent.Total), nil
}

func roundCents(f float64) float64 {
	return math.Round(f*100) / 100
}

// AccountBalance returns money received minus money spent.
func (s *Store) AccountBalance(ctx context.Context, sessionID string) (float64, error) {
	a, err := s.AccountForSession(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return balance(ctx, s.db, a)
}

// SearchTransactions totals the session's transactions matching q.
func (s *Store) SearchTransactions(ctx context.Context, sessionID string, q SearchQuery) (Summary, error) {
	timer := logging.StartTimer(logging.CategoryStore, "SearchTransactions")
	defer timer.Stop()

	a, err := s.AccountForSession(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}

	var (
		where []string
		args  []any
	)
	switch {
	case q.Deposit:
		where = append(where, "to_account_number = ?")
		args = append(args, a.Number())
	case q.Vendor != "":
		v, err := accountWhere(ctx, s.db, "is_vendor = 1 AND account_holder_name = ?", normalizeName(q.Vendor))
		if errors.Is(err, ErrAccountNotFound) {
			return Summary{}, fmt.Errorf("%w: %s", ErrVendorNotFound, q.Vendor)
		}
		if err != nil {
			return Summary{}, err
		}
		where = append(where, "from_account_number = ?", "to_account_number = ?")
		args = append(args, a.Number(), v.Number())
	default:
		where = append(where, "from_account_number = ?")
		args = append(args, a.Number())
	}
	if !q.Start.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, formatTimestamp(q.Start))
	}
	if !q.End.IsZero() {
		where = append(where, "timestamp < ?")
		args = append(args, formatTimestamp(q.End))
	}

	sum, err := sumAmounts(ctx, s.db, strings.Join(where, " AND "), args...)
	if err != nil {
		return Summary{}, err
	}
	sum.Total = roundCents(sum.Total)
	logging.StoreDebug("Search %+v for %s matched %d transactions", q, sessionID, sum.Count)
	return sum, nil
}

// Transfer moves amount from the session's account to one of its
// recipients. The balance check and the ledger entry commit together.
func (s *Store) Transfer(ctx context.Context, sessionID, recipient string, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	a, err := s.AccountForSession(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		to, err := recipientFromName(ctx, tx, a, recipient)
		if err != nil {
			return err
		}
		if err := ensureFunds(ctx, tx, a, amount); err != nil {
			return err
		}
		if err := insertTransaction(ctx, tx, a.Number(), to.Number(), amount, s.now()); err != nil {
			return err
		}
		logging.Store("Transferred %.2f from %s to %s", amount, a.Number(), to.Number())
		return nil
	})
}

// PayOffCreditCard moves amount from the session's account to one of its
// cards and lowers the card's balances. Paying at least the minimum balance
// clears it.
func (s *Store) PayOffCreditCard(ctx context.Context, sessionID, card string, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	a, err := s.AccountForSession(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		c, err := cardByName(ctx, tx, a, card)
		if err != nil {
			return err
		}
		if err := ensureFunds(ctx, tx, a, amount); err != nil {
			return err
		}
		if err := insertTransaction(ctx, tx, a.Number(), c.Number(), amount, s.now()); err != nil {
			return err
		}

		minimum := 0.0
		if amount < c.MinimumBalance {
			minimum = roundCents(c.MinimumBalance - amount)
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE credit_cards SET current_balance = ?, minimum_balance = ? WHERE id = ?",
			roundCents(c.CurrentBalance-amount), minimum, c.ID)
		if err != nil {
			return fmt.Errorf("failed to update card balance: %w", err)
		}
		logging.Store("Paid %.2f towards %s (%s)", amount, c.Name, c.Number())
		return nil
	})
}

func ensureFunds(ctx context.Context, q querier, a Account, amount float64) error {
	available, err := balance(ctx, q, a)
	if err != nil {
		return err
	}
	if amount > available {
		return fmt.Errorf("%w: %.2f requested, %.2f available", ErrInsufficientFunds, amount, available)
	}
	return nil
}

// Transactions lists the ledger entries touching a session's account, most
// recent first.
func (s *Store) Transactions(ctx context.Context, sessionID string, limit int) ([]Transaction, error) {
	a, err := s.AccountForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, reference, from_account_number, to_account_number, amount, timestamp
		 FROM transactions WHERE from_account_number = ? OR to_account_number = ?
		 ORDER BY timestamp DESC, id DESC LIMIT ?`,
		a.Number(), a.Number(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var (
			t  Transaction
			ts string
		)
		if err := rows.Scan(&t.ID, &t.Reference, &t.From, &t.To, &t.Amount, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if t.Timestamp, err = time.ParseInLocation(timestampLayout, ts, time.UTC); err != nil {
			return nil, fmt.Errorf("bad timestamp %q on transaction %d: %w", ts, t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
