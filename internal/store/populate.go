package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"bankbot/internal/logging"
)

// DemoCards are the cards every new session holds.
var DemoCards = []string{"iron bank", "credit all", "gringots", "justice bank"}

// PopulateSession creates the account of a session together with its demo
// profile: cards, a random subset of the shared recipients, and spending and
// income over the configured history window. It is idempotent; an existing
// account is returned unchanged.
func (s *Store) PopulateSession(ctx context.Context, sessionID string) (Account, error) {
	timer := logging.StartTimer(logging.CategoryStore, "PopulateSession")
	defer timer.Stop()

	if sessionID == "" {
		return Account{}, fmt.Errorf("session id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var account Account
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		a, err := accountWhere(ctx, tx, "session_id = ?", sessionID)
		if err == nil {
			account = a
			return nil
		}
		if !errors.Is(err, ErrAccountNotFound) {
			return err
		}

		populated, err := generalAccountsPopulated(ctx, tx)
		if err != nil {
			return err
		}
		if !populated {
			if err := addGeneralAccounts(ctx, tx); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO accounts (session_id, account_holder_name, currency, is_vendor) VALUES (?, ?, '$', 0)",
			sessionID, "current_user_"+sessionID)
		if err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		account = Account{ID: id, SessionID: sessionID, HolderName: "current_user_" + sessionID, Currency: "$"}

		g := s.generator(sessionID)
		if err := g.cards(ctx, tx, account); err != nil {
			return err
		}
		if err := g.recipients(ctx, tx, account); err != nil {
			return err
		}
		return g.history(ctx, tx, account, s.now(), s.historyDays)
	})
	if err != nil {
		return Account{}, fmt.Errorf("failed to populate session %s: %w", sessionID, err)
	}
	return account, nil
}

// generator produces the demo profile of one session. The same seed and
// session always produce the same profile.
type generator struct {
	r *rand.Rand
}

func (s *Store) generator(sessionID string) generator {
	h := fnv.New64a()
	h.Write([]byte(sessionID))
	return generator{r: rand.New(rand.NewPCG(uint64(s.seed), h.Sum64()))}
}

// amount returns a random amount in [lo, hi) with cents.
func (g generator) amount(lo, hi float64) float64 {
	return roundCents(lo + g.r.Float64()*(hi-lo))
}

func (g generator) cards(ctx context.Context, tx *sql.Tx, a Account) error {
	minimums := []float64{20, 30, 40}
	for _, name := range DemoCards {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO credit_cards (account_id, credit_card_name, minimum_balance, current_balance) VALUES (?, ?, ?, ?)",
			a.ID, name, minimums[g.r.IntN(len(minimums))], g.amount(20, 500))
		if err != nil {
			return fmt.Errorf("failed to add card %s: %w", name, err)
		}
	}
	return nil
}

// recipients links between three and all-but-one of the shared recipients.
func (g generator) recipients(ctx context.Context, tx *sql.Tx, a Account) error {
	rows, err := tx.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE session_id LIKE 'recipient\\_%' ESCAPE '\\' ORDER BY id")
	if err != nil {
		return fmt.Errorf("failed to list recipients: %w", err)
	}
	var all []Account
	for rows.Next() {
		r, err := scanAccount(rows)
		if err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan recipient: %w", err)
		}
		all = append(all, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	n := len(all)
	if n > 3 {
		n = 3 + g.r.IntN(n-3)
	}
	g.r.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	for _, r := range all[:n] {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO recipient_relationships (account_id, recipient_account_id, recipient_nickname) VALUES (?, ?, ?)",
			a.ID, r.ID, r.HolderName)
		if err != nil {
			return fmt.Errorf("failed to add recipient %s: %w", r.HolderName, err)
		}
	}
	return nil
}

// history spends at every shared vendor every other day on average, and
// receives interest monthly and salary fortnightly.
func (g generator) history(ctx context.Context, tx *sql.Tx, a Account, now time.Time, days int) error {
	start := now.UTC().Truncate(24 * time.Hour).AddDate(0, 0, -days)
	when := func() time.Time {
		return start.AddDate(0, 0, g.r.IntN(days)).Add(time.Duration(g.r.IntN(86400)) * time.Second)
	}

	counterparties, err := queryStrings(ctx, tx,
		"SELECT session_id FROM accounts WHERE session_id LIKE 'vendor\\_%' ESCAPE '\\' OR session_id LIKE 'depositor\\_%' ESCAPE '\\' ORDER BY id")
	if err != nil {
		return err
	}

	count := 0
	for _, sid := range counterparties {
		other, err := accountWhere(ctx, tx, "session_id = ?", sid)
		if err != nil {
			return err
		}

		var (
			n        int
			lo, hi   float64
			incoming bool
		)
		switch {
		case other.IsVendor:
			n, lo, hi = days/2, 5, 50
		case other.HolderName == "interest":
			n, lo, hi, incoming = days/30, 5, 20, true
		default:
			n, lo, hi, incoming = days/14, 1000, 2000, true
		}

		for i := 0; i < n; i++ {
			from, to := a.Number(), other.Number()
			if incoming {
				from, to = to, from
			}
			if err := insertTransaction(ctx, tx, from, to, g.amount(lo, hi), when()); err != nil {
				return err
			}
			count++
		}
	}
	logging.StoreDebug("Generated %d transactions for %s", count, a.SessionID)
	return nil
}
