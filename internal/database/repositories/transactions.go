package repositories

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/samhoi-x/compass/internal/domain"
)

// TransactionRepository is the append-only log of live portfolio
// actions.
type TransactionRepository struct {
	*BaseRepository
}

func NewTransactionRepository(db *sql.DB, log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{BaseRepository: NewBase(db, log.With().Str("repo", "transaction").Logger())}
}

func (r *TransactionRepository) Insert(t domain.Transaction) (domain.Transaction, error) {
	res, err := r.DB().Exec(`
		INSERT INTO transactions (symbol, action, quantity, price, note, executed_at)
		VALUES (?, ?, ?, ?, ?, ?)`, t.Symbol, t.Action, t.Quantity, t.Price, nullString(t.Note), t.ExecutedAt)
	if err != nil {
		return t, fmt.Errorf("failed to insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return t, fmt.Errorf("failed to read transaction id: %w", err)
	}
	t.ID = id
	return t, nil
}

func (r *TransactionRepository) RecentBySymbol(symbol string, limit int) ([]domain.Transaction, error) {
	rows, err := r.DB().Query(`
		SELECT id, symbol, action, quantity, price, note, executed_at
		FROM transactions WHERE symbol = ? ORDER BY executed_at DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var note sql.NullString
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Action, &t.Quantity, &t.Price, &note, &t.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if note.Valid {
			t.Note = note.String
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return out, nil
}
