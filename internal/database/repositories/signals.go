package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/samhoi-x/compass/internal/domain"
)

// SignalRepository persists fused signals and their later-evaluated
// outcomes.
type SignalRepository struct {
	*BaseRepository
}

func NewSignalRepository(db *sql.DB, log zerolog.Logger) *SignalRepository {
	return &SignalRepository{BaseRepository: NewBase(db, log.With().Str("repo", "signal").Logger())}
}

// Insert persists a new signal and returns it with ID populated.
func (r *SignalRepository) Insert(s domain.Signal) (domain.Signal, error) {
	res, err := r.DB().Exec(`
		INSERT INTO signals
		(symbol, kind, direction, strength, confidence, technical_score,
		 sentiment_score, ml_score, macro_score, has_macro, macro_regime, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Symbol, s.Kind, s.Direction, s.Strength, s.Confidence, s.TechnicalScore,
		s.SentimentScore, s.MLScore, s.MacroScore, boolToInt(s.HasMacro), s.MacroRegime, s.CreatedAt,
	)
	if err != nil {
		return s, fmt.Errorf("failed to insert signal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return s, fmt.Errorf("failed to read signal id: %w", err)
	}
	s.ID = id
	return s, nil
}

// RecentBySymbol returns the most recent signals for a symbol, newest first.
func (r *SignalRepository) RecentBySymbol(symbol string, limit int) ([]domain.Signal, error) {
	rows, err := r.DB().Query(`
		SELECT id, symbol, kind, direction, strength, confidence, technical_score,
		       sentiment_score, ml_score, macro_score, has_macro, macro_regime,
		       created_at, return_5d, return_10d, correct, outcome_checked_at
		FROM signals WHERE symbol = ? ORDER BY created_at DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()
	return scanSignals(rows)
}

// PendingEvaluation returns signals at least minAge old with no
// outcome_checked_at yet, oldest first, capped at limit.
func (r *SignalRepository) PendingEvaluation(minAge time.Duration, limit int) ([]domain.Signal, error) {
	cutoff := time.Now().Add(-minAge)
	rows, err := r.DB().Query(`
		SELECT id, symbol, kind, direction, strength, confidence, technical_score,
		       sentiment_score, ml_score, macro_score, has_macro, macro_regime,
		       created_at, return_5d, return_10d, correct, outcome_checked_at
		FROM signals
		WHERE outcome_checked_at IS NULL AND created_at <= ?
		ORDER BY created_at ASC LIMIT ?`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending signals: %w", err)
	}
	defer rows.Close()
	return scanSignals(rows)
}

// RecordOutcome writes back forward returns and correctness for one
// signal in a single statement, atomically.
func (r *SignalRepository) RecordOutcome(id int64, return5d, return10d *float64, correct *int, checkedAt time.Time) error {
	_, err := r.DB().Exec(`
		UPDATE signals SET return_5d = ?, return_10d = ?, correct = ?, outcome_checked_at = ?
		WHERE id = ?`, nullFloat64(return5d), nullFloat64(return10d), nullInt(correct), checkedAt, id)
	if err != nil {
		return fmt.Errorf("failed to record signal outcome: %w", err)
	}
	return nil
}

// AccuracyBySymbol returns (correct count, evaluated count) across all
// evaluated signals for symbol, used by the accuracy feedback loop.
func (r *SignalRepository) AccuracyBySymbol(symbol string) (correct, total int, err error) {
	row := r.DB().QueryRow(`
		SELECT COALESCE(SUM(correct), 0), COUNT(*)
		FROM signals WHERE symbol = ? AND outcome_checked_at IS NOT NULL`, symbol)
	if err := row.Scan(&correct, &total); err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate signal accuracy: %w", err)
	}
	return correct, total, nil
}

// EvaluatedSince returns every evaluated signal created at or after
// since, used by the adaptive weight learner's correlation sample.
func (r *SignalRepository) EvaluatedSince(since time.Time) ([]domain.Signal, error) {
	rows, err := r.DB().Query(`
		SELECT id, symbol, kind, direction, strength, confidence, technical_score,
		       sentiment_score, ml_score, macro_score, has_macro, macro_regime,
		       created_at, return_5d, return_10d, correct, outcome_checked_at
		FROM signals
		WHERE outcome_checked_at IS NOT NULL AND created_at >= ?
		ORDER BY created_at ASC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluated signals: %w", err)
	}
	defer rows.Close()
	return scanSignals(rows)
}

func scanSignals(rows *sql.Rows) ([]domain.Signal, error) {
	var out []domain.Signal
	for rows.Next() {
		var s domain.Signal
		var hasMacro int
		var return5d, return10d sql.NullFloat64
		var correct sql.NullInt64
		var outcomeCheckedAt sql.NullTime
		if err := rows.Scan(
			&s.ID, &s.Symbol, &s.Kind, &s.Direction, &s.Strength, &s.Confidence,
			&s.TechnicalScore, &s.SentimentScore, &s.MLScore, &s.MacroScore,
			&hasMacro, &s.MacroRegime, &s.CreatedAt, &return5d, &return10d, &correct, &outcomeCheckedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		s.HasMacro = hasMacro != 0
		s.Return5d = nullFloat64Ptr(return5d)
		s.Return10d = nullFloat64Ptr(return10d)
		s.Correct = nullIntPtr(correct)
		s.OutcomeCheckedAt = nullTimePtr(outcomeCheckedAt)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signals: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
