package persistence

import "fmt"

// TeamRecord is one team's win-loss-tie line within a dynasty.
type TeamRecord struct {
	Dynasty string `db:"dynasty_id" json:"dynasty"`
	TeamID  string `db:"team_id" json:"team_id"`
	Wins    int    `db:"wins" json:"wins"`
	Losses  int    `db:"losses" json:"losses"`
	Ties    int    `db:"ties" json:"ties"`
}

// RecordResult folds one game result into the standings. A tie credits
// both sides.
func (db *DB) RecordResult(dynasty, winner, loser string, tie bool) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	upsert := func(team string, w, l, t int) error {
		_, err := tx.Exec(`INSERT INTO standings (dynasty_id, team_id, wins, losses, ties)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(dynasty_id, team_id) DO UPDATE SET
				wins = wins + excluded.wins,
				losses = losses + excluded.losses,
				ties = ties + excluded.ties`,
			dynasty, team, w, l, t,
		)
		return err
	}

	if tie {
		if err := upsert(winner, 0, 0, 1); err != nil {
			return fmt.Errorf("record tie for %s: %w", winner, err)
		}
		if err := upsert(loser, 0, 0, 1); err != nil {
			return fmt.Errorf("record tie for %s: %w", loser, err)
		}
	} else {
		if err := upsert(winner, 1, 0, 0); err != nil {
			return fmt.Errorf("record win for %s: %w", winner, err)
		}
		if err := upsert(loser, 0, 1, 0); err != nil {
			return fmt.Errorf("record loss for %s: %w", loser, err)
		}
	}

	return tx.Commit()
}

// Standings returns the dynasty's records best-first (wins desc, losses
// asc, then team id for a stable order).
func (db *DB) Standings(dynasty string) ([]TeamRecord, error) {
	var out []TeamRecord
	err := db.conn.Select(&out,
		`SELECT dynasty_id, team_id, wins, losses, ties FROM standings
		 WHERE dynasty_id = ? ORDER BY wins DESC, losses ASC, team_id`,
		dynasty,
	)
	if err != nil {
		return nil, fmt.Errorf("standings for %s: %w", dynasty, err)
	}
	return out, nil
}

// ResetStandings zeroes every record for the dynasty, used when a new
// season year begins.
func (db *DB) ResetStandings(dynasty string) error {
	_, err := db.conn.Exec(`UPDATE standings SET wins = 0, losses = 0, ties = 0 WHERE dynasty_id = ?`, dynasty)
	if err != nil {
		return fmt.Errorf("reset standings for %s: %w", dynasty, err)
	}
	return nil
}
