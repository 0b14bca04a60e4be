package game

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
)

type HighScoreService struct {
	db *sql.DB
}

const DefaultHighScorePath = "highscores.db"
const tableName = "high_scores"

type Score struct {
	ID         int
	SessionID  string
	PlayerName string
	Score      int
	Elapsed    time.Duration
	GridWidth  int
	GridHeight int
	CreatedAt  time.Time
}

func NewHighScoreService(dbPath string) (*HighScoreService, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database %s: %w", dbPath, err)
	}

	service := &HighScoreService{db: db}
	if err := service.createTable(); err != nil {
		db.Close()
		return nil, err
	}

	return service, nil
}

// createTable creates the high_scores table if it does not exist.
func (serviceImpl *HighScoreService) createTable() error {
	const createTableSQL = `
	CREATE TABLE IF NOT EXISTS ` + tableName + ` (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		player_name TEXT NOT NULL,
		score INTEGER NOT NULL,
		elapsed_seconds INTEGER NOT NULL,
		grid_width INTEGER NOT NULL,
		grid_height INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	_, err := serviceImpl.db.Exec(createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to execute CREATE TABLE: %w", err)
	}
	log.Debug("High scores table ensured.")
	return nil
}

func (serviceImpl *HighScoreService) SaveHighScore(score Score) error {
	const insertSQL = `
	INSERT INTO ` + tableName + ` (session_id, player_name, score, elapsed_seconds, grid_width, grid_height)
	VALUES (?, ?, ?, ?, ?, ?);`

	_, err := serviceImpl.db.Exec(insertSQL,
		score.SessionID,
		score.PlayerName,
		score.Score,
		int64(score.Elapsed/time.Second),
		score.GridWidth,
		score.GridHeight,
	)
	if err != nil {
		return fmt.Errorf("failed to insert high score for %s: %w", score.PlayerName, err)
	}

	return nil
}

// GetHighScores retrieves a paginated list of scores, best score first and
// faster games ahead on ties.
func (serviceImpl *HighScoreService) GetHighScores(limit, offset int) ([]Score, error) {
	const selectSQL = `
	SELECT id, session_id, player_name, score, elapsed_seconds, grid_width, grid_height, created_at
	FROM ` + tableName + `
	ORDER BY score DESC, elapsed_seconds ASC, id ASC
	LIMIT ? OFFSET ?;`

	rows, err := serviceImpl.db.Query(selectSQL, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query high scores: %w", err)
	}
	defer rows.Close()

	var scores []Score

	for rows.Next() {
		var score Score
		var elapsedSeconds int64
		var createdAt string // Read as string from DB
		err := rows.Scan(&score.ID, &score.SessionID, &score.PlayerName, &score.Score,
			&elapsedSeconds, &score.GridWidth, &score.GridHeight, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		score.Elapsed = time.Duration(elapsedSeconds) * time.Second

		dateTimeCreatedAt, err := time.Parse(time.RFC3339, createdAt)
		if err == nil {
			score.CreatedAt = dateTimeCreatedAt
		} else {
			log.Warn("Time parsing error for score", "id", score.ID, "name", score.PlayerName, "raw", createdAt, "error", err)
		}
		scores = append(scores, score)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}

	return scores, nil
}

func (serviceImpl *HighScoreService) GetTotalScoreCount() (int, error) {
	const countSQL = `SELECT COUNT(*) FROM ` + tableName + `;`
	var count int
	err := serviceImpl.db.QueryRow(countSQL).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get total score count: %w", err)
	}
	return count, nil
}

func (serviceImpl *HighScoreService) Close() error {
	return serviceImpl.db.Close()
}
