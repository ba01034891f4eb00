package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
	"github.com/aliskhannn/millionaire-bot/internal/infra/postgres"
)

const uniqueViolation = "23505"

// GameRepository provides access to games, their positions and help results.
type GameRepository struct {
	db postgres.DBTX
}

// NewGameRepository creates a new GameRepository bound to a pool or a transaction.
func NewGameRepository(db postgres.DBTX) *GameRepository {
	return &GameRepository{db: db}
}

// Create inserts the game with its positions and assigns their IDs.
func (r *GameRepository) Create(ctx context.Context, game *entities.Game) error {
	query := `
		INSERT INTO games (user_id, current_level, is_failed, prize, created_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRow(
		ctx,
		query,
		game.UserID,
		game.CurrentLevel,
		game.IsFailed,
		game.Prize,
		game.CreatedAt,
		game.FinishedAt,
	).Scan(&game.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("create game: %w", entities.ErrGameAlreadyInProgress)
		}
		return fmt.Errorf("create game: %w", err)
	}

	for _, gq := range game.Questions {
		gq.GameID = game.ID
		if err := r.createQuestion(ctx, gq); err != nil {
			return err
		}
	}

	return r.saveHelps(ctx, game)
}

func (r *GameRepository) createQuestion(ctx context.Context, gq *entities.GameQuestion) error {
	query := `
		INSERT INTO game_questions (game_id, question_id, level, a, b, c, d)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	p := gq.Permutation
	err := r.db.QueryRow(ctx, query, gq.GameID, gq.Question.ID, gq.Level(), p[0], p[1], p[2], p[3]).Scan(&gq.ID)
	if err != nil {
		return fmt.Errorf("create game question: %w", err)
	}

	return nil
}

// GetByID retrieves a game with its positions.
func (r *GameRepository) GetByID(ctx context.Context, gameID int64) (*entities.Game, error) {
	return r.get(ctx, gameID, false)
}

// GetForUpdate retrieves a game and locks its row until the transaction ends.
func (r *GameRepository) GetForUpdate(ctx context.Context, gameID int64) (*entities.Game, error) {
	return r.get(ctx, gameID, true)
}

func (r *GameRepository) get(ctx context.Context, gameID int64, forUpdate bool) (*entities.Game, error) {
	query := `
		SELECT id, user_id, current_level, is_failed, prize, created_at, finished_at
		FROM games
		WHERE id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	game, err := scanGame(r.db.QueryRow(ctx, query, gameID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrGameNotFound
		}
		return nil, fmt.Errorf("get game: %w", err)
	}

	if err := r.loadQuestions(ctx, game); err != nil {
		return nil, err
	}

	return game, nil
}

// GetInProgressByUserID retrieves the user's unfinished game.
func (r *GameRepository) GetInProgressByUserID(ctx context.Context, userID int64) (*entities.Game, error) {
	query := `
		SELECT id
		FROM games
		WHERE user_id = $1 AND finished_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`

	var id int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrGameNotFound
		}
		return nil, fmt.Errorf("get game in progress: %w", err)
	}

	return r.GetByID(ctx, id)
}

// ListByUserID returns the user's games newest first.
func (r *GameRepository) ListByUserID(ctx context.Context, userID int64, limit int) ([]*entities.Game, error) {
	query := `
		SELECT id, user_id, current_level, is_failed, prize, created_at, finished_at
		FROM games
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []*entities.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	rows.Close()

	for _, g := range games {
		if err := r.loadQuestions(ctx, g); err != nil {
			return nil, err
		}
	}

	return games, nil
}

// ListExpiredIDs returns unfinished games created before the cutoff, oldest first.
func (r *GameRepository) ListExpiredIDs(ctx context.Context, createdBefore time.Time, limit int) ([]int64, error) {
	query := `
		SELECT id
		FROM games
		WHERE finished_at IS NULL AND created_at < $1
		ORDER BY id
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, createdBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired games: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collect expired games: %w", err)
	}

	return ids, nil
}

// Update saves the progress fields and any help results not stored yet.
func (r *GameRepository) Update(ctx context.Context, game *entities.Game) error {
	query := `
		UPDATE games
		SET current_level = $1,
		    is_failed = $2,
		    prize = $3,
		    finished_at = $4
		WHERE id = $5
	`

	result, err := r.db.Exec(ctx, query, game.CurrentLevel, game.IsFailed, game.Prize, game.FinishedAt, game.ID)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	if result.RowsAffected() == 0 {
		return entities.ErrGameNotFound
	}

	return r.saveHelps(ctx, game)
}

// saveHelps inserts help results in one batch. Results are append-only, so
// rows already present are left untouched.
func (r *GameRepository) saveHelps(ctx context.Context, game *entities.Game) error {
	query := `
		INSERT INTO game_question_helps (game_question_id, help_type, result)
		VALUES ($1, $2, $3)
		ON CONFLICT (game_question_id, help_type) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, gq := range game.Questions {
		for t, res := range gq.Helps {
			data, err := entities.MarshalHelpResult(res)
			if err != nil {
				return fmt.Errorf("marshal %s result: %w", t, err)
			}
			batch.Queue(query, gq.ID, string(t), string(data))
		}
	}

	if batch.Len() == 0 {
		return nil
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save helps: %w", err)
	}

	return nil
}

func (r *GameRepository) loadQuestions(ctx context.Context, game *entities.Game) error {
	query := `
		SELECT gq.id, gq.game_id, gq.a, gq.b, gq.c, gq.d,
		       q.id, q.level, q.text, q.answer1, q.answer2, q.answer3, q.answer4
		FROM game_questions gq
		JOIN questions q ON q.id = gq.question_id
		WHERE gq.game_id = $1
		ORDER BY gq.level
	`

	rows, err := r.db.Query(ctx, query, game.ID)
	if err != nil {
		return fmt.Errorf("get game questions: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*entities.GameQuestion)
	for rows.Next() {
		gq := &entities.GameQuestion{Helps: entities.HelpRecord{}}
		q := &gq.Question
		p := &gq.Permutation

		err := rows.Scan(
			&gq.ID, &gq.GameID, &p[0], &p[1], &p[2], &p[3],
			&q.ID, &q.Level, &q.Text, &q.Answers[0], &q.Answers[1], &q.Answers[2], &q.Answers[3],
		)
		if err != nil {
			return fmt.Errorf("scan game question: %w", err)
		}

		game.Questions = append(game.Questions, gq)
		byID[gq.ID] = gq
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}
	// A transaction runs on one connection, so the result set must be
	// drained before the next query.
	rows.Close()

	return r.loadHelps(ctx, game.ID, byID)
}

func (r *GameRepository) loadHelps(ctx context.Context, gameID int64, byID map[int64]*entities.GameQuestion) error {
	query := `
		SELECT h.game_question_id, h.help_type, h.result
		FROM game_question_helps h
		JOIN game_questions gq ON gq.id = h.game_question_id
		WHERE gq.game_id = $1
	`

	rows, err := r.db.Query(ctx, query, gameID)
	if err != nil {
		return fmt.Errorf("get helps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			gqID int64
			t    string
			data []byte
		)
		if err := rows.Scan(&gqID, &t, &data); err != nil {
			return fmt.Errorf("scan help: %w", err)
		}

		gq, ok := byID[gqID]
		if !ok {
			continue
		}

		res, err := entities.UnmarshalHelpResult(entities.HelpType(t), data)
		if err != nil {
			return fmt.Errorf("decode %s result: %w", t, err)
		}
		gq.Helps[res.HelpType()] = res
	}

	return rows.Err()
}

func scanGame(row pgx.Row) (*entities.Game, error) {
	var g entities.Game
	err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.CurrentLevel,
		&g.IsFailed,
		&g.Prize,
		&g.CreatedAt,
		&g.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
