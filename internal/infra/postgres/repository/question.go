package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
	"github.com/aliskhannn/millionaire-bot/internal/infra/postgres"
)

// QuestionRepository is the question bank stored in Postgres.
type QuestionRepository struct {
	db postgres.DBTX
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(db postgres.DBTX) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// QuestionsAtLevel returns every question of the level.
func (r *QuestionRepository) QuestionsAtLevel(ctx context.Context, level int) ([]entities.Question, error) {
	query := `
		SELECT id, level, text, answer1, answer2, answer3, answer4
		FROM questions
		WHERE level = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, level)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	defer rows.Close()

	var questions []entities.Question
	for rows.Next() {
		var q entities.Question
		err := rows.Scan(&q.ID, &q.Level, &q.Text, &q.Answers[0], &q.Answers[1], &q.Answers[2], &q.Answers[3])
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return questions, nil
}

// Import inserts questions that are not in the bank yet, matching on level
// and text, and returns how many were added.
func (r *QuestionRepository) Import(ctx context.Context, questions []entities.Question) (int, error) {
	query := `
		INSERT INTO questions (level, text, answer1, answer2, answer3, answer4)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (level, text) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return 0, err
		}
		batch.Queue(query, q.Level, q.Text, q.Answers[0], q.Answers[1], q.Answers[2], q.Answers[3])
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	added := 0
	for range questions {
		tag, err := br.Exec()
		if err != nil {
			return added, fmt.Errorf("import question: %w", err)
		}
		added += int(tag.RowsAffected())
	}

	return added, nil
}
