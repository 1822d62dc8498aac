package repositories

import (
	"context"
	"encoding/json"
	"errors"

	"rulemark/internal/httpkit"
	"rulemark/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrRulesetNotFound = errors.New("ruleset not found")
var ErrRulesetNameExists = errors.New("ruleset name already exists")

type RulesetRepository struct {
	db *pgxpool.Pool
}

func NewRulesetRepository(db *pgxpool.Pool) *RulesetRepository {
	return &RulesetRepository{db: db}
}

// definition is the shape stored in definition_json.
type definition struct {
	Files    []string       `json:"files"`
	Defaults map[string]any `json:"defaults,omitempty"`
}

func (r *RulesetRepository) Create(ctx context.Context, s *models.Ruleset) error {
	def, err := json.Marshal(definition{Files: s.Files, Defaults: s.Defaults})
	if err != nil {
		return err
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO rulesets (id, name, description, definition_json)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, s.ID, s.Name, s.Description, string(def)).Scan(&s.CreatedAt)

	if err != nil {
		if httpkit.IsUniqueViolation(err) {
			return ErrRulesetNameExists
		}
		return err
	}
	return nil
}

func (r *RulesetRepository) List(ctx context.Context) ([]models.Ruleset, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, COALESCE(description,''), definition_json, created_at
		FROM rulesets
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Ruleset
	for rows.Next() {
		var s models.Ruleset
		var defJSON []byte
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &defJSON, &s.CreatedAt); err != nil {
			return nil, err
		}
		if err := applyDefinition(&s, defJSON); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *RulesetRepository) Get(ctx context.Context, id string) (*models.Ruleset, error) {
	var s models.Ruleset
	var defJSON []byte
	err := r.db.QueryRow(ctx, `
		SELECT id, name, COALESCE(description,''), definition_json, created_at, deleted_at
		FROM rulesets
		WHERE id=$1 AND deleted_at IS NULL
	`, id).Scan(
		&s.ID,
		&s.Name,
		&s.Description,
		&defJSON,
		&s.CreatedAt,
		&s.DeletedAt,
	)
	if err != nil {
		return nil, ErrRulesetNotFound
	}
	if err := applyDefinition(&s, defJSON); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RulesetRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE rulesets
		SET deleted_at=now()
		WHERE id=$1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRulesetNotFound
	}
	return nil
}

func applyDefinition(s *models.Ruleset, defJSON []byte) error {
	var def definition
	if len(defJSON) > 0 {
		if err := json.Unmarshal(defJSON, &def); err != nil {
			return err
		}
	}
	s.Files = def.Files
	s.Defaults = def.Defaults
	return nil
}
