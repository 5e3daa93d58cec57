package repos

import (
	"github.com/jmoiron/sqlx"

	"tillpoint/internal/domain"
)

type BusinessRepo struct{ db *sqlx.DB }

func NewBusinessRepo(db *sqlx.DB) *BusinessRepo { return &BusinessRepo{db: db} }

func (r *BusinessRepo) ByCode(code string) (domain.Business, error) {
	var b domain.Business
	err := r.db.Get(&b, `
	  SELECT id, name, code, created_at FROM businesses WHERE code = ?
	`, code)
	return b, err
}

func (r *BusinessRepo) ByID(id string) (domain.Business, error) {
	var b domain.Business
	err := r.db.Get(&b, `
	  SELECT id, name, code, created_at FROM businesses WHERE id = ?
	`, id)
	return b, err
}

func (r *BusinessRepo) Create(b domain.Business) error {
	_, err := r.db.Exec(`
	  INSERT INTO businesses(id,name,code,created_at) VALUES(?,?,?,CURRENT_TIMESTAMP)
	`, b.ID, b.Name, b.Code)
	return err
}
