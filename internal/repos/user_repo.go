package repos

import (
	"github.com/jmoiron/sqlx"

	"tillpoint/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id, business_id, username, pin_hash, role, active`

// ByUsername lists every user with that username. Usernames are unique only
// within one business, so login disambiguates the candidates by PIN.
func (r *UserRepo) ByUsername(username string) ([]domain.User, error) {
	var out []domain.User
	err := r.DB.Select(&out, `
	  SELECT `+userCols+` FROM users WHERE LOWER(username)=LOWER(?) ORDER BY created_at
	`, username)
	return out, err
}

func (r *UserRepo) ByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ListByBusiness(businessID string) ([]domain.User, error) {
	var out []domain.User
	err := r.DB.Select(&out, `
	  SELECT `+userCols+` FROM users WHERE business_id=? ORDER BY LOWER(username)
	`, businessID)
	return out, err
}

func (r *UserRepo) Create(u domain.User) error {
	_, err := r.DB.Exec(`
	  INSERT INTO users(id,business_id,username,pin_hash,role,active)
	  VALUES(?,?,?,?,?,?)
	`, u.ID, u.BusinessID, u.Username, u.PinHash, u.Role, u.Active)
	return err
}

func (r *UserRepo) SetActive(businessID, id string, active bool) error {
	_, err := r.DB.Exec(`
	  UPDATE users SET active=? WHERE business_id=? AND id=?
	`, active, businessID, id)
	return err
}

func (r *UserRepo) BindSession(sid, userID string) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,user_id,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP`, sid, userID)
	return err
}

func (r *UserRepo) SessionUser(sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `
      SELECT u.id,u.business_id,u.username,u.pin_hash,u.role,u.active
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.DB.Exec(`UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}
