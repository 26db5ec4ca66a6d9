package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cunhadas/cadastro-api/internal/domain/user"
	"github.com/cunhadas/cadastro-api/internal/observability"
)

const projection = `id, nome_completo, email, data_nascimento, endereco, numero, complemento, cunhado, foto_url, perfil`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		pool: pool,
		prom: prom,
	}
}

// Create inserts one row and returns the assigned id and resolved role.
func (r *UsersRepo) Create(ctx context.Context, in user.CreateInput) (int64, string, error) {
	endereco, err := json.Marshal(in.Endereco)

	if err != nil {
		return 0, "", err
	}

	var (
		id     int64
		perfil string
	)

	err = r.prom.ObserveDB("users.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO users
			 (nome_completo, email, senha, data_nascimento, endereco, numero, complemento, cunhado, foto_url, perfil)
			 VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10)
			 RETURNING id, perfil`,
			in.NomeCompleto,
			in.Email,
			in.SenhaHash,
			in.DataNascimento.Time,
			endereco,
			in.Numero,
			in.Complemento,
			in.Cunhado,
			in.FotoURL,
			in.Perfil,
		).Scan(&id, &perfil)
	})

	if err != nil {
		return 0, "", err
	}

	return id, perfil, nil
}

// GetByEmail is the only read that returns the password hash; login needs it.
func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var (
		u          user.User
		nascimento time.Time
		endereco   []byte
	)

	err := r.prom.ObserveDB("users.get_by_email", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, nome_completo, email, senha, data_nascimento, endereco, numero, complemento, cunhado, foto_url, perfil
			 FROM users
			 WHERE email = $1`,
			email,
		).Scan(
			&u.ID,
			&u.NomeCompleto,
			&u.Email,
			&u.Senha,
			&nascimento,
			&endereco,
			&u.Numero,
			&u.Complemento,
			&u.Cunhado,
			&u.FotoURL,
			&u.Perfil,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	u.DataNascimento = user.Date{Time: nascimento}

	if err := json.Unmarshal(endereco, &u.Endereco); err != nil {
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	var (
		u          user.User
		nascimento time.Time
		endereco   []byte
	)

	err := r.prom.ObserveDB("users.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT `+projection+` FROM users WHERE id = $1`,
			id,
		).Scan(
			&u.ID,
			&u.NomeCompleto,
			&u.Email,
			&nascimento,
			&endereco,
			&u.Numero,
			&u.Complemento,
			&u.Cunhado,
			&u.FotoURL,
			&u.Perfil,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	u.DataNascimento = user.Date{Time: nascimento}

	if err := json.Unmarshal(endereco, &u.Endereco); err != nil {
		return user.User{}, err
	}

	return u, nil
}

// ListAll returns every row in ascending id order, password excluded.
func (r *UsersRepo) ListAll(ctx context.Context) ([]user.User, error) {
	var out []user.User

	err := r.prom.ObserveDB("users.list_all", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+projection+` FROM users ORDER BY id ASC`,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		out = make([]user.User, 0)

		for rows.Next() {
			var (
				u          user.User
				nascimento time.Time
				endereco   []byte
			)

			err = rows.Scan(
				&u.ID,
				&u.NomeCompleto,
				&u.Email,
				&nascimento,
				&endereco,
				&u.Numero,
				&u.Complemento,
				&u.Cunhado,
				&u.FotoURL,
				&u.Perfil,
			)

			if err != nil {
				return err
			}

			u.DataNascimento = user.Date{Time: nascimento}

			if err = json.Unmarshal(endereco, &u.Endereco); err != nil {
				return err
			}

			out = append(out, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// Update rewrites every mutable field. foto_url only changes when a new URL is
// supplied; COALESCE keeps the stored value for a nil FotoURL, so the old URL
// is never read back into the process.
func (r *UsersRepo) Update(ctx context.Context, id int64, in user.UpdateInput) error {
	endereco, err := json.Marshal(in.Endereco)

	if err != nil {
		return err
	}

	return r.prom.ObserveDB("users.update", func() error {
		_, err := r.pool.Exec(ctx,
			`UPDATE users
			 SET nome_completo = $1,
			     data_nascimento = $2,
			     endereco = $3::jsonb,
			     numero = $4,
			     complemento = $5,
			     cunhado = $6,
			     foto_url = COALESCE($7, foto_url)
			 WHERE id = $8`,
			in.NomeCompleto,
			in.DataNascimento.Time,
			endereco,
			in.Numero,
			in.Complemento,
			in.Cunhado,
			in.FotoURL,
			id,
		)

		return err
	})
}

func (r *UsersRepo) Delete(ctx context.Context, id int64) error {
	return r.prom.ObserveDB("users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}

		return nil
	})
}
