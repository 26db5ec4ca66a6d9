package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cunhadas/cadastro-api/internal/domain/user"
	"github.com/cunhadas/cadastro-api/internal/security"
)

// Fixed bootstrap credentials. Meant to be changed after first login.
const (
	DefaultAdminEmail    = "admin@cunhadas.com"
	DefaultAdminPassword = "admin123"
)

// EnsureAdminUser creates the default administrator when no account with the
// admin role exists. Idempotency comes from the existence check: running it
// twice inserts nothing the second time.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool) error {
	var id int64

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE perfil = 'admin' LIMIT 1`).Scan(&id)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(DefaultAdminPassword)

	if err != nil {
		return err
	}

	endereco, err := json.Marshal(user.Endereco{
		Cep:        "00000000",
		Logradouro: "Rua Principal",
		Bairro:     "Centro",
		Cidade:     "Manaus",
		Estado:     "AM",
	})

	if err != nil {
		return err
	}

	nascimento := time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)

	_, err = pool.Exec(ctx,
		`INSERT INTO users
		 (nome_completo, email, senha, data_nascimento, endereco, numero, complemento, cunhado, foto_url, perfil)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10)`,
		"Administrador do Sistema",
		DefaultAdminEmail,
		hash,
		nascimento,
		endereco,
		"100",
		nil,
		"N/A",
		nil,
		user.RoleAdmin,
	)

	return err
}
