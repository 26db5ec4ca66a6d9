package user

import (
	"errors"
	"fmt"
	"time"
)

// Roles form a closed set; new accounts default to RoleUsuario.
const (
	RoleUsuario = "usuario"
	RoleAdmin   = "admin"
)

var ErrNotFound = errors.New("user not found")

// Endereco is persisted as one jsonb unit and never updated field-by-field.
type Endereco struct {
	Cep        string `json:"cep"`
	Logradouro string `json:"logradouro"`
	Bairro     string `json:"bairro"`
	Cidade     string `json:"cidade"`
	Estado     string `json:"estado"`
}

const dateLayout = "2006-01-02"

// Date carries a birth date and marshals as YYYY-MM-DD, the format the
// frontend sends and expects back.
type Date struct {
	time.Time
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)

	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}

	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)

	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}

	parsed, err := ParseDate(s[1 : len(s)-1])

	if err != nil {
		return err
	}

	*d = parsed

	return nil
}

type User struct {
	ID             int64    `json:"id"`
	NomeCompleto   string   `json:"nome_completo"`
	Email          string   `json:"email"`
	Senha          string   `json:"-"` // bcrypt hash, never exposed
	DataNascimento Date     `json:"data_nascimento"`
	Endereco       Endereco `json:"endereco"`
	Numero         *string  `json:"numero"`
	Complemento    *string  `json:"complemento"`
	Cunhado        *string  `json:"cunhado"`
	FotoURL        *string  `json:"foto_url"`
	Perfil         string   `json:"perfil"`
}

// CreateInput carries a fully validated registration into storage. SenhaHash
// is already hashed; the plaintext never leaves the handler.
type CreateInput struct {
	NomeCompleto   string
	Email          string
	SenhaHash      string
	DataNascimento Date
	Endereco       Endereco
	Numero         *string
	Complemento    *string
	Cunhado        *string
	FotoURL        *string
	Perfil         string
}

// UpdateInput never touches email or senha. A nil FotoURL keeps the stored
// photo URL unchanged; the merge happens in SQL, not by reading it back first.
type UpdateInput struct {
	NomeCompleto   string
	DataNascimento Date
	Endereco       Endereco
	Numero         *string
	Complemento    *string
	Cunhado        *string
	FotoURL        *string
}
