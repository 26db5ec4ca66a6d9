package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const msgMissingFields = "Campos obrigatórios não preenchidos"

// RegisterForm is the multipart body of POST /users. Field names are part of
// the wire contract and must not change.
type RegisterForm struct {
	NomeCompleto   string `form:"nome_completo" binding:"required"`
	Email          string `form:"email" binding:"required"`
	Senha          string `form:"senha" binding:"required"`
	DataNascimento string `form:"data_nascimento" binding:"required"`
	Cep            string `form:"cep" binding:"required"`
	Logradouro     string `form:"logradouro"`
	Bairro         string `form:"bairro"`
	Cidade         string `form:"cidade"`
	Estado         string `form:"estado"`
	Numero         string `form:"numero"`
	Complemento    string `form:"complemento"`
	Cunhado        string `form:"cunhado"`
	Perfil         string `form:"perfil"`
}

// UpdateForm is the multipart body of PUT /users/:id. Email and senha are
// deliberately absent: this operation can never change them.
type UpdateForm struct {
	NomeCompleto   string `form:"nome_completo" binding:"required"`
	DataNascimento string `form:"data_nascimento" binding:"required"`
	Cep            string `form:"cep" binding:"required"`
	Logradouro     string `form:"logradouro"`
	Bairro         string `form:"bairro"`
	Cidade         string `form:"cidade"`
	Estado         string `form:"estado"`
	Numero         string `form:"numero"`
	Complemento    string `form:"complemento"`
	Cunhado        string `form:"cunhado"`
}

// BindForm binds a multipart form and answers the contract's 400 when any
// required field is missing. Validation happens before any side effect.
func BindForm(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBind(out)

	if err != nil {
		RespondError(ctx, http.StatusBadRequest, msgMissingFields, missingFields(out, err))

		return false
	}

	return true
}

// missingFields names the offending form fields when the bind failure came
// from validation, so the 400 says which ones were left out.
func missingFields(out interface{}, err error) string {
	var verrs validator.ValidationErrors

	if !errors.As(err, &verrs) {
		return ""
	}

	names := make([]string, 0, len(verrs))

	for _, fe := range verrs {
		names = append(names, formFieldName(out, fe.Field()))
	}

	return strings.Join(names, ", ")
}

func formFieldName(out interface{}, field string) string {
	t := reflect.TypeOf(out)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return field
	}

	sf, ok := t.FieldByName(field)

	if !ok {
		return field
	}

	tag := sf.Tag.Get("form")

	if tag == "" || tag == "-" {
		return field
	}

	return tag
}

// optional turns a blank form value into SQL NULL.
func optional(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
