package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cunhadas/cadastro-api/internal/config"
	"github.com/cunhadas/cadastro-api/internal/domain/user"
	"github.com/cunhadas/cadastro-api/internal/http/middlewares"
	"github.com/cunhadas/cadastro-api/internal/security"
)

type UsersStore interface {
	Create(ctx context.Context, in user.CreateInput) (int64, string, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	ListAll(ctx context.Context) ([]user.User, error)
	Update(ctx context.Context, id int64, in user.UpdateInput) error
	Delete(ctx context.Context, id int64) error
}

type PhotoUploader interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}

type UsersHandler struct {
	store    UsersStore
	uploader PhotoUploader
}

func NewUsersHandler(store UsersStore, uploader PhotoUploader) *UsersHandler {
	return &UsersHandler{
		store:    store,
		uploader: uploader,
	}
}

// Register creates an account. The photo, when present, is uploaded before
// the insert statement runs: a failed upload aborts the whole registration
// and no partial row is ever written.
func (h *UsersHandler) Register(ctx *gin.Context) {
	var form RegisterForm

	if !BindForm(ctx, &form) {
		return
	}

	nascimento, err := user.ParseDate(form.DataNascimento)

	if err != nil {
		RespondBadRequest(ctx, "Data de nascimento inválida")
		return
	}

	hash, err := security.HashPassword(form.Senha)

	if err != nil {
		RespondInternal(ctx, "Erro ao processar cadastro", "")
		return
	}

	fotoURL, ok := h.uploadIfPresent(ctx)

	if !ok {
		return
	}

	perfil := form.Perfil

	if perfil == "" {
		perfil = user.RoleUsuario
	}

	in := user.CreateInput{
		NomeCompleto:   form.NomeCompleto,
		Email:          form.Email,
		SenhaHash:      hash,
		DataNascimento: nascimento,
		Endereco: user.Endereco{
			Cep:        form.Cep,
			Logradouro: form.Logradouro,
			Bairro:     form.Bairro,
			Cidade:     form.Cidade,
			Estado:     form.Estado,
		},
		Numero:      optional(form.Numero),
		Complemento: optional(form.Complemento),
		Cunhado:     optional(form.Cunhado),
		FotoURL:     fotoURL,
		Perfil:      perfil,
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	id, resolvedPerfil, err := h.store.Create(cctx, in)

	if err != nil {
		RespondInternal(ctx, "Erro ao salvar no banco de dados", err.Error())
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"id":     id,
		"perfil": resolvedPerfil,
	})
}

// Update rewrites a profile. Only the owner or an admin may do it, email and
// senha are untouchable, and the stored photo survives unless a new one is
// uploaded first.
func (h *UsersHandler) Update(ctx *gin.Context) {
	id, ok := pathID(ctx)

	if !ok {
		return
	}

	callerID, _ := middlewares.UserIDFromContext(ctx)
	perfil, _ := middlewares.PerfilFromContext(ctx)

	if perfil != user.RoleAdmin && callerID != id {
		RespondForbidden(ctx, "Acesso negado")
		return
	}

	var form UpdateForm

	if !BindForm(ctx, &form) {
		return
	}

	nascimento, err := user.ParseDate(form.DataNascimento)

	if err != nil {
		RespondBadRequest(ctx, "Data de nascimento inválida")
		return
	}

	fotoURL, ok := h.uploadIfPresent(ctx)

	if !ok {
		return
	}

	in := user.UpdateInput{
		NomeCompleto:   form.NomeCompleto,
		DataNascimento: nascimento,
		Endereco: user.Endereco{
			Cep:        form.Cep,
			Logradouro: form.Logradouro,
			Bairro:     form.Bairro,
			Cidade:     form.Cidade,
			Estado:     form.Estado,
		},
		Numero:      optional(form.Numero),
		Complemento: optional(form.Complemento),
		Cunhado:     optional(form.Cunhado),
		FotoURL:     fotoURL,
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.store.Update(cctx, id, in); err != nil {
		RespondInternal(ctx, "Erro ao atualizar usuário", err.Error())
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"mensagem": "Usuário atualizado com sucesso"})
}

// GetByID returns the public projection for any authenticated caller. Reads
// are deliberately looser than Update's self-or-admin rule.
func (h *UsersHandler) GetByID(ctx *gin.Context) {
	id, ok := pathID(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.store.GetByID(cctx, id)

	if err != nil {
		if err == user.ErrNotFound {
			RespondNotFound(ctx, "Usuário não encontrado")
			return
		}
		RespondInternal(ctx, "Erro ao buscar usuário", "")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// List returns every record for admins, in ascending id order, and exactly
// the caller's own record for everyone else.
func (h *UsersHandler) List(ctx *gin.Context) {
	callerID, _ := middlewares.UserIDFromContext(ctx)
	perfil, _ := middlewares.PerfilFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if perfil == user.RoleAdmin {
		users, err := h.store.ListAll(cctx)

		if err != nil {
			RespondInternal(ctx, "Erro ao buscar usuários", "")
			return
		}

		ctx.JSON(http.StatusOK, users)
		return
	}

	u, err := h.store.GetByID(cctx, callerID)

	if err != nil {
		if err == user.ErrNotFound {
			ctx.JSON(http.StatusOK, []user.User{})
			return
		}
		RespondInternal(ctx, "Erro ao buscar usuários", "")
		return
	}

	ctx.JSON(http.StatusOK, []user.User{u})
}

// Delete removes an account. Admin-only, and admins cannot delete themselves.
func (h *UsersHandler) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx)

	if !ok {
		return
	}

	callerID, _ := middlewares.UserIDFromContext(ctx)
	perfil, _ := middlewares.PerfilFromContext(ctx)

	if perfil != user.RoleAdmin {
		RespondForbidden(ctx, "Acesso negado")
		return
	}

	if callerID == id {
		RespondForbidden(ctx, "Não é possível excluir o próprio usuário")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.store.Delete(cctx, id); err != nil {
		if err == user.ErrNotFound {
			RespondNotFound(ctx, "Usuário não encontrado")
			return
		}
		RespondInternal(ctx, "Erro ao excluir usuário", err.Error())
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"mensagem": "Usuário excluído com sucesso"})
}

// uploadIfPresent uploads the "foto" file when one was sent. The bool is
// false when an upload was attempted and failed; the response is already
// written in that case.
func (h *UsersHandler) uploadIfPresent(ctx *gin.Context) (*string, bool) {
	file, err := ctx.FormFile("foto")

	if err != nil || file == nil {
		return nil, true
	}

	url, err := h.uploadPhoto(file)

	if err != nil {
		RespondInternal(ctx, "Erro ao enviar foto", err.Error())
		return nil, false
	}

	return &url, true
}

func (h *UsersHandler) uploadPhoto(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()

	if err != nil {
		return "", err
	}

	defer src.Close()

	contentType := file.Header.Get("Content-Type")

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	cctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	return h.uploader.Upload(cctx, filepath.Base(file.Filename), contentType, src)
}

func pathID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil {
		RespondBadRequest(ctx, "ID inválido")
		return 0, false
	}

	return id, true
}
