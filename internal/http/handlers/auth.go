package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cunhadas/cadastro-api/internal/auth"
	"github.com/cunhadas/cadastro-api/internal/config"
	"github.com/cunhadas/cadastro-api/internal/domain/user"
	"github.com/cunhadas/cadastro-api/internal/security"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type AuthHandler struct {
	users UserReader
	jwt   *auth.Manager
}

func NewAuthHandler(users UserReader, jwtManager *auth.Manager) *AuthHandler {
	return &AuthHandler{
		users: users,
		jwt:   jwtManager,
	}
}

type LoginRequest struct {
	Email string `json:"email" binding:"required"`
	Senha string `json:"senha" binding:"required"`
}

// Login answers the same 401 body for an unknown email and a wrong password,
// so callers cannot probe which emails are registered.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(ctx, "Requisição inválida")
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		RespondUnauthorized(ctx, "Usuário ou senha inválidos")
		return
	}

	err = security.CheckPassword(foundUser.Senha, req.Senha)

	if err != nil {
		RespondUnauthorized(ctx, "Usuário ou senha inválidos")
		return
	}

	token, err := h.jwt.GenerateToken(foundUser.ID, foundUser.Email, foundUser.Perfil)

	if err != nil {
		RespondInternal(ctx, "Erro no login", "")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token":         token,
		"perfil":        foundUser.Perfil,
		"nome_completo": foundUser.NomeCompleto,
		"id":            foundUser.ID,
	})
}
