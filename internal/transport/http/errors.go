package httptransport

import (
	"errors"
	"net/http"

	"traguardo/backend/internal/domain"
)

// errMalformedJSON 请求体不是合法的 JSON
var errMalformedJSON = errors.New("malformed JSON body")

// 通用错误消息（沿用站点原有措辞）
const (
	MsgNotFound         = "Not found"
	MsgMethodNotAllowed = "Method not allowed"
	MsgOriginNotAllowed = "Origin not allowed"
	MsgNotConfigured    = "Configuration serveur incomplete."
	MsgInvalidJSON      = "JSON invalide."
	MsgInvalidPayload   = "Payload JSON invalide."
	MsgMissingFields    = "Champs requis manquants."
	MsgNameTooLong      = "Le nom est trop long."
	MsgInvalidEmail     = "Adresse email invalide."
	MsgMessageLength    = "Le message doit contenir entre 10 et 5000 caracteres."
	MsgUpstreamFailure  = "Echec envoi email."
	MsgBodyTooLarge     = "Requete trop volumineuse."
	MsgInternalError    = "Erreur serveur."
)

type errorResponse struct {
	err     error
	status  int
	message string
}

// 错误映射表（业务错误 -> 状态码与调用方消息），按顺序匹配
var errorResponses = []errorResponse{
	{errMalformedJSON, http.StatusBadRequest, MsgInvalidJSON},
	{domain.ErrInvalidPayload, http.StatusBadRequest, MsgInvalidPayload},
	{domain.ErrMissingFields, http.StatusBadRequest, MsgMissingFields},
	{domain.ErrNameTooLong, http.StatusBadRequest, MsgNameTooLong},
	{domain.ErrInvalidEmail, http.StatusBadRequest, MsgInvalidEmail},
	{domain.ErrInvalidMessageLength, http.StatusBadRequest, MsgMessageLength},
	{domain.ErrNotConfigured, http.StatusInternalServerError, MsgNotConfigured},
	{domain.ErrUpstream, http.StatusBadGateway, MsgUpstreamFailure},
}

// ResolveError 将错误映射为 HTTP 状态码和调用方可见的消息
//
// 未知错误一律返回 500，不暴露内部细节。
func ResolveError(err error) (int, string) {
	for _, r := range errorResponses {
		if errors.Is(err, r.err) {
			return r.status, r.message
		}
	}
	return http.StatusInternalServerError, MsgInternalError
}
