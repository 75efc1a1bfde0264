package auth

import "github.com/nikhilkumar688/SamayBihar/internal/apperr"

// RequireSelf は呼び出し元が ownerID 本人でなければ AuthorizationError を返します。
func RequireSelf(id Identity, ownerID, message string) error {
	if id.ID == "" || id.ID != ownerID {
		return apperr.Authorization(message)
	}
	return nil
}

// RequireSelfOrAdmin は本人または管理者でなければ AuthorizationError を返します。
func RequireSelfOrAdmin(id Identity, ownerID, message string) error {
	if id.IsAdmin && id.ID != "" {
		return nil
	}
	return RequireSelf(id, ownerID, message)
}
