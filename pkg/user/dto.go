package user

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/tendant/simple-account/pkg/storage"
)

// DTO is the public projection of a User. It never carries the password hash.
type DTO struct {
	UserID      uuid.UUID  `json:"userId"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	UserPicture string     `json:"userPicture"`
	MfaEnabled  bool       `json:"mfaEnabled"`
	MfaMethod   *MfaMethod `json:"mfaMethod"`
	MfaKey      *MfaKey    `json:"mfaKey"`
	Provider    Provider   `json:"provider"`
	Status      Status     `json:"status"`
}

// ToDTO maps u to its public form, mounting the picture against cdnURL.
func ToDTO(u User, cdnURL string) DTO {
	var dto DTO
	if err := copier.Copy(&dto, &u); err != nil {
		slog.Error("Failed to copy user to dto", "userId", u.ID, "err", err)
	}
	dto.UserID = u.ID
	dto.UserPicture = storage.MountMediaURL(cdnURL, u.UserPicture)
	dto.MfaMethod = nil
	if u.MfaMethod.Valid() {
		method := u.MfaMethod
		dto.MfaMethod = &method
	}
	return dto
}
