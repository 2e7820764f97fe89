package entity

import (
	"time"

	"github.com/shandysiswandi/stepup/internal/pkg/valueobject"
)

// DeliveryLog tracks one attempt to deliver an OTP code to a user.
type DeliveryLog struct {
	ID               int64
	ChallengeID      int64
	UserID           int64
	Email            string
	Channel          Channel
	Status           DeliveryStatus
	ProviderResponse valueobject.JSONMap
	NextRetryAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type CreateDeliveryLog struct {
	ID          int64
	ChallengeID int64
	UserID      int64
	Email       string
	Channel     Channel
	Status      DeliveryStatus
}

type UpdateDeliveryLog struct {
	ID               int64
	Status           DeliveryStatus
	ProviderResponse valueobject.JSONMap
	NextRetryAt      *time.Time
}
