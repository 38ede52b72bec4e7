package model

import (
	"time"

	"github.com/google/uuid"
)

// DesignStatus tracks a design image. Review happens outside this service.
type DesignStatus string

const (
	DesignCollection    DesignStatus = "COLLECTION"
	DesignPendingReview DesignStatus = "PENDING_REVIEW"
	DesignApproved      DesignStatus = "APPROVED"
	DesignRejected      DesignStatus = "REJECTED"
)

// Design is an uploaded handbag design image.
type Design struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	OwnerID   int64        `json:"ownerId" db:"owner_id"`
	ObjectKey string       `json:"-" db:"object_key"`
	URL       string       `json:"url" db:"url"`
	Note      string       `json:"note" db:"note"`
	Status    DesignStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
}
