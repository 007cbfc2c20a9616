package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/me/authkit/pkg/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Record is the persisted form of a Session. It is written and removed
// wholesale, never edited in place.
type Record struct {
	Email               string    `json:"email" validate:"required"`
	ID                  int64     `json:"id" validate:"required"`
	Token               string    `json:"token" validate:"required"`
	TokenExpirationDate time.Time `json:"tokenExpirationDate" validate:"required"`
	Role                []string  `json:"role" validate:"required,min=1,dive,required"`
}

func recordFromSession(s *model.Session) Record {
	return Record{
		Email:               s.Email,
		ID:                  s.UserID,
		Token:               s.Token,
		TokenExpirationDate: s.ExpiresAt,
		Role:                s.Roles,
	}
}

// Session converts the record back into a Session.
func (r Record) Session() *model.Session {
	return &model.Session{
		Email:     r.Email,
		UserID:    r.ID,
		Token:     r.Token,
		ExpiresAt: r.TokenExpirationDate,
		Roles:     append([]string(nil), r.Role...),
	}
}

// EncodeRecord serializes s for the persistent store.
func EncodeRecord(s *model.Session) (string, error) {
	data, err := json.Marshal(recordFromSession(s))
	if err != nil {
		return "", fmt.Errorf("marshal session record: %w", err)
	}
	return string(data), nil
}

// DecodeRecord parses and validates a stored record.
func DecodeRecord(raw string) (*model.Session, error) {
	var r Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("parse session record: %w", err)
	}
	if err := validate.Struct(&r); err != nil {
		return nil, fmt.Errorf("invalid session record: %w", err)
	}
	return r.Session(), nil
}
