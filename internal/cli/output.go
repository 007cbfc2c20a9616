package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/me/authkit/pkg/model"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by -o.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// writeStructured writes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// sessionView is the printable form of a session. The token is left out.
type sessionView struct {
	LoggedIn  bool      `json:"loggedIn" yaml:"loggedIn"`
	Email     string    `json:"email,omitempty" yaml:"email,omitempty"`
	ID        int64     `json:"id,omitempty" yaml:"id,omitempty"`
	Roles     []string  `json:"role,omitempty" yaml:"role,omitempty"`
	ExpiresAt time.Time `json:"tokenExpirationDate,omitzero" yaml:"tokenExpirationDate,omitempty"`
	ExpiresIn string    `json:"expiresIn,omitempty" yaml:"expiresIn,omitempty"`
}

func newSessionView(s *model.Session, now time.Time) sessionView {
	if s == nil {
		return sessionView{}
	}
	return sessionView{
		LoggedIn:  true,
		Email:     s.Email,
		ID:        s.UserID,
		Roles:     s.Roles,
		ExpiresAt: s.ExpiresAt,
		ExpiresIn: s.Remaining(now).Round(time.Second).String(),
	}
}

func describeSession(s *model.Session) string {
	return fmt.Sprintf("%s (id %d, roles %v) until %s", s.Email, s.UserID, s.Roles, s.ExpiresAt.Local().Format(time.RFC3339))
}
