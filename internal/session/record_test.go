package session

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/me/authkit/pkg/model"
)

func TestEncodeRecord_FieldNames(t *testing.T) {
	sess := &model.Session{
		Email:     "ann@example.com",
		UserID:    7,
		Token:     "tok",
		ExpiresAt: time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC),
		Roles:     []string{"user"},
	}
	raw, err := EncodeRecord(sess)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	for _, key := range []string{"email", "id", "token", "tokenExpirationDate", "role"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("record missing %q: %s", key, raw)
		}
	}
	if len(fields) != 5 {
		t.Errorf("record has %d fields, want 5: %s", len(fields), raw)
	}
	if fields["tokenExpirationDate"] != "2030-05-01T12:00:00Z" {
		t.Errorf("tokenExpirationDate = %v", fields["tokenExpirationDate"])
	}
}

func TestDecodeRecord(t *testing.T) {
	sess, err := DecodeRecord(`{"email":"ann@example.com","id":7,"token":"tok","tokenExpirationDate":"2030-05-01T12:00:00Z","role":["user","admin"]}`)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if sess.Email != "ann@example.com" || sess.UserID != 7 || sess.Token != "tok" {
		t.Errorf("session = %+v", sess)
	}
	if !sess.IsAdmin() {
		t.Errorf("roles = %v, want admin included", sess.Roles)
	}
}

func TestDecodeRecord_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":      "",
		"array":      "[]",
		"no email":   `{"id":7,"token":"tok","tokenExpirationDate":"2030-05-01T12:00:00Z","role":["user"]}`,
		"zero id":    `{"email":"a@b.c","id":0,"token":"tok","tokenExpirationDate":"2030-05-01T12:00:00Z","role":["user"]}`,
		"no expiry":  `{"email":"a@b.c","id":7,"token":"tok","role":["user"]}`,
		"null role":  `{"email":"a@b.c","id":7,"token":"tok","tokenExpirationDate":"2030-05-01T12:00:00Z","role":null}`,
		"blank role": `{"email":"a@b.c","id":7,"token":"tok","tokenExpirationDate":"2030-05-01T12:00:00Z","role":[""]}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeRecord(raw); err == nil {
				t.Errorf("DecodeRecord(%q) succeeded", raw)
			}
		})
	}
}

func TestRecord_RoundTripPreservesExpiry(t *testing.T) {
	exp := time.Date(2030, 5, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	raw, err := EncodeRecord(&model.Session{Email: "a@b.c", UserID: 1, Token: "t", ExpiresAt: exp, Roles: []string{"user"}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(raw, "+01:00") {
		t.Errorf("expected offset to be kept in %s", raw)
	}
	sess, err := DecodeRecord(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !sess.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", sess.ExpiresAt, exp)
	}
}
