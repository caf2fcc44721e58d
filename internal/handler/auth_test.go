package handler

import (
	"database/sql"
	"testing"
	"time"

	"github.com/jesaworld/sms-backend/internal/repository"
)

func TestTwoFactorCodeValid(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	code := func(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }
	exp := func(t time.Time) sql.NullTime { return sql.NullTime{Time: t, Valid: true} }

	cases := []struct {
		name      string
		stored    sql.NullString
		expires   sql.NullTime
		presented string
		want      bool
	}{
		{"correct code inside window", code("123456"), exp(now.Add(5 * time.Minute)), "123456", true},
		{"correct code at exact expiry", code("123456"), exp(now), "123456", true},
		{"wrong code", code("123456"), exp(now.Add(5 * time.Minute)), "654321", false},
		{"expired window", code("123456"), exp(now.Add(-time.Second)), "123456", false},
		{"no code stored", sql.NullString{}, exp(now.Add(5 * time.Minute)), "123456", false},
		{"no expiry stored", code("123456"), sql.NullTime{}, "123456", false},
		{"empty presented code", code(""), exp(now.Add(5 * time.Minute)), "", false},
	}
	for _, tc := range cases {
		if got := twoFactorCodeValid(tc.stored, tc.expires, tc.presented, now); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

// The same expiry gate guards login and refresh; an expired tenant must be
// cut off from both, so rotating refresh tokens cannot outlive the license.
func TestSchoolExpiredGate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if schoolExpired(nil, now) {
		t.Fatal("a schoolless account must never count as expired")
	}
	active := repository.School{ValidUntil: now.Add(time.Hour)}
	if schoolExpired(&active, now) {
		t.Fatal("school inside its validity window reported expired")
	}
	edge := repository.School{ValidUntil: now}
	if schoolExpired(&edge, now) {
		t.Fatal("school exactly at validUntil must still be valid")
	}
	expired := repository.School{ValidUntil: now.Add(-time.Second)}
	if !schoolExpired(&expired, now) {
		t.Fatal("school past validUntil reported valid")
	}
}

func TestNullStrRoundTrip(t *testing.T) {
	if nullStr("").Valid {
		t.Fatal("empty string should map to NULL")
	}
	ns := nullStr("JSS1")
	if !ns.Valid || ns.String != "JSS1" {
		t.Fatalf("unexpected NullString %+v", ns)
	}
	if got := strOrNil(ns); got == nil || *got != "JSS1" {
		t.Fatalf("strOrNil returned %v", got)
	}
	if strOrNil(sql.NullString{}) != nil {
		t.Fatal("strOrNil of NULL should be nil")
	}
}
