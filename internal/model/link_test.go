package model

import (
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com", false},
		{"http://docs.example.com/path", false},
		{"", true},
		{"example.com", true},
		{"://broken", true},
	}

	for _, tt := range tests {
		l := &LinkRecord{URL: tt.url}
		err := l.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestHost(t *testing.T) {
	l := &LinkRecord{URL: "https://www.example.com/a/b"}
	if got := l.Host(); got != "example.com" {
		t.Errorf("Expected host example.com, got %s", got)
	}
}

func TestClickStatsClone(t *testing.T) {
	now := time.Now()
	orig := ClickStats{"cicd": {Count: 2, LastClickAt: &now}}

	clone := orig.Clone()
	*clone["cicd"].LastClickAt = now.Add(time.Hour)
	clone["docs"] = ClickStat{Count: 1}

	if !orig["cicd"].LastClickAt.Equal(now) {
		t.Error("Expected clone to not share timestamps with original")
	}
	if _, ok := orig["docs"]; ok {
		t.Error("Expected clone to not share map with original")
	}
	if clone.Total() != 3 {
		t.Errorf("Expected total 3, got %d", clone.Total())
	}
}

func TestNewSessionID(t *testing.T) {
	a := NewSessionID()
	b := NewSessionID()
	if a == b {
		t.Error("Expected distinct session IDs")
	}
	if !ValidSessionID(a) {
		t.Errorf("Expected valid session ID, got %s", a)
	}
	if ValidSessionID("short") {
		t.Error("Expected short ID to be invalid")
	}
}
