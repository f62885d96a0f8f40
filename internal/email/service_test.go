package email

import (
	"strings"
	"testing"
)

func TestServiceIsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected bool
	}{
		{name: "empty config", config: Config{}, expected: false},
		{name: "missing host", config: Config{Port: "587", From: "noreply@x.com"}, expected: false},
		{name: "missing port", config: Config{Host: "smtp.x.com", From: "noreply@x.com"}, expected: false},
		{name: "missing from", config: Config{Host: "smtp.x.com", Port: "587"}, expected: false},
		{name: "fully configured", config: Config{Host: "smtp.x.com", Port: "587", From: "noreply@x.com"}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.config)
			if svc.IsConfigured() != tt.expected {
				t.Errorf("IsConfigured() = %v, want %v", svc.IsConfigured(), tt.expected)
			}
		})
	}
}

func TestSendShareNotificationUnconfigured(t *testing.T) {
	svc := NewService(Config{})
	err := svc.SendShareNotification("reader@x.com", ShareNotificationData{
		SharerName:    "Ada",
		DocumentTitle: "Chapter 1",
	})
	if err == nil {
		t.Fatal("expected error when email not configured")
	}
}

func TestShareNotificationTemplateRenders(t *testing.T) {
	html, err := renderTemplate(shareNotificationTemplate, ShareNotificationData{
		AppName:       "Coscribe",
		RecipientName: "Grace",
		SharerName:    "Ada",
		DocumentTitle: "Chapter 1",
		AccessLevel:   "reader",
		DocumentURL:   "http://localhost:3000/document/doc_1",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Grace", "Ada", "Chapter 1", "reader", "http://localhost:3000/document/doc_1"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered template missing %q", want)
		}
	}
}

func TestShareNotificationTemplateEscapesHTML(t *testing.T) {
	html, err := renderTemplate(shareNotificationTemplate, ShareNotificationData{
		DocumentTitle: "<script>alert(1)</script>",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("document title was not escaped")
	}
}
