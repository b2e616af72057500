package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"dndbuilder/internal/apperr"
)

// captureSender records messages instead of sending them.
type captureSender struct {
	msgs []Message
	err  error
}

func (c *captureSender) Send(_ context.Context, m Message) error {
	c.msgs = append(c.msgs, m)
	return c.err
}

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   bool
	}{
		{"empty config", Config{}, false},
		{"missing host", Config{Port: "587", From: "a@example.com"}, false},
		{"missing port", Config{Host: "smtp.example.com", From: "a@example.com"}, false},
		{"missing from", Config{Host: "smtp.example.com", Port: "587"}, false},
		{"fully configured", Config{Host: "smtp.example.com", Port: "587", From: "a@example.com"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewService(tt.config).IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListTemplates(t *testing.T) {
	names, err := NewService(Config{}).ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if diff := cmp.Diff([]string{"password-reset", "welcome"}, names); diff != "" {
		t.Errorf("templates (-want +got):\n%s", diff)
	}
}

func TestListTemplatesIgnoresOtherFiles(t *testing.T) {
	files := fstest.MapFS{
		"a.hbs":     {Data: []byte("A")},
		"notes.txt": {Data: []byte("x")},
		"sub/b.hbs": {Data: []byte("B")},
	}
	names, err := NewService(Config{}, WithTemplates(files)).ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if diff := cmp.Diff([]string{"a"}, names); diff != "" {
		t.Errorf("templates (-want +got):\n%s", diff)
	}
}

func TestTemplateContent(t *testing.T) {
	svc := NewService(Config{})

	src, err := svc.TemplateContent(TemplatePasswordReset)
	if err != nil {
		t.Fatalf("TemplateContent: %v", err)
	}
	if !strings.Contains(src, "{{resetUrl}}") {
		t.Error("expected raw handlebars source")
	}

	for _, name := range []string{"missing", "../mail", "Password-Reset", ""} {
		if _, err := svc.TemplateContent(name); !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("TemplateContent(%q): expected NotFound, got %v", name, err)
		}
	}
}

func TestPreview(t *testing.T) {
	svc := NewService(Config{FrontendURL: "https://example.com"})

	html, err := svc.Preview(TemplatePasswordReset)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !strings.Contains(html, "Hi John Doe,") {
		t.Error("preview should use sample name")
	}
	if !strings.Contains(html, "https://example.com/reset-password?token=sample-token") {
		t.Error("preview should use sample reset url")
	}

	if _, err := svc.Preview("nope"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestRenderEscapesValues(t *testing.T) {
	html, err := NewService(Config{}).Render(TemplatePasswordReset, map[string]any{"name": "<script>x</script>"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(html, "<script>x") {
		t.Error("values must be HTML-escaped")
	}
}

func TestRenderUnknownHelperFails(t *testing.T) {
	files := fstest.MapFS{"bad.hbs": {Data: []byte("{{#each}}")}}
	if _, err := NewService(Config{}, WithTemplates(files)).Render("bad", nil); err == nil {
		t.Error("expected parse error")
	}
}

func TestSendPasswordReset(t *testing.T) {
	capture := &captureSender{}
	svc := NewService(Config{FrontendURL: "https://app.example.com/"}, WithSender(capture))

	if err := svc.SendPasswordReset(context.Background(), "ada@example.com", "", "tok123"); err != nil {
		t.Fatalf("SendPasswordReset: %v", err)
	}
	if len(capture.msgs) != 1 {
		t.Fatalf("messages: got %d", len(capture.msgs))
	}
	m := capture.msgs[0]
	if m.Subject != "Password Reset Request" || m.To[0] != "ada@example.com" {
		t.Errorf("unexpected message: %+v", m)
	}
	if !strings.Contains(m.HTML, "https://app.example.com/reset-password?token=tok123") {
		t.Error("reset link missing")
	}
	if !strings.Contains(m.HTML, "Hi User,") {
		t.Error("empty name should fall back to User")
	}
}

func TestSendWelcomeError(t *testing.T) {
	capture := &captureSender{err: errors.New("relay down")}
	svc := NewService(Config{}, WithSender(capture))

	err := svc.SendWelcome(context.Background(), "ada@example.com", "Ada", "KEY")
	if err == nil || !strings.Contains(err.Error(), "relay down") {
		t.Errorf("expected sender error, got %v", err)
	}
	if !strings.Contains(capture.msgs[0].HTML, "KEY") {
		t.Error("license key missing from welcome mail")
	}
}

func TestSMTPSenderBuildsMessage(t *testing.T) {
	cfg := Config{Host: "smtp.example.com", Port: "2525", From: "no-reply@example.com", FromName: "DnD", Username: "u", Password: "p"}
	s := NewSMTPSender(cfg)

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
	)
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	err := s.Send(context.Background(), Message{To: []string{"a@example.com"}, Subject: "Hi\r\nBcc: x", HTML: "<p>Hello</p>"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAddr != "smtp.example.com:2525" || gotFrom != "no-reply@example.com" || gotTo[0] != "a@example.com" {
		t.Errorf("envelope: %s %s %v", gotAddr, gotFrom, gotTo)
	}
	for _, want := range []string{
		"From: DnD <no-reply@example.com>\r\n",
		"Subject: HiBcc: x\r\n",
		"Content-Type: text/html; charset=UTF-8",
		"<p>Hello</p>",
	} {
		if !strings.Contains(gotMsg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSMTPSenderCancelledContext(t *testing.T) {
	s := NewSMTPSender(Config{Host: "h", Port: "1", From: "f"})
	called := false
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Send(ctx, Message{To: []string{"x"}}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Error("send should not run with a cancelled context")
	}
}
