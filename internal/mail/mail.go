// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package mail renders the Handlebars email templates shipped with the
// binary and delivers them over SMTP.
package mail

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aymerick/raymond"
	"go.uber.org/zap"

	"dndbuilder/internal/apperr"
	"dndbuilder/internal/logger"
)

//go:embed templates/*.hbs
var templateFS embed.FS

// Template names.
const (
	TemplatePasswordReset = "password-reset"
	TemplateWelcome       = "welcome"
)

const templateExt = ".hbs"

var validName = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Config holds SMTP and link settings.
type Config struct {
	Host        string
	Port        string
	Username    string
	Password    string
	From        string
	FromName    string
	FrontendURL string
	AppName     string
}

// Service lists, previews and sends templated emails.
type Service struct {
	cfg    Config
	files  fs.FS
	sender Sender

	mu       sync.Mutex
	compiled map[string]*raymond.Template
}

// Option configures a Service.
type Option func(*Service)

// WithSender overrides how messages are delivered.
func WithSender(s Sender) Option {
	return func(svc *Service) { svc.sender = s }
}

// WithTemplates overrides the template directory, for tests.
func WithTemplates(files fs.FS) Option {
	return func(svc *Service) { svc.files = files }
}

// NewService creates a mail service. Without SMTP settings messages are
// logged instead of sent.
func NewService(cfg Config, opts ...Option) *Service {
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "http://localhost:3000"
	}
	if cfg.AppName == "" {
		cfg.AppName = "DnD Builder"
	}
	sub, _ := fs.Sub(templateFS, "templates")
	svc := &Service{cfg: cfg, files: sub, compiled: map[string]*raymond.Template{}}
	if svc.IsConfigured() {
		svc.sender = NewSMTPSender(cfg)
	} else {
		svc.sender = logSender{}
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// IsConfigured reports whether SMTP delivery is set up.
func (s *Service) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Port != "" && s.cfg.From != ""
}

// ListTemplates returns the available template names, sorted.
func (s *Service) ListTemplates() ([]string, error) {
	entries, err := fs.ReadDir(s.files, ".")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), templateExt) {
			names = append(names, strings.TrimSuffix(e.Name(), templateExt))
		}
	}
	sort.Strings(names)
	return names, nil
}

// TemplateContent returns the raw Handlebars source of a template.
func (s *Service) TemplateContent(name string) (string, error) {
	if !validName.MatchString(name) {
		return "", apperr.NotFound("Template %s not found", name)
	}
	b, err := fs.ReadFile(s.files, path.Clean(name+templateExt))
	if err != nil {
		return "", apperr.NotFound("Template %s not found", name).Wrap(err)
	}
	return string(b), nil
}

// Render executes a template with data.
func (s *Service) Render(name string, data map[string]any) (string, error) {
	tpl, err := s.template(name)
	if err != nil {
		return "", err
	}
	out, err := tpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return out, nil
}

// Preview renders a template with sample data.
func (s *Service) Preview(name string) (string, error) {
	return s.Render(name, s.sampleData(name))
}

func (s *Service) template(name string) (*raymond.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tpl, ok := s.compiled[name]; ok {
		return tpl, nil
	}
	src, err := s.TemplateContent(name)
	if err != nil {
		return nil, err
	}
	tpl, err := raymond.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	s.compiled[name] = tpl
	return tpl, nil
}

func (s *Service) sampleData(name string) map[string]any {
	base := strings.TrimRight(s.cfg.FrontendURL, "/")
	switch name {
	case TemplatePasswordReset:
		return map[string]any{
			"name":     "John Doe",
			"resetUrl": base + "/reset-password?token=sample-token",
		}
	case TemplateWelcome:
		return map[string]any{
			"name":         "John Doe",
			"appName":      s.cfg.AppName,
			"licenseKey":   "ABCDEFGH-IJKLMNOP-QRSTUVWX-YZ234567",
			"dashboardUrl": base + "/dashboard",
		}
	default:
		return map[string]any{}
	}
}

// SendPasswordReset emails a password reset link.
func (s *Service) SendPasswordReset(ctx context.Context, email, name, token string) error {
	if name == "" {
		name = "User"
	}
	html, err := s.Render(TemplatePasswordReset, map[string]any{
		"name":     name,
		"resetUrl": strings.TrimRight(s.cfg.FrontendURL, "/") + "/reset-password?token=" + token,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, email, "Password Reset Request", html)
}

// SendWelcome emails a new user their license key.
func (s *Service) SendWelcome(ctx context.Context, email, name, licenseKey string) error {
	html, err := s.Render(TemplateWelcome, map[string]any{
		"name":         name,
		"appName":      s.cfg.AppName,
		"licenseKey":   licenseKey,
		"dashboardUrl": strings.TrimRight(s.cfg.FrontendURL, "/") + "/dashboard",
	})
	if err != nil {
		return err
	}
	return s.send(ctx, email, "Welcome to "+s.cfg.AppName, html)
}

func (s *Service) send(ctx context.Context, to, subject, html string) error {
	if err := s.sender.Send(ctx, Message{To: []string{to}, Subject: subject, HTML: html}); err != nil {
		return fmt.Errorf("send %q: %w", subject, err)
	}
	logger.FromContext(ctx).Info("email sent", zap.String("subject", subject))
	return nil
}
