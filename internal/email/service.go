package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// Service handles email composition and sending
type Service struct {
	sender    Sender
	templates *template.Template
}

// NewService parses the embedded templates.
func NewService(sender Sender) (*Service, error) {
	tmpl, err := template.New("email").
		Funcs(template.FuncMap{"toman": formatToman}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &Service{sender: sender, templates: tmpl}, nil
}

func (s *Service) SendPurchaseReceipt(ctx context.Context, data PurchaseReceiptEmail) error {
	return s.send(ctx, data.Email, data)
}

func (s *Service) SendWalletCharged(ctx context.Context, data WalletChargedEmail) error {
	return s.send(ctx, data.Email, data)
}

func (s *Service) SendRoadmapGift(ctx context.Context, data RoadmapGiftEmail) error {
	return s.send(ctx, data.Email, data)
}

func (s *Service) send(ctx context.Context, to string, data Template) error {
	if to == "" {
		return ErrNoRecipient
	}

	htmlBody, textBody, err := s.renderTemplate(data.TemplateName(), data)
	if err != nil {
		return err
	}

	_, err = s.sender.Send(ctx, &Email{
		To:       []string{to},
		Subject:  data.Subject(),
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
	if err != nil {
		return fmt.Errorf("failed to send %s: %w", data.TemplateName(), err)
	}
	return nil
}

func (s *Service) renderTemplate(name string, data any) (string, string, error) {
	if s.templates.Lookup(name) == nil {
		return "", "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	var htmlBuf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&htmlBuf, name, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	htmlBody := htmlBuf.String()
	return htmlBody, generatePlainText(htmlBody), nil
}

// formatToman renders 1250000 as "1,250,000 toman".
func formatToman(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + " toman"
	if neg {
		return "-" + out
	}
	return out
}

// generatePlainText creates a simple plain text version from HTML
func generatePlainText(html string) string {
	text := html

	for _, tag := range []string{"<br>", "<br/>", "<br />", "</div>", "</tr>"} {
		text = strings.ReplaceAll(text, tag, "\n")
	}
	for _, tag := range []string{"</p>", "</h1>", "</h2>", "</h3>", "</table>"} {
		text = strings.ReplaceAll(text, tag, "\n\n")
	}
	text = strings.ReplaceAll(text, "</td>", " ")

	for {
		start := strings.Index(text, "<")
		if start < 0 {
			break
		}
		end := strings.Index(text[start:], ">")
		if end < 0 {
			break
		}
		text = text[:start] + text[start+end+1:]
	}

	text = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", "\"",
		"&#34;", "\"",
		"&#39;", "'",
	).Replace(text)

	lines := strings.Split(text, "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
