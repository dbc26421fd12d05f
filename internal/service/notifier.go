// internal/service/notifier.go
package service

import (
	"log"
	"time"

	"leadcollector_backend/internal/repository"
	"leadcollector_backend/pkg/config"
	"leadcollector_backend/pkg/email"
)

// ContentCategory identifies one category a published item belongs to.
type ContentCategory struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ContentItem is the payload of a publish event: the piece of content whose
// status change may trigger notification fan-out.
type ContentItem struct {
	ID          uint              `json:"id"`
	Title       string            `json:"title"`
	URL         string            `json:"url"`
	Excerpt     string            `json:"excerpt"`
	Content     string            `json:"content"`
	Author      string            `json:"author"`
	PublishedAt time.Time         `json:"published_at"`
	Categories  []ContentCategory `json:"categories"`
}

// Dispatcher fans a publish event out to category subscribers. Each
// category is handled independently with its own template and audience; a
// failure in one never blocks the others.
type Dispatcher struct {
	templates repository.TemplateRepositoryInterface
	resolver  *Resolver
	renderer  Renderer
	mailer    email.Mailer
	app       config.AppConfig
}

func NewDispatcher(
	templates repository.TemplateRepositoryInterface,
	resolver *Resolver,
	mailer email.Mailer,
	app config.AppConfig,
) *Dispatcher {
	return &Dispatcher{
		templates: templates,
		resolver:  resolver,
		mailer:    mailer,
		app:       app,
	}
}

// OnStatusTransition fires notifications when content enters the published
// state. Re-saving an already published item is a no-op, as is any
// transition to a non-published state.
func (d *Dispatcher) OnStatusTransition(oldStatus, newStatus string, item ContentItem) (int, error) {
	if newStatus != "publish" || oldStatus == "publish" {
		return 0, nil
	}
	if !d.app.NotificationsEnabled {
		return 0, nil
	}

	total := 0
	for _, category := range item.Categories {
		sent, err := d.notifyCategory(category, item)
		if err != nil {
			log.Printf("notify: category %d (%s): %v", category.ID, category.Name, err)
			continue
		}
		total += sent
	}
	return total, nil
}

// notifyCategory sends the category's active template to its resolved
// audience. No active template or an empty audience skips the category.
func (d *Dispatcher) notifyCategory(category ContentCategory, item ContentItem) (int, error) {
	template, err := d.templates.ActiveForCategory(category.ID)
	if err != nil {
		return 0, err
	}
	if template == nil {
		return 0, nil
	}

	recipients, err := d.resolver.ResolveForCategory(category.ID)
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	contentVars := d.contentVariables(category, item)

	sent := 0
	for _, lead := range recipients {
		variables := make(map[string]string, len(contentVars)+3)
		for key, value := range contentVars {
			variables[key] = value
		}
		variables["lead_email"] = lead.Email
		variables["lead_first_name"] = lead.FirstName
		variables["lead_last_name"] = lead.LastName

		subject := d.renderer.Render(template.Subject, variables)
		body := d.renderer.Render(template.Body, variables)

		if !d.mailer.Send(lead.Email, subject, body) {
			log.Printf("notify: send to %s failed (category %d)", lead.Email, category.ID)
			continue
		}
		sent++
	}

	return sent, nil
}

func (d *Dispatcher) contentVariables(category ContentCategory, item ContentItem) map[string]string {
	return map[string]string{
		"post_title":    item.Title,
		"post_url":      item.URL,
		"post_excerpt":  item.Excerpt,
		"post_content":  item.Content,
		"post_date":     item.PublishedAt.Format("2006-01-02"),
		"post_author":   item.Author,
		"category_name": category.Name,
		"site_name":     d.app.SiteName,
		"site_url":      d.app.SiteURL,
	}
}

// TestSend renders a template with canned content and delivers it to a
// single address, so admins can preview templates without publishing.
func (d *Dispatcher) TestSend(templateID uint, to string) error {
	template, err := d.templates.GetByID(templateID)
	if err != nil {
		return &NotFoundError{Resource: "template", ID: templateID}
	}

	variables := map[string]string{
		"post_title":      "Sample Post Title",
		"post_url":        d.app.SiteURL + "/sample-post",
		"post_excerpt":    "This is a sample excerpt used for template previews.",
		"post_content":    "<p>This is sample content used for template previews.</p>",
		"post_date":       time.Now().Format("2006-01-02"),
		"post_author":     "Sample Author",
		"category_name":   "Sample Category",
		"site_name":       d.app.SiteName,
		"site_url":        d.app.SiteURL,
		"lead_email":      to,
		"lead_first_name": "Test",
		"lead_last_name":  "Recipient",
	}

	subject := d.renderer.Render(template.Subject, variables)
	body := d.renderer.Render(template.Body, variables)

	if !d.mailer.Send(to, subject, body) {
		return validationf("test email to %s could not be delivered", to)
	}
	return nil
}
