// Package email drafts follow-up messages from a fixed rotation of templates and
// prepares them for delivery (mailto hand-off or a raw RFC 822 message for Gmail).
package email

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/swiftscan/internal/entity"
)

// Template renders one style of follow-up.
type Template struct {
	Name    string
	Subject func(c entity.Contact) string
	Body    func(c entity.Contact, s entity.Sender) string
}

// Templates is the rotation, in the order Regenerate walks it.
var Templates = []Template{
	{
		Name:    "Standard Professional",
		Subject: func(c entity.Contact) string { return "Great meeting you - " + c.Name },
		Body: func(c entity.Contact, s entity.Sender) string {
			return fmt.Sprintf(`Hi %s,

It was a pleasure meeting you earlier. I enjoyed our brief conversation and would love to stay in touch regarding our discussion.

Please feel free to reach out if you'd like to connect further.

Best regards,

%s
%s | %s`, firstName(c.Name), s.Name, s.Role, s.Company)
		},
	},
	{
		Name:    "Casual Coffee",
		Subject: func(c entity.Contact) string { return "Coffee? - " + c.Name },
		Body: func(c entity.Contact, s entity.Sender) string {
			return fmt.Sprintf(`Hey %s,

Great running into you! If you're around next week, I'd love to grab a coffee and continue our chat.

Let me know what works for you.

Cheers,

%s`, firstName(c.Name), s.Name)
		},
	},
	{
		Name:    "Direct Business",
		Subject: func(c entity.Contact) string { return "Follow up re: " + c.Company },
		Body: func(c entity.Contact, s entity.Sender) string {
			return fmt.Sprintf(`Dear %s,

Following up on our introduction. I see potential synergy between %s and %s.

I would appreciate the opportunity to schedule a brief call to discuss this further.

Sincerely,

%s
%s`, c.Name, c.Company, s.Company, s.Name, s.Role)
		},
	},
}

// TemplateAt returns the template an index selects; any int is valid.
func TemplateAt(index int) Template {
	n := len(Templates)
	return Templates[((index%n)+n)%n]
}

// Generate renders the template selected by index and returns the index the
// next regeneration should use. The caller owns the index.
func Generate(c entity.Contact, s entity.Sender, index int) (entity.Draft, int) {
	t := TemplateAt(index)
	return entity.Draft{
		Subject: t.Subject(c),
		Body:    t.Body(c, s),
	}, index + 1
}

// firstName is the text before the first space, or the whole name when that is empty.
func firstName(name string) string {
	if first, _, _ := strings.Cut(name, " "); first != "" {
		return first
	}
	return name
}
