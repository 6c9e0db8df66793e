package notifier

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"vacancybot/internal/hh"
)

// Placeholders for fields the API can omit. Wording matches what long-time
// subscribers already see.
const (
	fallbackTitle      = "Без названия"
	fallbackEmployer   = "Компания не указана"
	fallbackArea       = "Регион не указан"
	fallbackSalary     = "Не указана"
	fallbackExperience = "Не указан"
	fallbackPublished  = "Неизвестно"
)

// experienceNames maps HH experience bucket ids to display text.
var experienceNames = map[string]string{
	"noExperience":  "Без опыта",
	"between1And3":  "От 1 года до 3 лет",
	"between3And6":  "От 3 до 6 лет",
	"moreThan6":     "Более 6 лет",
}

// Vacancy links come back on the hh.ru domain even when the API is queried
// for Uzbekistan; subscribers expect the local mirror.
const (
	linkDomainFrom = "hh.ru"
	linkDomainTo   = "hh.uz"
)

// Render formats one vacancy as a Telegram HTML message. Every optional
// field degrades to a placeholder; Render never fails.
func Render(v hh.Vacancy) string {
	title := strings.TrimSpace(v.Name)
	if title == "" {
		title = fallbackTitle
	}
	employer := strings.TrimSpace(v.Employer.Name)
	if employer == "" {
		employer = fallbackEmployer
	}
	area := strings.TrimSpace(v.Area.Name)
	if area == "" {
		area = fallbackArea
	}

	published := fallbackPublished
	if t, ok := v.PublishedTime(); ok {
		published = t.Format("02.01.2006 15:04")
	} else if v.PublishedAt != "" {
		// Unparseable timestamps pass through raw rather than vanish.
		published = v.PublishedAt
	}

	var b strings.Builder
	b.WriteString("🆕 <b>Новая вакансия!</b>\n\n")
	fmt.Fprintf(&b, "📋 <b>%s</b>\n", html.EscapeString(title))
	fmt.Fprintf(&b, "🏢 %s\n", html.EscapeString(employer))
	fmt.Fprintf(&b, "📍 %s\n", html.EscapeString(area))
	fmt.Fprintf(&b, "💰 %s\n", html.EscapeString(renderSalary(v.Salary)))
	fmt.Fprintf(&b, "🎯 Опыт: %s\n", html.EscapeString(renderExperience(v.Experience)))
	fmt.Fprintf(&b, "📅 Опубликовано: %s\n\n", html.EscapeString(published))
	fmt.Fprintf(&b, "🔗 <a href=\"%s\">Открыть вакансию</a>", html.EscapeString(renderLink(v)))
	return b.String()
}

// renderSalary handles the four shapes a salary comes in: full range,
// lower bound only, upper bound only, not specified.
func renderSalary(s *hh.Salary) string {
	if s == nil {
		return fallbackSalary
	}
	cur := strings.TrimSpace(s.Currency)
	switch {
	case s.From != nil && s.To != nil:
		return strings.TrimSpace(fmt.Sprintf("%s - %s %s", groupDigits(*s.From), groupDigits(*s.To), cur))
	case s.From != nil:
		return strings.TrimSpace(fmt.Sprintf("от %s %s", groupDigits(*s.From), cur))
	case s.To != nil:
		return strings.TrimSpace(fmt.Sprintf("до %s %s", groupDigits(*s.To), cur))
	default:
		return fallbackSalary
	}
}

func renderExperience(e *hh.Experience) string {
	if e == nil {
		return fallbackExperience
	}
	if name, ok := experienceNames[e.ID]; ok {
		return name
	}
	if n := strings.TrimSpace(e.Name); n != "" {
		return n
	}
	return fallbackExperience
}

func renderLink(v hh.Vacancy) string {
	return strings.Replace(v.Link(), linkDomainFrom, linkDomainTo, 1)
}

// groupDigits renders 1234567 as "1 234 567".
func groupDigits(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
