package notifier

import (
	"strings"
	"testing"

	"vacancybot/internal/hh"
)

func intp(v int) *int { return &v }

func TestRenderSalaryShapes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		salary *hh.Salary
		want   string
	}{
		{
			name:   "full range",
			salary: &hh.Salary{From: intp(3000000), To: intp(5000000), Currency: "UZS"},
			want:   "3 000 000 - 5 000 000 UZS",
		},
		{
			name:   "lower bound only",
			salary: &hh.Salary{From: intp(4500000), Currency: "UZS"},
			want:   "от 4 500 000 UZS",
		},
		{
			name:   "upper bound only",
			salary: &hh.Salary{To: intp(900), Currency: "USD"},
			want:   "до 900 USD",
		},
		{
			name:   "bounds missing",
			salary: &hh.Salary{Currency: "UZS"},
			want:   "Не указана",
		},
		{
			name:   "no salary at all",
			salary: nil,
			want:   "Не указана",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderSalary(tt.salary); got != tt.want {
				t.Fatalf("renderSalary = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderExperience(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		exp  *hh.Experience
		want string
	}{
		{name: "known bucket", exp: &hh.Experience{ID: "noExperience"}, want: "Без опыта"},
		{name: "known bucket between", exp: &hh.Experience{ID: "between1And3"}, want: "От 1 года до 3 лет"},
		{name: "unknown bucket with name", exp: &hh.Experience{ID: "custom", Name: "Свой вариант"}, want: "Свой вариант"},
		{name: "unknown bucket no name", exp: &hh.Experience{ID: "custom"}, want: "Не указан"},
		{name: "missing", exp: nil, want: "Не указан"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderExperience(tt.exp); got != tt.want {
				t.Fatalf("renderExperience = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderFallbacks(t *testing.T) {
	t.Parallel()

	msg := Render(hh.Vacancy{ID: "1"})
	for _, want := range []string{
		"Без названия",
		"Компания не указана",
		"Регион не указан",
		"Не указана",
		"Не указан",
		"Неизвестно",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing fallback %q:\n%s", want, msg)
		}
	}
}

func TestRenderPublishedAt(t *testing.T) {
	t.Parallel()

	msg := Render(hh.Vacancy{PublishedAt: "2024-01-01T10:00:00Z"})
	if !strings.Contains(msg, "01.01.2024 10:00") {
		t.Fatalf("expected reformatted publish time, got:\n%s", msg)
	}

	// Unparseable timestamps pass through raw.
	msg = Render(hh.Vacancy{PublishedAt: "когда-то"})
	if !strings.Contains(msg, "когда-то") {
		t.Fatalf("expected raw publish time passthrough, got:\n%s", msg)
	}
}

func TestRenderLinkDomainSubstitution(t *testing.T) {
	t.Parallel()

	msg := Render(hh.Vacancy{AlternateURL: "https://hh.ru/vacancy/123"})
	if !strings.Contains(msg, "https://hh.uz/vacancy/123") {
		t.Fatalf("expected hh.uz link, got:\n%s", msg)
	}

	// alternate_url wins over url; url is the fallback.
	msg = Render(hh.Vacancy{URL: "https://api.hh.ru/vacancies/123"})
	if !strings.Contains(msg, "https://api.hh.uz/vacancies/123") {
		t.Fatalf("expected fallback url with substitution, got:\n%s", msg)
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	t.Parallel()

	msg := Render(hh.Vacancy{Name: "Юрист <senior> & Co"})
	if strings.Contains(msg, "<senior>") {
		t.Fatalf("title should be escaped:\n%s", msg)
	}
	if !strings.Contains(msg, "&lt;senior&gt; &amp; Co") {
		t.Fatalf("expected escaped title, got:\n%s", msg)
	}
}

func TestGroupDigits(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1 000"},
		{1234567, "1 234 567"},
		{-50000, "-50 000"},
	}
	for _, tt := range tests {
		if got := groupDigits(tt.in); got != tt.want {
			t.Errorf("groupDigits(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
