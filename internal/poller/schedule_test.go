package poller

import (
	"testing"
	"time"
)

func TestParseSchedule(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		in      string
		want    ParsedSpec
		wantErr bool
	}{
		{name: "cron five fields", in: "*/5 * * * *", want: ParsedSpec{Kind: SpecCron, Cron: "*/5 * * * *"}},
		{name: "cron descriptor", in: "@hourly", want: ParsedSpec{Kind: SpecCron, Cron: "@hourly"}},
		{name: "cron every descriptor", in: "@every 55m", want: ParsedSpec{Kind: SpecCron, Cron: "@every 55m"}},
		{name: "bare duration", in: "5m", want: ParsedSpec{Kind: SpecInterval, Every: 5 * time.Minute}},
		{name: "compound duration", in: "2h30m", want: ParsedSpec{Kind: SpecInterval, Every: 2*time.Hour + 30*time.Minute}},
		{name: "forced cron prefix", in: "cron:0 9 * * 1", want: ParsedSpec{Kind: SpecCron, Cron: "0 9 * * 1"}},
		{name: "forced every prefix", in: "every:90s", want: ParsedSpec{Kind: SpecInterval, Every: 90 * time.Second}},
		{name: "surrounding whitespace", in: "  10m  ", want: ParsedSpec{Kind: SpecInterval, Every: 10 * time.Minute}},
		{name: "empty", in: "", wantErr: true},
		{name: "blank", in: "   ", wantErr: true},
		{name: "bad cron", in: "* * *", wantErr: true},
		{name: "bad duration", in: "fast", wantErr: true},
		{name: "zero duration", in: "0s", wantErr: true},
		{name: "negative duration", in: "-5m", wantErr: true},
		{name: "empty forced cron", in: "cron:", wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSchedule(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseSchedule(%q) = %+v, want error", tc.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSchedule(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("ParseSchedule(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}
