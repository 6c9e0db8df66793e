package transport

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsRecipientGone(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "blocked", err: errors.New("telegram: Forbidden: bot was blocked by the user (403)"), want: true},
		{name: "deactivated", err: errors.New("Forbidden: user is deactivated"), want: true},
		{name: "chat not found", err: errors.New("Bad Request: chat not found"), want: true},
		{name: "kicked", err: errors.New("Forbidden: bot was kicked from the group chat"), want: true},
		{name: "wrapped", err: fmt.Errorf("send to 111: %w", errors.New("bot was BLOCKED by the user")), want: true},
		{name: "timeout", err: errors.New("context deadline exceeded"), want: false},
		{name: "rate limited", err: errors.New("Too Many Requests: retry after 5"), want: false},
		{name: "server error", err: errors.New("Internal Server Error"), want: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRecipientGone(tc.err); got != tc.want {
				t.Errorf("IsRecipientGone(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
