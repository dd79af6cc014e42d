package sanitize

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRedact_Totality(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		sensitive string
		token     string
	}{
		{"email", "contact jane.doe+bnpl@example.co.uk for help", "jane.doe+bnpl@example.co.uk", TokenEmail},
		{"phone dashes", "call 555-867-5309 now", "555-867-5309", TokenPhone},
		{"phone parens", "call (555) 867-5309 now", "867-5309", TokenPhone},
		{"phone dots intl", "call +1.555.867.5309", "555.867.5309", TokenPhone},
		{"phone bare", "sms 5558675309", "5558675309", TokenPhone},
		{"phone uk", "call +44 20 7946 0958 today", "7946 0958", TokenPhone},
		{"phone intl dashed", "whatsapp +61-412-345-678", "412-345-678", TokenPhone},
		{"card spaced", "card 4111 1111 1111 1111 declined", "4111 1111 1111 1111", TokenCard},
		{"card dashed", "card 4111-1111-1111-1111 declined", "4111-1111-1111-1111", TokenCard},
		{"card contiguous", "card 4111111111111111", "4111111111111111", TokenCard},
		{"card 13 digits", "card 4222222222222", "4222222222222", TokenCard},
		{"ssn", "ssn 123-45-6789 on file", "123-45-6789", TokenSSN},
		{"unix path", "open /home/jane/mail/klarna.eml failed", "/home/jane/mail/klarna.eml", TokenPath},
		{"home path", "read ~/Downloads/affirm.txt", "~/Downloads/affirm.txt", TokenPath},
		{"relative path", "see ./data/users/jane.txt", "./data/users/jane.txt", TokenPath},
		{"parent path", "moved to ../mail/x", "../mail/x", TokenPath},
		{"relative single segment", "wrote ./jane.eml", "./jane.eml", TokenPath},
		{"absolute single segment", "path /secrets", "/secrets", TokenPath},
		{"absolute file", "open /jane.txt failed", "/jane.txt", TokenPath},
		{"windows path", `read C:\Users\jane\Mail\sezzle.txt failed`, `C:\Users\jane\Mail\sezzle.txt`, TokenPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Redact(tt.in)
			require.NotContains(t, got, tt.sensitive)
			require.Contains(t, got, tt.token)
		})
	}
}

func TestRedact_KeepsOrdinaryText(t *testing.T) {
	in := "Your Klarna payment of $45.00 is due 01/31/2025 (installment 2 of 4)"
	require.Equal(t, in, Redact(in))
	for _, in := range []string{
		"Payment 2/4 of $25.00 is due 2/14/2025.",
		"Manage your plan at zip.co/app",
		"Total: $120.50 / 4 payments",
	} {
		require.Equal(t, in, Redact(in))
	}
	require.Equal(t, "", Redact(""))
}

func TestPreview(t *testing.T) {
	got := Preview("mail jane@example.com about the order with a long tail of text", 20)
	require.NotContains(t, got, "jane@example.com")
	require.Equal(t, 20, len([]rune(got)))
	require.True(t, strings.HasSuffix(got, "…"))

	require.Equal(t, "short", Preview("short", 20))
}

func TestOptions_RedactsAtSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, Options(&slog.HandlerOptions{Level: slog.LevelDebug})))

	logger.Error("failed for jane@example.com",
		"fragment", "ssn 123-45-6789",
		"err", errors.New("open /var/mail/jane/inbox failed"),
		"lines", []string{"card 4111 1111 1111 1111"},
	)

	out := buf.String()
	for _, s := range []string{"jane@example.com", "123-45-6789", "/var/mail/jane/inbox", "4111 1111 1111 1111"} {
		require.NotContains(t, out, s)
	}
	require.Contains(t, out, TokenEmail)
	require.Contains(t, out, TokenSSN)
	require.Contains(t, out, TokenPath)
	require.Contains(t, out, TokenCard)
}

func TestOptions_ChainsExistingReplaceAttr(t *testing.T) {
	var buf bytes.Buffer
	opts := &slog.HandlerOptions{
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}
	slog.New(slog.NewTextHandler(&buf, Options(opts))).Info("ping", "who", "bob@example.com")

	require.NotContains(t, buf.String(), "time=")
	require.Contains(t, buf.String(), "who="+TokenEmail)
}
