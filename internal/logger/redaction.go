package logger

import (
	"io"
	"regexp"
)

// credentialPatterns matches the secrets this process handles: LLM API
// keys, Google OAuth material, and the generic key=value shapes that
// show up when a struct with a credential field gets logged whole.
var credentialPatterns = []string{
	`sk-ant-[a-zA-Z0-9_-]{20,}`,
	`sk-[a-zA-Z0-9_-]{20,}`,
	`Bearer\s+[a-zA-Z0-9._-]+`,

	// Google OAuth: access tokens, client secrets, refresh tokens.
	`ya29\.[a-zA-Z0-9._-]+`,
	`GOCSPX-[a-zA-Z0-9_-]+`,
	`1//[a-zA-Z0-9_-]{20,}`,

	`AKIA[0-9A-Z]{16}`,
	`password["\s:=]+[^\s"]+`,
	`pwd["\s:=]+[^\s"]+`,
	`token["\s:=]+[a-zA-Z0-9._-]{20,}`,
	`secret["\s:=]+[^\s"]+`,
}

// Redactor replaces credential-shaped substrings with a placeholder
// before log lines reach a sink.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor returns a redactor loaded with credentialPatterns.
func NewRedactor() *Redactor {
	patterns := make([]*regexp.Regexp, 0, len(credentialPatterns))
	for _, expr := range credentialPatterns {
		patterns = append(patterns, regexp.MustCompile(expr))
	}
	return &Redactor{patterns: patterns}
}

// AddPattern registers an extra redaction pattern.
func (r *Redactor) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	r.patterns = append(r.patterns, re)
	return nil
}

// Redact returns s with every pattern match replaced by [REDACTED].
func (r *Redactor) Redact(s string) string {
	for _, pattern := range r.patterns {
		s = pattern.ReplaceAllString(s, "[REDACTED]")
	}
	return s
}

// Wrap returns a writer that redacts everything written through it
// before passing it on to w.
func (r *Redactor) Wrap(w io.Writer) io.Writer {
	return &redactingWriter{writer: w, redactor: r}
}

type redactingWriter struct {
	writer   io.Writer
	redactor *Redactor
}

func (w *redactingWriter) Write(p []byte) (n int, err error) {
	return w.writer.Write([]byte(w.redactor.Redact(string(p))))
}
