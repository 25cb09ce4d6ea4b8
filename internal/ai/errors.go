package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/purrpal/purrpal/internal/ml"
)

// Kind tags a ClassifiedError.
type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindServiceUnavailable Kind = "service_unavailable"
	KindTimeout            Kind = "timeout"
	KindRateLimited        Kind = "rate_limited"
	KindAuth               Kind = "auth_error"
	KindUnknown            Kind = "unknown"
)

// Lang selects the language of user-facing messages.
type Lang string

const (
	LangEN Lang = "en"
	LangID Lang = "id"
)

// Subject names the feature a user-facing message talks about.
type Subject string

const (
	SubjectDiagnosis Subject = "diagnosis"
	SubjectChatbot   Subject = "chatbot"
)

// ClassifiedError is the user-facing form of any failure on the diagnosis or
// chatbot path. Detail keeps the raw diagnostic text.
type ClassifiedError struct {
	Kind        Kind
	Message     string
	Detail      string
	Suggestions []string
	Err         error
}

func (e *ClassifiedError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

// NewValidationError builds a ValidationError with msg as the user-facing message.
func NewValidationError(msg string) *ClassifiedError {
	return &ClassifiedError{Kind: KindValidation, Message: msg}
}

// IsKind reports whether err is a ClassifiedError of kind k.
func IsKind(err error, k Kind) bool {
	var ce *ClassifiedError
	return errors.As(err, &ce) && ce.Kind == k
}

type messages struct {
	text        string
	detail      string
	suggestions []string
}

var (
	retrySuggestionsEN = []string{
		"Try again in a few minutes",
		"Refresh the page and try again",
		"Contact support if the problem persists",
	}
	retrySuggestionsID = []string{
		"Coba lagi dalam beberapa menit",
		"Refresh halaman dan coba lagi",
		"Hubungi support jika masalah berlanjut",
	}
)

type catalogKey struct {
	lang    Lang
	subject Subject
}

// catalog holds the message for each kind. Kinds that read the same for every
// subject are filled in by init from sharedMessages.
var catalog = map[catalogKey]map[Kind]messages{
	{LangEN, SubjectDiagnosis}: {
		KindServiceUnavailable: {
			text:        "ML service is currently unavailable. Please try again later.",
			detail:      "The machine learning service is not responding. This might be a temporary issue.",
			suggestions: retrySuggestionsEN,
		},
		KindTimeout: {
			text:        "The request took too long to complete. Please try again with shorter input.",
			suggestions: []string{"Try again with shorter input"},
		},
		KindUnknown: {text: "Failed to process prediction request"},
	},
	{LangEN, SubjectChatbot}: {
		KindServiceUnavailable: {
			text:        "Chatbot service is currently unavailable. Please try again later.",
			suggestions: retrySuggestionsEN,
		},
		KindTimeout: {
			text:        "The chatbot took too long to respond. Please try a shorter question.",
			suggestions: []string{"Try a shorter question"},
		},
		KindUnknown: {text: "Sorry, the chatbot ran into an error. Please try again."},
	},
	{LangID, SubjectDiagnosis}: {
		KindServiceUnavailable: {
			text:        "Layanan diagnosis sedang tidak tersedia. Silakan coba lagi nanti.",
			suggestions: retrySuggestionsID,
		},
		KindTimeout: {
			text:        "Analisis gejala memerlukan waktu terlalu lama. Silakan coba lagi.",
			suggestions: []string{"Coba lagi dalam beberapa saat"},
		},
		KindUnknown: {text: "Maaf, terjadi kesalahan saat memproses diagnosis. Silakan coba lagi."},
	},
	{LangID, SubjectChatbot}: {
		KindServiceUnavailable: {
			text:        "Layanan chatbot sedang tidak tersedia. Silakan coba lagi nanti.",
			suggestions: retrySuggestionsID,
		},
		KindTimeout: {
			text:        "Respons chatbot memerlukan waktu terlalu lama. Silakan coba dengan pertanyaan yang lebih singkat.",
			suggestions: []string{"Coba dengan pertanyaan yang lebih singkat"},
		},
		KindUnknown: {text: "Maaf, terjadi kesalahan pada sistem chatbot. Silakan coba lagi."},
	},
}

var sharedMessages = map[Lang]map[Kind]messages{
	LangEN: {
		KindRateLimited: {
			text:        "Too many requests. Please wait a moment before trying again.",
			suggestions: []string{"Wait a moment before trying again"},
		},
		KindAuth: {
			text:        "The service is misconfigured. Please contact support.",
			suggestions: []string{"Contact support"},
		},
	},
	LangID: {
		KindRateLimited: {
			text:        "Terlalu banyak permintaan. Silakan tunggu sebentar sebelum mencoba lagi.",
			suggestions: []string{"Tunggu sebentar sebelum mencoba lagi"},
		},
		KindAuth: {
			text:        "Terjadi masalah konfigurasi layanan. Silakan hubungi support.",
			suggestions: []string{"Hubungi support"},
		},
	},
}

func init() {
	for key, kinds := range catalog {
		for kind, m := range sharedMessages[key.lang] {
			kinds[kind] = m
		}
	}
}

// Classify maps err to a ClassifiedError with English diagnosis messages. Tags
// attached at the failure site win; message matching is only a fallback for
// errors that carry no tag.
func Classify(err error) *ClassifiedError {
	return ClassifyFor(err, LangEN, SubjectDiagnosis)
}

// ClassifyFor is Classify with messages in lang about subject.
func ClassifyFor(err error, lang Lang, subject Subject) *ClassifiedError {
	if err == nil {
		return nil
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		if ce.Kind == KindValidation {
			return ce
		}
		return ce.In(lang, subject)
	}

	kind, tagged := kindFromTag(err)
	if !tagged {
		kind = kindFromMessage(err.Error())
	}
	return build(kind, lang, subject, err)
}

// In returns a copy of e with its message and suggestions in lang about
// subject. Validation messages are left untouched.
func (e *ClassifiedError) In(lang Lang, subject Subject) *ClassifiedError {
	if e.Kind == KindValidation {
		return e
	}
	out := build(e.Kind, lang, subject, e.Err)
	if e.Err == nil {
		out.Detail = e.Detail
	}
	return out
}

func build(kind Kind, lang Lang, subject Subject, err error) *ClassifiedError {
	m, ok := catalog[catalogKey{lang, subject}][kind]
	if !ok {
		m = catalog[catalogKey{LangEN, SubjectDiagnosis}][kind]
	}
	out := &ClassifiedError{
		Kind:        kind,
		Message:     m.text,
		Detail:      m.detail,
		Suggestions: append([]string(nil), m.suggestions...),
		Err:         err,
	}
	if kind == KindUnknown && err != nil {
		out.Detail = err.Error()
	}
	return out
}

// kindFromTag checks structured tags in precedence order. A StatusError with no
// more specific meaning is tagged Unknown.
func kindFromTag(err error) (Kind, bool) {
	switch {
	case errors.Is(err, ml.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout, true
	case errors.Is(err, ml.ErrRateLimited):
		return KindRateLimited, true
	case errors.Is(err, ml.ErrAuth):
		return KindAuth, true
	case errors.Is(err, ml.ErrUnavailable):
		return KindServiceUnavailable, true
	}

	var statusErr *ml.StatusError
	if errors.As(err, &statusErr) {
		return KindUnknown, true
	}
	if errors.Is(err, ml.ErrInvalidResponse) || errors.Is(err, ml.ErrPredictionFailed) {
		return KindUnknown, true
	}
	return "", false
}

// kindFromMessage is the compatibility fallback for untagged errors such as
// those coming from third-party clients. First match wins.
func kindFromMessage(msg string) Kind {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "timeout"):
		return KindTimeout
	case strings.Contains(m, "rate limit"):
		return KindRateLimited
	case strings.Contains(m, "authentication"), strings.Contains(m, "permission"):
		return KindAuth
	case strings.Contains(m, "connection refused"),
		strings.Contains(m, "econnrefused"),
		strings.Contains(m, "fetch"),
		strings.Contains(m, "no such host"):
		return KindServiceUnavailable
	}
	return KindUnknown
}

// WithService rewrites the unavailable message for a named collaborator,
// e.g. "Vision service".
func (e *ClassifiedError) WithService(name, detail string) *ClassifiedError {
	if e.Kind != KindServiceUnavailable {
		return e
	}
	out := *e
	out.Message = fmt.Sprintf("%s is currently unavailable. Please try again later.", name)
	out.Detail = detail
	return &out
}
