// Package chat runs questions through the retrieval backend and keeps the
// conversation transcript.
//
// Every failure mode of Ask terminates inside the pipeline as a
// user-displayable Result; no error escapes to the caller. The distinction
// between outcome kinds matters to the UI: a missing-documents warning is
// not an error, a backend refusal is not a network failure, and only
// answered questions enter the history.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/docsage/docsage/internal/auth"
	"github.com/docsage/docsage/internal/backend"
	"github.com/docsage/docsage/internal/log"
)

// User-facing outcome texts. The no-documents texts mirror the backend's
// own refusal wording so both paths read the same to the user.
const (
	msgEmptyQuestion    = "Please enter a question."
	msgNoDocuments      = "You have not uploaded any documents yet. Please upload one first."
	msgNotAuthenticated = "User not authenticated. Please log in again."
	msgRetrievalError   = "Error retrieving answer"
)

// Kind classifies an Ask outcome.
type Kind int

const (
	// KindAnswered is a successful answer; the only kind recorded in history.
	KindAnswered Kind = iota

	// KindEmptyQuestion is the local validation failure for blank input.
	KindEmptyQuestion

	// KindNoDocuments is the precondition warning: nothing uploaded yet.
	// A warning, not an error.
	KindNoDocuments

	// KindNotAuthenticated means no credential could be obtained.
	KindNotAuthenticated

	// KindFailed covers backend soft errors and transport failures.
	KindFailed
)

// Result is the terminal, displayable outcome of one Ask call.
type Result struct {
	Kind     Kind
	Question string
	Answer   string   // answer payload, or the failure/warning text
	Sources  []string // distinct reference basenames, first-seen order
}

// Credentials mints bearer tokens. Implemented by auth.Guard.
type Credentials interface {
	Token(ctx context.Context) (string, error)
}

// Querier asks the retrieval backend. Implemented by backend.Client.
type Querier interface {
	Query(ctx context.Context, token, question string, topK int) (*backend.QueryResult, error)
}

// DocumentSource reports whether any documents are available to query.
// Implemented by docs.Registry.
type DocumentSource interface {
	Empty() bool
}

// Service is the query pipeline.
type Service struct {
	creds   Credentials
	querier Querier
	docsrc  DocumentSource
	history *History
	topK    int
	logger  log.Logger
}

// NewService creates a query pipeline writing to history.
func NewService(creds Credentials, querier Querier, docsrc DocumentSource, history *History, topK int, logger log.Logger) *Service {
	return &Service{
		creds:   creds,
		querier: querier,
		docsrc:  docsrc,
		history: history,
		topK:    topK,
		logger:  logger,
	}
}

// History exposes the transcript for display.
func (s *Service) History() *History {
	return s.history
}

// Ask runs one question through the pipeline.
//
// Order of checks matches the contract: blank input and the empty-registry
// precondition fail before any network traffic, then the credential is
// resolved immediately before dispatch. No retry is attempted; the caller
// may simply ask again.
func (s *Service) Ask(ctx context.Context, question string) Result {
	question = strings.TrimSpace(question)
	if question == "" {
		return Result{Kind: KindEmptyQuestion, Answer: msgEmptyQuestion}
	}

	if s.docsrc.Empty() {
		return Result{Kind: KindNoDocuments, Question: question, Answer: msgNoDocuments}
	}

	token, err := s.creds.Token(ctx)
	if err != nil {
		if !errors.Is(err, auth.ErrUnauthenticated) {
			s.logger.Warn("credential resolution failed", "error", err)
		}
		return Result{Kind: KindNotAuthenticated, Question: question, Answer: msgNotAuthenticated}
	}

	res, err := s.querier.Query(ctx, token, question, s.topK)
	if err != nil {
		return s.failure(question, err)
	}

	result := Result{
		Kind:     KindAnswered,
		Question: question,
		Answer:   res.Answer,
		Sources:  uniqueBasenames(res.References),
	}

	s.history.Record(Entry{
		Question: result.Question,
		Answer:   result.Answer,
		Sources:  result.Sources,
	})

	return result
}

// failure maps a query error to its displayable outcome. Soft errors
// surface their message verbatim; transport failures fall back to a
// generic message, preferring any structured message the failure carried.
// References are cleared on every failure path.
func (s *Service) failure(question string, err error) Result {
	var soft *backend.SoftError
	if errors.As(err, &soft) {
		msg := soft.Message
		if msg == "" {
			msg = msgNoDocuments
		}
		return Result{Kind: KindFailed, Question: question, Answer: msg}
	}

	s.logger.Warn("query failed", "error", err)

	var httpErr *backend.HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return Result{Kind: KindFailed, Question: question, Answer: httpErr.Message}
	}
	return Result{Kind: KindFailed, Question: question, Answer: msgRetrievalError}
}
