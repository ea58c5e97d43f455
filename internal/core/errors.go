package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"featurescout/internal/i18n"
)

// ExampleLink is shown to users whose input could not be used.
const ExampleLink = "https://open.spotify.com/track/2WjkOw9JVbvAdKKUaGs3OK"

// ErrNotAuthenticated is returned by catalog calls made before a token is installed.
var ErrNotAuthenticated = errors.New("catalog client not authenticated")

type ErrorKind int

const (
	// KindUnclassified covers every failure without a known status
	KindUnclassified ErrorKind = iota
	// KindMalformedInput is input that is not a URL
	KindMalformedInput
	// KindUnsupportedHost is a URL outside the catalog domain
	KindUnsupportedHost
	// KindUnsupportedContentType is a catalog URL of a type we cannot resolve
	KindUnsupportedContentType
	// KindAllInvalidIDs is a bulk track fetch where no id exists
	KindAllInvalidIDs
	// KindBadRequest is a 400 from the catalog API
	KindBadRequest
	// KindUnauthorized is a 401 from the catalog API
	KindUnauthorized
	// KindNotFound is a 404 from the catalog API
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindMalformedInput:
		return "malformed_input"
	case KindUnsupportedHost:
		return "unsupported_host"
	case KindUnsupportedContentType:
		return "unsupported_content_type"
	case KindAllInvalidIDs:
		return "all_invalid_ids"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	default:
		return "unclassified"
	}
}

// APIError is a catalog API failure carrying the HTTP status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog api: %d %s", e.Status, e.Message)
}

// SearchError is a user-visible failure. Reason is shown verbatim.
type SearchError struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// Outcome is the classification of a failure.
type Outcome struct {
	Kind ErrorKind
	// ReasonKey is the i18n key of the user-facing reason, empty for silent outcomes.
	ReasonKey   string
	Reauthorize bool
}

// Visible reports whether the outcome ends a search in the Error state.
func (o Outcome) Visible() bool {
	return o.ReasonKey != ""
}

var statusOutcomes = map[int]Outcome{
	http.StatusBadRequest:   {Kind: KindBadRequest, ReasonKey: "error.link.bad_request"},
	http.StatusUnauthorized: {Kind: KindUnauthorized, Reauthorize: true},
	http.StatusNotFound:     {Kind: KindNotFound, ReasonKey: "error.link.not_found"},
}

// localOutcomes are raised before any network call.
var localOutcomes = map[ErrorKind]string{
	KindMalformedInput:         "error.link.malformed",
	KindUnsupportedHost:        "error.link.unsupported_host",
	KindUnsupportedContentType: "error.link.unsupported_type",
	KindAllInvalidIDs:          "error.link.bad_request",
	KindBadRequest:             "error.link.bad_request",
	KindNotFound:               "error.link.not_found",
}

// Classify maps a raw failure to its outcome by the HTTP status it carries.
// A call made without a token is treated like a 401.
func Classify(err error) Outcome {
	if errors.Is(err, ErrNotAuthenticated) {
		return statusOutcomes[http.StatusUnauthorized]
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if outcome, ok := statusOutcomes[apiErr.Status]; ok {
			return outcome
		}
	}
	return Outcome{Kind: KindUnclassified}
}

// Reauthorizer drops the session token and restarts authorization.
type Reauthorizer interface {
	Invalidate(ctx context.Context) error
}

// ErrorHandler applies outcomes: visible ones become *SearchError, 401 reauthorizes,
// everything else is logged and swallowed.
type ErrorHandler struct {
	localizer *i18n.Localizer
	session   Reauthorizer
	metrics   Metrics
	logger    *zap.Logger
}

func NewErrorHandler(localizer *i18n.Localizer, session Reauthorizer, metrics Metrics, logger *zap.Logger) *ErrorHandler {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &ErrorHandler{
		localizer: localizer,
		session:   session,
		metrics:   metrics,
		logger:    logger,
	}
}

// SetReauthorizer installs the session after construction; the session itself needs the handler's classifier.
func (h *ErrorHandler) SetReauthorizer(session Reauthorizer) {
	h.session = session
}

// Local builds a user-visible error raised without a network call.
func (h *ErrorHandler) Local(kind ErrorKind, err error) *SearchError {
	key, ok := localOutcomes[kind]
	if !ok {
		key = localOutcomes[KindMalformedInput]
	}
	var reason string
	switch kind {
	case KindMalformedInput, KindUnsupportedHost:
		reason = h.localizer.T(key, ExampleLink)
	default:
		reason = h.localizer.T(key)
	}
	h.metrics.RecordError(kind.String())
	return &SearchError{Kind: kind, Reason: reason, Err: err}
}

// Handle returns nil for silent outcomes.
func (h *ErrorHandler) Handle(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var searchErr *SearchError
	if errors.As(err, &searchErr) {
		return searchErr
	}

	outcome := Classify(err)
	h.metrics.RecordError(outcome.Kind.String())

	switch {
	case outcome.Reauthorize:
		h.logger.Warn("Catalog access token missing or expired", zap.Error(err))
		if h.session != nil {
			if invErr := h.session.Invalidate(ctx); invErr != nil {
				h.logger.Error("Failed to restart authorization", zap.Error(invErr))
			}
		}
		return nil
	case outcome.Visible():
		h.logger.Debug("Catalog request rejected",
			zap.String("kind", outcome.Kind.String()), zap.Error(err))
		return &SearchError{Kind: outcome.Kind, Reason: h.localizer.T(outcome.ReasonKey), Err: err}
	default:
		// TODO: unclassified failures end as Success without feedback; needs a product decision.
		h.logger.Error("Unclassified catalog failure", zap.Error(err))
		return nil
	}
}
