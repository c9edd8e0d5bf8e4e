// Package detail loads a single listing and decides which parts of it
// the viewer may see.
package detail

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"investorconnect/internal/app/session"
	"investorconnect/internal/core/domain"
	"investorconnect/internal/docstore"

	"go.uber.org/zap"
)

// DiagnosticsRoute is offered when a document could not be loaded
const DiagnosticsRoute = "/test-firebase"

// Contact is the visible contact block
type Contact struct {
	Email  string
	Phone  string
	MailTo string
	Tel    string
	// Compose opens a mail with the subject pre-filled
	Compose string
}

// View is everything a detail page renders
type View struct {
	Kind     domain.KindSpec
	Document docstore.Document
	// Message is set when the document could not be shown; the page then
	// offers only a way back.
	Message          string
	DiagnosticsRoute string

	Contact *Contact
	// ContactPrompt replaces the contact block for guests where the role
	// check applies; PromptRoutes are the sign-in and register links.
	ContactPrompt string
	PromptRoutes  []string

	// EditRoute is shown to the owner. Nothing serves it.
	EditRoute string
	BackRoute string
}

// Loaded reports whether the document was found
func (v View) Loaded() bool {
	return v.Message == ""
}

// Loader fetches detail pages
type Loader struct {
	store docstore.Store
	log   *zap.Logger
}

// NewLoader creates a loader over store
func NewLoader(store docstore.Store, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{store: store, log: log}
}

// Load fetches id once. Missing documents and failures both yield a
// message; there is no retry.
func (l *Loader) Load(ctx context.Context, st session.State, k domain.KindSpec, id string) View {
	v := View{Kind: k, BackRoute: k.Route}

	id = strings.TrimSpace(id)
	if id == "" {
		v.Message = fmt.Sprintf("Invalid %s ID.", k.Noun)
		return v
	}

	doc, err := l.store.Get(ctx, k.Collection, id)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		l.log.Info("listing not found", zap.String("collection", k.Collection), zap.String("id", id))
		v.Message = k.NotFoundMessage
		return v
	case err != nil:
		l.log.Error("failed to load listing", zap.String("collection", k.Collection), zap.String("id", id), zap.Error(err))
		v.Message = loadFailed(k, err)
		v.DiagnosticsRoute = DiagnosticsRoute
		return v
	}

	v.Document = doc
	show, prompt := ContactVisibility(k, st)
	if show {
		v.Contact = contactOf(k, doc)
	} else if prompt {
		v.ContactPrompt = k.ContactPrompt
		v.PromptRoutes = []string{"/login", "/register"}
	}
	if IsOwner(k, st, doc) {
		v.EditRoute = k.Route + "/edit/" + doc.ID
	}
	return v
}

// ContactVisibility applies the counterpart rule: contact details are
// shown only to the kind's contact role, or always when the kind has
// none. prompt is true for guests who would otherwise see nothing.
func ContactVisibility(k domain.KindSpec, st session.State) (show, prompt bool) {
	if k.ContactAlwaysVisible() {
		return true, false
	}
	if st.HasRole(k.ContactRole) {
		return true, false
	}
	return false, !st.SignedIn()
}

// IsOwner reports whether the viewer created doc with the kind's creator role
func IsOwner(k domain.KindSpec, st session.State, doc docstore.Document) bool {
	return st.HasRole(k.CreatorRole) && doc.String("createdBy") == st.Identity.UID
}

func contactOf(k domain.KindSpec, doc docstore.Document) *Contact {
	c := &Contact{
		Email: doc.String("contactEmail"),
		Phone: doc.String("contactPhone"),
	}
	if c.Email != "" {
		c.MailTo = "mailto:" + c.Email
		subject := fmt.Sprintf(k.MailSubject, doc.String("title"))
		c.Compose = c.MailTo + "?subject=" + strings.ReplaceAll(url.QueryEscape(subject), "+", "%20")
	}
	if c.Phone != "" {
		c.Tel = "tel:" + c.Phone
	}
	return c
}

func loadFailed(k domain.KindSpec, err error) string {
	var coded interface{ ErrorCode() string }
	if errors.As(err, &coded) && coded.ErrorCode() != "" {
		return fmt.Sprintf("%s Error code: %s.", k.LoadFailedMessage, coded.ErrorCode())
	}
	return k.LoadFailedMessage
}
