package snippets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/TheMichaelB/sealshare/internal/config"
	"github.com/TheMichaelB/sealshare/internal/crypto"
	"github.com/TheMichaelB/sealshare/internal/events"
	"github.com/TheMichaelB/sealshare/internal/history"
	"github.com/TheMichaelB/sealshare/internal/metrics"
	"github.com/TheMichaelB/sealshare/internal/models"
	"github.com/TheMichaelB/sealshare/internal/share"
	"github.com/TheMichaelB/sealshare/internal/transport"
)

// Service encrypts, uploads and opens snippets.
type Service struct {
	transport transport.Transport
	crypto    crypto.Provider
	history   history.Store // nil disables recording
	metrics   *metrics.Registry
	cfg       config.ShareConfig
	linkBase  string
	logger    *events.Logger

	now func() time.Time
}

// ShareRequest describes a snippet to share.
type ShareRequest struct {
	Content    string
	Title      string
	Language   string
	Expiry     string
	Visibility string
	Password   string // empty selects key mode
	NoHistory  bool
}

// ShareResult is what the caller hands out.
type ShareResult struct {
	ID                string     `json:"id"`
	URL               string     `json:"url"`
	PasswordProtected bool       `json:"password_protected"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	DeleteToken       string     `json:"delete_token,omitempty"`
	HistoryID         string     `json:"history_id,omitempty"`
}

// Sealed is a locally encrypted snippet.
type Sealed struct {
	Envelope          crypto.WirePasswordEnvelope
	Key               []byte // nil in password mode
	PasswordProtected bool
}

// Wire returns the JSON value for the envelope. Key-mode envelopes carry no
// salt field.
func (s *Sealed) Wire() interface{} {
	if s.PasswordProtected {
		return s.Envelope
	}
	return s.Envelope.WireEnvelope
}

// NewService creates a snippet service.
func NewService(
	tr transport.Transport,
	provider crypto.Provider,
	store history.Store,
	reg *metrics.Registry,
	cfg *config.Config,
	logger *events.Logger,
) *Service {
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Service{
		transport: tr,
		crypto:    provider,
		history:   store,
		metrics:   reg,
		cfg:       cfg.Share,
		linkBase:  cfg.LinkBase(),
		logger:    logger.WithField("service", "snippets"),
		now:       time.Now,
	}
}

// Share encrypts content, uploads it and records it in the history.
func (s *Service) Share(ctx context.Context, req ShareRequest) (*ShareResult, error) {
	if req.Content == "" {
		return nil, &models.ShareError{Phase: "validate", Err: models.ErrEmptyContent}
	}
	if s.cfg.MaxContentSize > 0 && int64(len(req.Content)) > s.cfg.MaxContentSize {
		return nil, &models.ShareError{
			Phase: "validate",
			Err:   fmt.Errorf("%w: %d bytes, limit %d", models.ErrContentTooLarge, len(req.Content), s.cfg.MaxContentSize),
		}
	}
	if models.LooksBinary(req.Title, []byte(req.Content)) {
		return nil, &models.ShareError{Phase: "validate", Err: models.ErrBinaryContent}
	}

	expiry := firstNonEmpty(req.Expiry, s.cfg.DefaultExpiry)
	if err := models.ValidateExpiry(expiry); err != nil {
		return nil, &models.ShareError{Phase: "validate", Err: err}
	}
	visibility := firstNonEmpty(req.Visibility, s.cfg.DefaultVisibility)
	if err := models.ValidateVisibility(visibility); err != nil {
		return nil, &models.ShareError{Phase: "validate", Err: err}
	}
	language := firstNonEmpty(req.Language, s.cfg.DefaultLanguage)

	sealed, err := s.Seal(req.Content, req.Password)
	if err != nil {
		return nil, &models.ShareError{Phase: "encrypt", Err: err}
	}

	createReq := &models.CreateSnippetRequest{
		WireEnvelope:      sealed.Envelope.WireEnvelope,
		Salt:              sealed.Envelope.Salt,
		PasswordProtected: sealed.PasswordProtected,
		Title:             req.Title,
		Language:          language,
		Expiry:            expiry,
		Visibility:        visibility,
	}

	start := s.now()
	resp, err := s.transport.CreateSnippet(ctx, createReq)
	s.metrics.ObserveRequest("create", s.now().Sub(start))
	s.metrics.RecordUpload(err == nil)
	if err != nil {
		return nil, &models.ShareError{Phase: "upload", Err: err}
	}

	result := &ShareResult{
		ID:                resp.ID,
		PasswordProtected: sealed.PasswordProtected,
		ExpiresAt:         resp.ExpiresAt,
		DeleteToken:       resp.DeleteToken,
	}
	if sealed.PasswordProtected {
		result.URL = share.BuildPasswordURL(s.linkBase, resp.ID)
	} else {
		result.URL = share.BuildURL(s.linkBase, resp.ID, sealed.Key)
	}

	logger := s.logger.For(events.WithSnippetID(ctx, resp.ID))
	logger.WithFields(map[string]interface{}{
		"url":                share.Redact(result.URL),
		"password_protected": sealed.PasswordProtected,
		"expiry":             expiry,
	}).Info("Snippet shared")

	if s.history != nil && !req.NoHistory {
		entry := &history.Entry{
			SnippetID:         resp.ID,
			URL:               result.URL,
			Title:             req.Title,
			Language:          language,
			PasswordProtected: sealed.PasswordProtected,
			DeleteToken:       resp.DeleteToken,
			CreatedAt:         s.now(),
			ExpiresAt:         resp.ExpiresAt,
		}
		// The snippet is already uploaded; a history failure must not lose the link
		if err := s.history.Add(entry); err != nil {
			logger.WithError(&models.ShareError{Phase: "record", SnippetID: resp.ID, Err: err}).
				Warn("Failed to record history entry")
		} else {
			result.HistoryID = entry.ID
		}
	}

	return result, nil
}

// Open fetches and decrypts the snippet a link points at.
func (s *Service) Open(ctx context.Context, rawURL, password string) (*models.Snippet, error) {
	link, err := share.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse link: %w", err)
	}

	ctx = events.WithSnippetID(ctx, link.SnippetID)
	logger := s.logger.For(ctx)

	start := s.now()
	resp, err := s.transport.GetSnippet(ctx, link.SnippetID)
	s.metrics.ObserveRequest("get", s.now().Sub(start))
	if err != nil {
		return nil, fmt.Errorf("fetch snippet: %w", err)
	}

	if resp.PasswordProtected && password == "" {
		return nil, models.ErrPasswordRequired
	}
	if !resp.PasswordProtected && !link.HasKey() {
		return nil, models.ErrKeyRequired
	}

	wire := crypto.WirePasswordEnvelope{WireEnvelope: resp.WireEnvelope, Salt: resp.Salt}
	content, err := s.Unseal(wire, link.Key, password, resp.PasswordProtected)
	if err != nil {
		logger.WithError(err).Warn("Snippet could not be decrypted")
		return nil, &models.DecryptError{
			SnippetID: link.SnippetID,
			Reason:    decryptReason(err, resp.PasswordProtected),
			Err:       err,
		}
	}

	logger.Debug("Snippet opened")

	return &models.Snippet{
		ID:                link.SnippetID,
		Content:           content,
		Title:             resp.Title,
		Language:          resp.Language,
		PasswordProtected: resp.PasswordProtected,
		CreatedAt:         resp.CreatedAt,
		ExpiresAt:         resp.ExpiresAt,
	}, nil
}

// Delete removes a shared snippet remotely and from the history.
func (s *Service) Delete(ctx context.Context, ref string) error {
	if s.history == nil {
		return fmt.Errorf("delete %s: history disabled", ref)
	}

	entry, err := s.history.Get(ref)
	if err != nil {
		return fmt.Errorf("delete %s: %w", ref, err)
	}
	if entry.DeleteToken == "" {
		return fmt.Errorf("delete %s: no delete token recorded", ref)
	}

	ctx = events.WithSnippetID(ctx, entry.SnippetID)
	logger := s.logger.For(ctx)

	start := s.now()
	err = s.transport.DeleteSnippet(ctx, entry.SnippetID, entry.DeleteToken)
	s.metrics.ObserveRequest("delete", s.now().Sub(start))
	switch {
	case errors.Is(err, models.ErrSnippetNotFound):
		logger.Info("Snippet already gone remotely")
	case err != nil:
		return fmt.Errorf("delete %s: %w", entry.SnippetID, err)
	}

	if err := s.history.Remove(entry.ID); err != nil {
		return fmt.Errorf("remove history entry: %w", err)
	}

	logger.Info("Snippet deleted")
	return nil
}

// Seal encrypts plaintext locally. An empty password selects key mode.
func (s *Service) Seal(plaintext, password string) (*Sealed, error) {
	if password == "" {
		env, key, err := s.crypto.Encrypt(plaintext)
		if err != nil {
			return nil, err
		}
		s.metrics.RecordEncryption(metrics.ModeKey)
		return &Sealed{
			Envelope: crypto.WirePasswordEnvelope{WireEnvelope: env.Wire()},
			Key:      key,
		}, nil
	}

	// PBKDF2 dominates the cost of a password-mode operation
	start := s.now()
	env, salt, err := s.crypto.EncryptWithPassword(plaintext, s.normalize(password))
	s.metrics.ObserveKDF(s.now().Sub(start))
	if err != nil {
		return nil, err
	}
	s.metrics.RecordEncryption(metrics.ModePassword)

	return &Sealed{
		Envelope:          env.WirePassword(salt),
		PasswordProtected: true,
	}, nil
}

// Unseal decrypts a wire envelope with a key or, in password mode, with the
// password and the envelope's salt.
func (s *Service) Unseal(w crypto.WirePasswordEnvelope, key []byte, password string, passwordMode bool) (string, error) {
	mode := metrics.ModeKey
	if passwordMode {
		mode = metrics.ModePassword
	}

	plaintext, err := s.unseal(w, key, password, passwordMode)
	switch {
	case err == nil:
		s.metrics.RecordDecryption(mode, metrics.ResultSuccess)
	case errors.Is(err, crypto.ErrAuthenticationFailure):
		s.metrics.RecordDecryption(mode, metrics.ResultAuthFailure)
	default:
		s.metrics.RecordDecryption(mode, metrics.ResultMalformed)
	}
	return plaintext, err
}

func (s *Service) unseal(w crypto.WirePasswordEnvelope, key []byte, password string, passwordMode bool) (string, error) {
	if !passwordMode {
		env, err := crypto.ParseWire(w.WireEnvelope)
		if err != nil {
			return "", err
		}
		return s.crypto.Decrypt(env, key)
	}

	env, salt, err := crypto.ParsePasswordWire(w)
	if err != nil {
		return "", err
	}

	start := s.now()
	defer func() { s.metrics.ObserveKDF(s.now().Sub(start)) }()
	return s.crypto.DecryptWithPassword(env, s.normalize(password), salt)
}

// normalize applies NFKC when share.normalize_passwords is set.
func (s *Service) normalize(password string) string {
	if !s.cfg.NormalizePasswords {
		return password
	}
	return norm.NFKC.String(password)
}

func decryptReason(err error, passwordMode bool) string {
	switch {
	case errors.Is(err, crypto.ErrAuthenticationFailure) && passwordMode:
		return "wrong password or tampered snippet"
	case errors.Is(err, crypto.ErrAuthenticationFailure):
		return "wrong key or tampered snippet"
	default:
		return "malformed snippet"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
