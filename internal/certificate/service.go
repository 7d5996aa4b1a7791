package certificate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ansh-dhingra1/Secure-Cypher/internal/apperr"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/audit"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/metrics"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/render"
)

// DefaultWriteTimeout bounds the detached record write made during issuance.
const DefaultWriteTimeout = 30 * time.Second

// Renderer draws the certificate document.
type Renderer interface {
	Render(ctx context.Context, name, code string) (*render.Document, error)
}

// EventPublisher receives lifecycle events. Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, evt audit.Event) error
}

// ValidationError lists the applicant fields that failed validation.
type ValidationError struct {
	Fields map[Field]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return "invalid fields: " + strings.Join(names, ", ")
}

// Options wires a Service.
type Options struct {
	Store        Store
	Renderer     Renderer
	Generator    *Generator
	Events       EventPublisher
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
	WriteTimeout time.Duration
	Enabled      bool
	Now          func() time.Time
}

// Service issues and verifies certificates.
type Service struct {
	store        Store
	renderer     Renderer
	gen          *Generator
	events       EventPublisher
	metrics      *metrics.Metrics
	logger       *zap.Logger
	writeTimeout time.Duration
	now          func() time.Time

	enabled atomic.Bool
	writes  sync.WaitGroup
}

// NewService builds a service from opts.
func NewService(opts Options) *Service {
	s := &Service{
		store:        opts.Store,
		renderer:     opts.Renderer,
		gen:          opts.Generator,
		events:       opts.Events,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		writeTimeout: opts.WriteTimeout,
		now:          opts.Now,
	}
	if s.gen == nil {
		s.gen = NewGenerator()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.With(zap.String("component", "certificates"))
	if s.writeTimeout <= 0 {
		s.writeTimeout = DefaultWriteTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.enabled.Store(opts.Enabled)
	return s
}

// Enabled reports whether issuance is switched on.
func (s *Service) Enabled() bool { return s.enabled.Load() }

// SetEnabled switches issuance on or off. Verification is unaffected.
func (s *Service) SetEnabled(v bool) {
	s.enabled.Store(v)
	s.logger.Info("certificate system status changed", zap.Bool("enabled", v))
}

// Wait blocks until background record writes have finished.
func (s *Service) Wait() { s.writes.Wait() }

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error { return s.store.Ping(ctx) }

// Issued is a freshly issued certificate.
type Issued struct {
	Record   Record
	Document *render.Document
}

// Issue validates and formats the applicant, assigns a code, saves the record
// in the background and renders the PDF. A failed record write never fails
// the issuance.
func (s *Service) Issue(ctx context.Context, a Applicant) (*Issued, error) {
	const op = "certificate.Issue"

	if !s.Enabled() {
		return nil, s.fail(apperr.Errorf(apperr.KindDisabled, op, "certificate generation is disabled"))
	}
	if invalid := InvalidFields(a); len(invalid) > 0 {
		return nil, apperr.E(apperr.KindValidation, op, &ValidationError{Fields: invalid})
	}
	formatted := Normalize(a)

	if s.renderer == nil {
		return nil, s.fail(apperr.Errorf(apperr.KindLibrary, op, "PDF renderer is not configured"))
	}

	code, err := s.gen.New()
	if err != nil {
		return nil, s.fail(apperr.E(apperr.KindUnexpected, op, err))
	}
	rec := NewRecord(code, formatted, s.now())
	s.saveInBackground(ctx, rec)

	start := time.Now()
	doc, err := s.renderer.Render(ctx, rec.Name, rec.Code)
	s.metrics.ObserveRender(time.Since(start))
	if err != nil {
		s.logger.Error("error generating certificate", zap.String("code", code), zap.Error(err))
		return nil, s.fail(err)
	}
	if doc.FontFallback && doc.Mode == render.ModeTemplate {
		s.logger.Warn("certificate rendered with fallback font", zap.String("code", code))
	}
	s.metrics.IssuedWith(string(doc.Mode), doc.FontFallback)
	s.logger.Info("certificate generated",
		zap.String("code", code),
		zap.String("mode", string(doc.Mode)),
		zap.Int("bytes", len(doc.Bytes)),
	)

	s.publish(ctx, audit.Event{Type: audit.TypeIssued, Code: code, At: rec.GeneratedDate, Detail: string(doc.Mode)})
	return &Issued{Record: rec, Document: doc}, nil
}

// saveInBackground writes rec on a goroutine detached from the request so a
// client disconnect does not abort the write.
func (s *Service) saveInBackground(ctx context.Context, rec Record) {
	ctx = context.WithoutCancel(ctx)
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
		defer cancel()
		if err := s.store.Create(ctx, rec); err != nil {
			s.metrics.StoreError("create")
			s.logger.Error("error saving certificate", zap.String("code", rec.Code), zap.Error(err))
			return
		}
		s.logger.Debug("certificate saved", zap.String("code", rec.Code))
	}()
}

// Verification is the outcome of one verification cycle.
type Verification struct {
	Valid      bool      `json:"valid"`
	Record     Record    `json:"data"`
	VerifiedAt time.Time `json:"verified_at"`
}

// Verify looks code up and, when found, marks it verified. Unknown codes
// return an invalid result and leave the store untouched. Store read
// failures are returned as persistence errors.
func (s *Service) Verify(ctx context.Context, code string) (Verification, error) {
	const op = "certificate.Verify"

	code = strings.TrimSpace(code)
	if code == "" {
		return Verification{}, apperr.Errorf(apperr.KindValidation, op, "certificate code required")
	}

	res := Lookup(ctx, s.store, code)
	switch res.Status {
	case StatusNotFound:
		s.metrics.Verified("invalid")
		return Verification{}, nil
	case StatusStoreError:
		s.metrics.Verified("error")
		s.metrics.StoreError("get")
		s.logger.Error("error verifying certificate", zap.String("code", code), zap.Error(res.Err))
		return Verification{}, apperr.E(apperr.KindPersistence, op, res.Err)
	}

	at := s.now().UTC()
	if err := s.store.MarkVerified(ctx, code, at); err != nil {
		s.metrics.StoreError("mark_verified")
		s.logger.Warn("failed to record verification", zap.String("code", code), zap.Error(err))
	}
	s.metrics.Verified("valid")
	s.publish(ctx, audit.Event{Type: audit.TypeVerified, Code: code, At: at})
	return Verification{Valid: true, Record: res.Record, VerifiedAt: at}, nil
}

// Lookup reads a record without marking it verified.
func (s *Service) Lookup(ctx context.Context, code string) LookupResult {
	res := Lookup(ctx, s.store, strings.TrimSpace(code))
	if res.Status == StatusStoreError {
		s.metrics.StoreError("get")
	}
	return res
}

func (s *Service) publish(ctx context.Context, evt audit.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", evt.Type), zap.String("code", evt.Code), zap.Error(err))
	}
}

func (s *Service) fail(err error) error {
	s.metrics.IssueFailed(string(apperr.KindOf(err)))
	return err
}

// AsValidation extracts the field report from an issuance error.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// String renders a one-line summary for CLI output.
func (v Verification) String() string {
	if !v.Valid {
		return "invalid"
	}
	return fmt.Sprintf("valid: %s (%s), %s, issued %s", v.Record.Name, v.Record.Email, v.Record.College,
		v.Record.GeneratedDate.Format(time.RFC3339))
}
