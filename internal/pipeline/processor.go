// Package pipeline drives a card from capture to a sent follow-up: OCR, field
// extraction, drafting, delivery and history.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/swiftscan/constants"
	"github.com/joseph-ayodele/swiftscan/internal/common"
	"github.com/joseph-ayodele/swiftscan/internal/email"
	"github.com/joseph-ayodele/swiftscan/internal/entity"
	"github.com/joseph-ayodele/swiftscan/internal/google"
	"github.com/joseph-ayodele/swiftscan/internal/repository"
	"github.com/joseph-ayodele/swiftscan/internal/session"
)

// ErrNoGoogleSession is returned when Gmail delivery is requested while signed out.
var ErrNoGoogleSession = google.ErrNoToken

// Mailer delivers a draft from the token owner's mailbox.
type Mailer interface {
	SendMail(ctx context.Context, token, to string, d entity.Draft) (string, error)
}

// Processor coordinates OCR then parse, and owns the review -> send step.
type Processor struct {
	Logger   *slog.Logger
	OCR      *OCRStage
	Parse    *ParseStage
	Sessions *session.Store
	Scans    repository.ScanRepository
	Settings repository.SettingsRepository
	Mailer   Mailer
}

func NewProcessor(
	logger *slog.Logger,
	ocr *OCRStage,
	parse *ParseStage,
	sessions *session.Store,
	scans repository.ScanRepository,
	settings repository.SettingsRepository,
	mailer Mailer,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Logger:   logger,
		OCR:      ocr,
		Parse:    parse,
		Sessions: sessions,
		Scans:    scans,
		Settings: settings,
		Mailer:   mailer,
	}
}

// SendRequest is the reviewed (possibly edited) contact and draft.
type SendRequest struct {
	Method  constants.ScanStatus // sent_manual | sent_gmail
	Contact entity.Contact
	Draft   entity.Draft
}

type SendResult struct {
	Record    *entity.ScanRecord `json:"record"`
	MailtoURL string             `json:"mailtoUrl,omitempty"`
	MessageID string             `json:"messageId,omitempty"`
}

// CaptureResult is the session after capture and, when auto-send fired, what was sent.
type CaptureResult struct {
	Session  session.Session `json:"session"`
	AutoSent *SendResult     `json:"autoSent,omitempty"`
}

// Capture runs a captured frame through OCR and extraction and leaves the
// session in REVIEW. When auto-send is on and Gmail is linked, the draft goes
// out immediately.
func (p *Processor) Capture(ctx context.Context, sessionID uuid.UUID, imageURI string) (CaptureResult, error) {
	log := common.LoggerFromContext(ctx, p.Logger).With("session_id", sessionID)

	sess, err := p.Sessions.Update(sessionID, func(s *session.Session) error {
		if err := s.Transition(session.ViewProcessing); err != nil {
			return err
		}
		s.ResetCapture()
		s.ImageURI = imageURI
		s.LastError = ""
		return nil
	})
	if err != nil {
		return CaptureResult{}, err
	}

	res, err := p.OCR.RunDataURI(ctx, imageURI)
	if err != nil {
		p.abortCapture(sessionID, log)
		return CaptureResult{}, err
	}

	settings, err := p.Settings.Get(ctx)
	if err != nil {
		p.abortCapture(sessionID, log)
		return CaptureResult{}, err
	}

	raw := sourceText(res)
	parsed, err := p.Parse.Run(ctx, raw, settings.Sender(), sess.TemplateIndex)
	if err != nil {
		p.abortCapture(sessionID, log)
		return CaptureResult{}, err
	}
	parsed.Contact.RawData = raw

	sess, err = p.Sessions.Update(sessionID, func(s *session.Session) error {
		if err := s.Transition(session.ViewReview); err != nil {
			return err
		}
		c, d := parsed.Contact, parsed.Draft
		s.Contact, s.Draft = &c, &d
		s.TemplateIndex = parsed.NextIndex
		return nil
	})
	if err != nil {
		return CaptureResult{}, err
	}
	log.Info("pipeline.capture.ok", "has_email", parsed.Contact.Email != "")

	out := CaptureResult{Session: sess}
	if settings.AutoSend && settings.AccessToken() != "" && parsed.Contact.Email != "" {
		log.Info("pipeline.capture.auto_send")
		sent, err := p.Send(ctx, sessionID, SendRequest{
			Method:  constants.ScanStatusSentGmail,
			Contact: parsed.Contact,
			Draft:   parsed.Draft,
		})
		if err != nil {
			// the card stays in review so the user can retry or send manually
			log.Warn("pipeline.capture.auto_send_failed", "error", err)
			return out, err
		}
		out.AutoSent = &sent
		if out.Session, err = p.Sessions.Get(sessionID); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (p *Processor) abortCapture(sessionID uuid.UUID, log *slog.Logger) {
	_, err := p.Sessions.Update(sessionID, func(s *session.Session) error {
		s.ResetCapture()
		s.LastError = ScanFailedMessage
		return s.Transition(session.ViewCamera)
	})
	if err != nil {
		log.Warn("pipeline.capture.reset_failed", "error", err)
	}
}

// Regenerate swaps the draft for the next template in the rotation.
func (p *Processor) Regenerate(ctx context.Context, sessionID uuid.UUID) (session.Session, error) {
	settings, err := p.Settings.Get(ctx)
	if err != nil {
		return session.Session{}, err
	}
	return p.Sessions.Update(sessionID, func(s *session.Session) error {
		if s.Contact == nil {
			return common.InvalidInputErrorf("no scanned contact to draft for")
		}
		d, next := email.Generate(*s.Contact, settings.Sender(), s.TemplateIndex)
		s.Draft = &d
		s.TemplateIndex = next
		return nil
	})
}

// Send delivers the reviewed draft, records it in history and returns the
// session to the camera.
func (p *Processor) Send(ctx context.Context, sessionID uuid.UUID, req SendRequest) (SendResult, error) {
	log := common.LoggerFromContext(ctx, p.Logger).With("session_id", sessionID, "method", req.Method)

	sess, err := p.Sessions.Get(sessionID)
	if err != nil {
		return SendResult{}, err
	}
	if sess.View != session.ViewReview {
		return SendResult{}, fmt.Errorf("%w: send from %s", session.ErrInvalidTransition, sess.View)
	}
	// a manual send hands whatever address the user kept to their mail app
	emailRules := []common.ValidationRule{common.SingleLine}
	if req.Method == constants.ScanStatusSentGmail {
		emailRules = append(emailRules, common.Required)
	}
	v := common.NewValidator().
		Field("method", string(req.Method), common.OneOf(string(constants.ScanStatusSentManual), string(constants.ScanStatusSentGmail))).
		Field("contact.email", req.Contact.Email, emailRules...).
		Field("draft.subject", req.Draft.Subject, common.MaxLength(email.MaxSubjectLen))
	if err := v.Err(); err != nil {
		return SendResult{}, err
	}

	var out SendResult
	switch req.Method {
	case constants.ScanStatusSentManual:
		out.MailtoURL = email.MailtoURL(req.Contact.Email, req.Draft)
	case constants.ScanStatusSentGmail:
		settings, err := p.Settings.Get(ctx)
		if err != nil {
			return SendResult{}, err
		}
		token := settings.AccessToken()
		if token == "" {
			return SendResult{}, ErrNoGoogleSession
		}
		if p.Mailer == nil {
			return SendResult{}, errors.New("gmail delivery is not configured")
		}
		if out.MessageID, err = p.Mailer.SendMail(ctx, token, req.Contact.Email, req.Draft); err != nil {
			log.Error("pipeline.send.failed", "error", err)
			return SendResult{}, err
		}
	}

	if req.Contact.RawData == "" && sess.Contact != nil {
		req.Contact.RawData = sess.Contact.RawData
	}
	draft := req.Draft
	rec := entity.NewScanRecord(req.Contact, &draft, sess.ImageURI, req.Method)
	if err := p.Scans.Create(ctx, rec); err != nil {
		return SendResult{}, err
	}
	out.Record = rec

	if _, err := p.Sessions.Update(sessionID, func(s *session.Session) error {
		s.ResetCapture()
		return s.Transition(session.ViewCamera)
	}); err != nil {
		log.Warn("pipeline.send.reset_failed", "error", err)
	}
	log.Info("pipeline.send.ok", "record_id", rec.ID)
	return out, nil
}

// ProcessFile runs a card photo from disk through OCR and extraction and stores
// it as a drafted record, or scanned when no email was found to draft to.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*entity.ScanRecord, error) {
	log := common.LoggerFromContext(ctx, p.Logger).With("path", path)

	res, err := p.OCR.RunFile(ctx, path)
	if err != nil {
		return nil, err
	}
	settings, err := p.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	raw := sourceText(res)
	parsed, err := p.Parse.Run(ctx, raw, settings.Sender(), 0)
	if err != nil {
		return nil, err
	}
	parsed.Contact.RawData = raw

	status := constants.ScanStatusScanned
	var draft *entity.Draft
	if parsed.Contact.Email != "" {
		status = constants.ScanStatusDrafted
		draft = &parsed.Draft
	}
	uri := path
	if abs, err := filepath.Abs(path); err == nil {
		uri = "file://" + filepath.ToSlash(abs)
	}
	rec := entity.NewScanRecord(parsed.Contact, draft, uri, status)
	if err := p.Scans.Create(ctx, rec); err != nil {
		return nil, err
	}
	log.Info("pipeline.file.ok", "record_id", rec.ID, "status", status)
	return rec, nil
}
