package editor

import (
	"context"
	"errors"
	"slices"

	"golang.org/x/sync/semaphore"

	"github.com/jonathan/cv-builder/internal/enhance"
	"github.com/jonathan/cv-builder/internal/llm"
	"github.com/jonathan/cv-builder/internal/mutation"
	"github.com/jonathan/cv-builder/internal/types"
)

// summaryTarget is the busy-flag key of the summary field.
const summaryTarget = ""

// Enhance rewrites the summary (itemID "") or the description of the experience
// with itemID. The provider call runs without holding the session lock; its result
// is applied as a normal edit. A second call for a target that is already being
// enhanced returns ErrBusy. On failure the document is unchanged.
func (s *Session) Enhance(ctx context.Context, itemID string) (State, error) {
	s.mu.Lock()
	req, err := s.enhanceRequestLocked(itemID)
	if err != nil {
		s.noticeLocked(NoticeError, enhanceFailureMessage(err))
		st := s.stateLocked()
		s.mu.Unlock()
		return st, err
	}
	s.mu.Unlock()

	if !s.acquireTarget(itemID) {
		s.notice(NoticeInfo, "Enhancement already in progress")
		return s.State(), ErrBusy
	}
	text, err := func() (string, error) {
		defer s.releaseTarget(itemID)
		return s.enhancer.Enhance(ctx, req)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.log.Warn("enhancement failed", "item_id", itemID, "context", req.Context, "error", err)
		s.publishStateLocked()
		s.noticeLocked(NoticeError, enhanceFailureMessage(err))
		return s.stateLocked(), err
	}

	if itemID != summaryTarget && !slices.ContainsFunc(s.doc.Experiences, func(e types.Experience) bool { return e.ID == itemID }) {
		err := &TargetNotFoundError{ItemID: itemID}
		s.log.Warn("enhanced experience was removed, discarding result", "item_id", itemID)
		s.publishStateLocked()
		s.noticeLocked(NoticeError, enhanceFailureMessage(err))
		return s.stateLocked(), err
	}

	var next types.Document
	if itemID == summaryTarget {
		next = mutation.SetScalarField(s.doc, types.FieldSummary, text)
	} else {
		next = mutation.SetExperienceField(s.doc, itemID, types.ExperienceDescription, text)
	}
	if !s.applyLocked(ctx, next) {
		s.publishStateLocked()
	}
	s.noticeLocked(NoticeSuccess, "Text enhanced")
	return s.stateLocked(), nil
}

func (s *Session) enhanceRequestLocked(itemID string) (enhance.Request, error) {
	if itemID == summaryTarget {
		return enhance.Request{Text: s.doc.Summary, Context: enhance.ContextSummary}, nil
	}
	idx := slices.IndexFunc(s.doc.Experiences, func(e types.Experience) bool { return e.ID == itemID })
	if idx < 0 {
		return enhance.Request{}, &TargetNotFoundError{ItemID: itemID}
	}
	exp := s.doc.Experiences[idx]
	return enhance.Request{
		Text:     exp.Description,
		Context:  enhance.ContextExperience,
		Company:  exp.Company,
		Position: exp.Position,
	}, nil
}

func (s *Session) acquireTarget(target string) bool {
	s.busyMu.Lock()
	sem, ok := s.busy[target]
	if !ok {
		sem = semaphore.NewWeighted(1)
		s.busy[target] = sem
	}
	acquired := sem.TryAcquire(1)
	if acquired {
		s.enhancing[target] = struct{}{}
	}
	s.busyMu.Unlock()

	if acquired {
		s.mu.Lock()
		s.publishStateLocked()
		s.mu.Unlock()
	}
	return acquired
}

func (s *Session) releaseTarget(target string) {
	s.busyMu.Lock()
	delete(s.enhancing, target)
	s.busy[target].Release(1)
	s.busyMu.Unlock()
}

func enhanceFailureMessage(err error) string {
	var rateLimited *llm.RateLimitError
	var notFound *TargetNotFoundError
	switch {
	case errors.Is(err, enhance.ErrEmptyText):
		return "Write some text before enhancing it"
	case errors.Is(err, llm.ErrMissingCredential):
		return "Text enhancement is not configured"
	case errors.As(err, &rateLimited):
		return "The enhancement service is busy, try again shortly"
	case errors.Is(err, llm.ErrMalformedResponse):
		return "The enhancement service returned an unusable answer"
	case errors.As(err, &notFound):
		return "That experience no longer exists"
	default:
		return "Could not enhance the text"
	}
}
