// Package agent is the conversational orchestrator: it resolves the
// session, records the transcript, routes between the active flow and
// the intent handler registry, and shapes every reply the user sees.
// Handlers never return errors to the caller; anything that goes wrong
// becomes an apologetic reply and a log line.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wantokjobs/jean/internal/actions"
	"github.com/wantokjobs/jean/internal/extract"
	"github.com/wantokjobs/jean/internal/flow"
	"github.com/wantokjobs/jean/internal/intent"
	"github.com/wantokjobs/jean/internal/models"
	"github.com/wantokjobs/jean/internal/responses"
	"github.com/wantokjobs/jean/internal/storage"
)

// Feature toggle keys read from the settings table. Toggles default to
// on; admins disable them by writing "false".
const (
	FeatureAgentEnabled   = "jean_enabled"
	FeatureGuestChat      = "guest_chat_enabled"
	FeatureAutoApply      = "auto_apply_enabled"
	FeatureLinkedInImport = "linkedin_import_enabled"
	FeatureDocumentParse  = "document_parse_enabled"
)

// draftApprovalFlow is a pseudo-flow marking a job draft waiting for the
// employer's go-ahead. It is resolved by the orchestrator before the
// flow engine ever sees it.
const draftApprovalFlow = "draft-approval"

type draftState struct {
	DraftID int64 `json:"draft_id"`
}

// Inbound is one user message from any channel.
type Inbound struct {
	Text         string
	UserID       int64 // 0 for guests
	SessionToken string
	Channel      string
	Attachment   *extract.Document
}

// Reply is what the agent sends back.
type Reply struct {
	Text         string   `json:"message"`
	QuickReplies []string `json:"quick_replies,omitempty"`
	Intent       string   `json:"intent,omitempty"`
	SessionToken string   `json:"session_token"`
}

// Agent wires the classifier, flow engine and action executor together.
type Agent struct {
	store    storage.Storage
	exec     actions.Executor
	flows    *flow.Engine
	extract  extract.Extractor
	logger   *zap.Logger
	handlers map[string]handlerFunc
}

// New builds the agent and its intent handler registry.
func New(store storage.Storage, exec actions.Executor, flows *flow.Engine, ex extract.Extractor, logger *zap.Logger) *Agent {
	a := &Agent{
		store:   store,
		exec:    exec,
		flows:   flows,
		extract: ex,
		logger:  logger,
	}
	a.handlers = a.buildHandlers()
	return a
}

// Handle processes one inbound message end to end.
func (a *Agent) Handle(ctx context.Context, in *Inbound) (*Reply, error) {
	if !a.exec.FeatureEnabled(ctx, FeatureAgentEnabled) {
		return &Reply{Text: responses.Get("feature_disabled", "jean_disabled", nil)}, nil
	}
	if in.UserID == 0 && !a.exec.FeatureEnabled(ctx, FeatureGuestChat) {
		return &Reply{Text: responses.Get("needs_login", "default", nil)}, nil
	}

	var user *models.User
	if in.UserID != 0 {
		u, err := a.store.GetUser(ctx, in.UserID)
		if err != nil {
			a.logger.Error("user lookup failed", zap.Int64("user_id", in.UserID), zap.Error(err))
			return &Reply{Text: responses.Get("error", "generic", nil)}, nil
		}
		user = u
	}

	session, err := a.resolveSession(ctx, in)
	if err != nil {
		return nil, err
	}

	a.record(ctx, session.ID, models.RoleMessageUser, in.Text, nil)
	if err := a.store.TouchSession(ctx, session.ID); err != nil {
		a.logger.Warn("session touch failed", zap.Int64("session_id", session.ID), zap.Error(err))
	}

	var reply *Reply
	switch {
	case in.Attachment != nil:
		reply = a.handleAttachment(ctx, session, user, in.Attachment)
	case session.CurrentFlow != "":
		reply = a.handleFlowTurn(ctx, session, user, in.Text)
	default:
		reply = a.dispatch(ctx, session, user, in.Text)
	}

	if mood := detectMood(in.Text); mood != "" && reply.Text != "" {
		if prefix := empathize(mood); prefix != "" && !strings.HasPrefix(reply.Text, prefix) {
			reply.Text = prefix + "\n\n" + reply.Text
		}
	}

	a.record(ctx, session.ID, models.RoleMessageAgent, reply.Text, &models.MessageMeta{
		QuickReplies: reply.QuickReplies,
		Intent:       reply.Intent,
	})

	reply.SessionToken = session.Token
	return reply, nil
}

// History returns the session transcript in chronological order.
func (a *Agent) History(ctx context.Context, token string, limit int) ([]*models.Message, error) {
	session, err := a.store.LatestSessionByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return a.store.SessionMessages(ctx, session.ID, limit)
}

// resolveSession finds the live session for the sender, or starts a new
// one when none exists or the last went stale. An expired session keeps
// its transcript; the new session gets a fresh token.
func (a *Agent) resolveSession(ctx context.Context, in *Inbound) (*models.Session, error) {
	var (
		session *models.Session
		err     error
	)
	switch {
	case in.UserID != 0:
		session, err = a.store.LatestSessionByUser(ctx, in.UserID)
	case in.SessionToken != "":
		session, err = a.store.LatestSessionByToken(ctx, in.SessionToken)
	default:
		err = storage.ErrNotFound
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if session != nil && time.Since(session.UpdatedAt) <= storage.SessionTTL {
		return session, nil
	}

	token := in.SessionToken
	if token == "" || session != nil {
		token = uuid.NewString()
	}
	channel := in.Channel
	if channel == "" {
		channel = "web"
	}
	fresh := &models.Session{Channel: channel, Token: token}
	if in.UserID != 0 {
		id := in.UserID
		fresh.UserID = &id
	}
	if err := a.store.CreateSession(ctx, fresh); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return fresh, nil
}

func (a *Agent) record(ctx context.Context, sessionID int64, role, content string, meta *models.MessageMeta) {
	m := &models.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Meta:      meta,
	}
	if err := a.store.AppendMessage(ctx, m); err != nil {
		a.logger.Warn("transcript append failed", zap.Int64("session_id", sessionID), zap.Error(err))
	}
}

// handleFlowTurn feeds the message into the active flow, honoring
// cancel/skip commands first. Undecodable state or an unregistered flow
// name resets the dialogue rather than wedging the session.
func (a *Agent) handleFlowTurn(ctx context.Context, session *models.Session, user *models.User, text string) *Reply {
	if session.CurrentFlow == draftApprovalFlow {
		return a.handleDraftApproval(ctx, session, user, text)
	}

	res := intent.Classify(text, intent.Context{User: user, CurrentFlow: session.CurrentFlow})
	if res.Intent == intent.CancelFlow {
		a.clearFlow(ctx, session)
		return &Reply{Text: responses.Get("flow", "cancelled", nil), Intent: intent.CancelFlow}
	}

	state, err := flow.DecodeState(session.FlowState)
	if err != nil || a.flows.Definition(session.CurrentFlow) == nil {
		a.logger.Warn("resetting corrupted flow",
			zap.Int64("session_id", session.ID),
			zap.String("flow", session.CurrentFlow),
			zap.Error(err))
		a.clearFlow(ctx, session)
		return &Reply{Text: responses.Get("error", "corrupted", nil)}
	}

	fc := a.flowContext(ctx, session, user)
	var result *flow.Result
	if res.Intent == intent.SkipStep {
		result, err = a.flows.SkipStep(fc, state)
	} else {
		result, err = a.flows.ProcessInput(fc, state, text)
	}
	if err != nil {
		a.logger.Error("flow turn failed",
			zap.String("flow", session.CurrentFlow),
			zap.Int64("session_id", session.ID),
			zap.Error(err))
		a.clearFlow(ctx, session)
		return &Reply{Text: responses.Get("error", "generic", nil)}
	}

	return a.applyFlowResult(ctx, session, result, intent.FlowInput)
}

// applyFlowResult persists or clears flow state per the engine result
// and converts it into a reply.
func (a *Agent) applyFlowResult(ctx context.Context, session *models.Session, result *flow.Result, intentName string) *Reply {
	if result.Done {
		a.clearFlow(ctx, session)
		if result.AwaitingDraftID != 0 {
			a.setPendingDraft(ctx, session, result.AwaitingDraftID)
		}
	} else if result.State != nil {
		a.saveFlowState(ctx, session, result.State)
	}
	msg := result.Message
	if msg == "" {
		msg = responses.Get("error", "generic", nil)
	}
	return &Reply{Text: msg, QuickReplies: result.QuickReplies, Intent: intentName}
}

// handleDraftApproval resolves the post-job "Post Now?" confirmation.
func (a *Agent) handleDraftApproval(ctx context.Context, session *models.Session, user *models.User, text string) *Reply {
	res := intent.Classify(text, intent.Context{User: user, CurrentFlow: session.CurrentFlow})
	switch res.Intent {
	case intent.Confirm:
		var st draftState
		if err := json.Unmarshal(session.FlowState, &st); err != nil || st.DraftID == 0 || user == nil {
			a.clearFlow(ctx, session)
			return &Reply{Text: responses.Get("error", "corrupted", nil)}
		}
		a.clearFlow(ctx, session)
		jobID, err := a.exec.ApproveDraft(ctx, user.ID, st.DraftID)
		if err != nil {
			a.logger.Error("draft approval failed",
				zap.Int64("draft_id", st.DraftID),
				zap.Int64("user_id", user.ID),
				zap.Error(err))
			return &Reply{Text: responses.Get("error", "generic", nil), Intent: intent.Confirm}
		}
		title := "Your job"
		if job, jerr := a.exec.GetPosting(ctx, jobID); jerr == nil {
			title = job.Title
		}
		return &Reply{
			Text:         responses.Get("post_job", "posted", map[string]string{"title": title}),
			QuickReplies: []string{"Post Another Job", "My Jobs", "View Applicants"},
			Intent:       intent.Confirm,
		}
	case intent.Reject, intent.CancelFlow:
		a.clearFlow(ctx, session)
		return &Reply{
			Text:   "Orait — I'll keep it as a draft. You can post it anytime from your [dashboard](/dashboard/employer/jobs). 📝",
			Intent: res.Intent,
		}
	default:
		// Anything else abandons the pending approval; the draft stays
		// saved and the message is treated as a fresh request.
		a.clearFlow(ctx, session)
		return a.dispatch(ctx, session, user, text)
	}
}

// handleAttachment runs the document upload path: extract text, parse
// postings, then post or draft per the employer's automation prefs.
func (a *Agent) handleAttachment(ctx context.Context, session *models.Session, user *models.User, doc *extract.Document) *Reply {
	if user == nil || user.Role != models.RoleEmployer {
		return &Reply{Text: "Document upload for job creation is available for employers. Please [log in](/login) as an employer."}
	}
	if !a.exec.FeatureEnabled(ctx, FeatureDocumentParse) {
		return &Reply{Text: responses.Get("document", "parse_error", nil)}
	}

	text, err := a.extract.Extract(ctx, doc)
	if err != nil || len(strings.TrimSpace(text)) < 50 {
		if err != nil {
			a.logger.Warn("document extraction failed", zap.String("filename", doc.Filename), zap.Error(err))
		}
		return &Reply{Text: responses.Get("document", "parse_error", nil)}
	}

	jobs := extract.ParseJobs(text)
	if len(jobs) == 0 {
		return &Reply{Text: responses.Get("document", "parse_error", nil)}
	}

	prefs, err := a.exec.EmployerPrefs(ctx, user.ID)
	if err != nil {
		a.logger.Error("employer prefs lookup failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return &Reply{Text: responses.Get("error", "generic", nil)}
	}

	if prefs.AutoPost == models.AutoPostAuto {
		var summaries []string
		for i, job := range jobs {
			if _, perr := a.exec.PostListing(ctx, user.ID, job); perr != nil {
				a.logger.Error("auto-post from document failed", zap.String("title", job.Title), zap.Error(perr))
				continue
			}
			summaries = append(summaries, fmt.Sprintf("%d. ✅ **%s**", i+1, job.Title))
		}
		if len(summaries) == 0 {
			return &Reply{Text: responses.Get("error", "generic", nil)}
		}
		return &Reply{Text: responses.Get("document", "auto_posted", map[string]string{
			"count":     fmt.Sprint(len(summaries)),
			"summaries": strings.Join(summaries, "\n"),
		}), Intent: "upload_job_document"}
	}

	var (
		draftIDs  []int64
		summaries []string
	)
	for i, job := range jobs {
		id, derr := a.exec.CreateDraft(ctx, user.ID, session.ID, job, doc.Filename)
		if derr != nil {
			a.logger.Error("draft from document failed", zap.String("title", job.Title), zap.Error(derr))
			continue
		}
		draftIDs = append(draftIDs, id)
		summaries = append(summaries, fmt.Sprintf("%d. 📝 **%s**", i+1, job.Title))
	}
	if len(draftIDs) == 0 {
		return &Reply{Text: responses.Get("error", "generic", nil)}
	}
	if len(draftIDs) == 1 {
		a.setPendingDraft(ctx, session, draftIDs[0])
		return &Reply{
			Text:         responses.Get("document", "single_job", map[string]string{"summary": summaries[0]}),
			QuickReplies: []string{"Post Now", "Save as Draft"},
			Intent:       "upload_job_document",
		}
	}
	return &Reply{Text: responses.Get("document", "found_jobs", map[string]string{
		"count":     fmt.Sprint(len(draftIDs)),
		"summaries": strings.Join(summaries, "\n"),
	}), Intent: "upload_job_document"}
}

// ─── Flow plumbing ───────────────────────────────────────

func (a *Agent) flowContext(ctx context.Context, session *models.Session, user *models.User) *flow.Context {
	fc := &flow.Context{Ctx: ctx, Exec: a.exec, User: user, SessionID: session.ID}
	if user != nil {
		fc.UserID = user.ID
	}
	return fc
}

func (a *Agent) startFlow(ctx context.Context, session *models.Session, user *models.User, name string) *Reply {
	fc := a.flowContext(ctx, session, user)
	result, err := a.flows.Start(fc, name)
	if err != nil {
		a.logger.Error("flow start failed", zap.String("flow", name), zap.Error(err))
		return &Reply{Text: responses.Get("error", "generic", nil)}
	}
	return a.applyFlowResult(ctx, session, result, name)
}

func (a *Agent) saveFlowState(ctx context.Context, session *models.Session, st *flow.State) {
	blob, err := st.Encode()
	if err != nil {
		a.logger.Error("flow state encode failed", zap.String("flow", st.Flow), zap.Error(err))
		return
	}
	if err := a.store.SetSessionFlow(ctx, session.ID, st.Flow, blob); err != nil {
		a.logger.Error("flow state persist failed", zap.Int64("session_id", session.ID), zap.Error(err))
		return
	}
	session.CurrentFlow = st.Flow
	session.FlowState = blob
}

func (a *Agent) setPendingDraft(ctx context.Context, session *models.Session, draftID int64) {
	blob, _ := json.Marshal(draftState{DraftID: draftID})
	if err := a.store.SetSessionFlow(ctx, session.ID, draftApprovalFlow, blob); err != nil {
		a.logger.Error("pending draft persist failed", zap.Int64("session_id", session.ID), zap.Error(err))
		return
	}
	session.CurrentFlow = draftApprovalFlow
	session.FlowState = blob
}

func (a *Agent) clearFlow(ctx context.Context, session *models.Session) {
	if err := a.store.ClearSessionFlow(ctx, session.ID); err != nil {
		a.logger.Warn("flow clear failed", zap.Int64("session_id", session.ID), zap.Error(err))
	}
	session.CurrentFlow = ""
	session.FlowState = nil
}
