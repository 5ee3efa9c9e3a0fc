// Package orchestrator runs the per-session state machine that ties the
// audio segmenter, transcription client, question detector, knowledge
// matcher, and answer synthesizer together. One dispatch loop per session;
// no shared mutable state between sessions.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
	"github.com/JO-HEEJIN/interview-mate-sub000/domain/repositories"
	"github.com/JO-HEEJIN/interview-mate-sub000/internal/detector"
	"github.com/JO-HEEJIN/interview-mate-sub000/internal/matcher"
	"github.com/JO-HEEJIN/interview-mate-sub000/internal/segmenter"
	"github.com/JO-HEEJIN/interview-mate-sub000/internal/synthesizer"
)

// KnowledgeLoader accepts knowledge items bulk-loaded over the session
// channel and makes them searchable. Load returns once the items can serve
// matches.
type KnowledgeLoader interface {
	Load(ctx context.Context, userID string, items []entities.KnowledgeItem) error
}

// Deps wires one orchestrator.
type Deps struct {
	Logger       *zap.Logger
	SpeechToText repositories.SpeechToText
	Matcher      *matcher.Matcher
	Synthesizer  *synthesizer.Synthesizer
	// Records is optional practice-history persistence.
	Records repositories.SessionRepository
	// Loader is optional; context-message QA pairs are loaded through it.
	Loader KnowledgeLoader

	AudioConfig   repositories.AudioConfig
	SegmenterConf segmenter.Config
}

// Orchestrator owns exactly one session.
type Orchestrator struct {
	deps    Deps
	session *entities.Session
	logger  *zap.Logger

	seg   *segmenter.Segmenter
	cache *matcher.SessionCache

	inbound  chan InboundEvent
	internal chan internalEvent
	outbound chan OutboundEvent

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	sessCtx  entities.SessionContext
	audioCfg repositories.AudioConfig

	transcribing bool
	pending      []entities.Utterance
	sttCancel    context.CancelFunc
	sttGen       uint64

	genCancel    context.CancelFunc
	chunkSeq     int
	liveQuestion string
}

// New creates the orchestrator for one freshly connected session.
func New(userID string, deps Deps) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())

	session := entities.NewSession(userID)
	if deps.AudioConfig.Language != "" {
		session.Language = deps.AudioConfig.Language
	}

	logger := deps.Logger.With(
		zap.String("sessionID", session.ID),
		zap.String("userID", userID))

	return &Orchestrator{
		deps:     deps,
		session:  session,
		logger:   logger,
		seg:      segmenter.New(deps.SegmenterConf, logger),
		cache:    matcher.NewSessionCache(),
		inbound:  make(chan InboundEvent, 64),
		internal: make(chan internalEvent, 64),
		outbound: make(chan OutboundEvent, 256),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		audioCfg: deps.AudioConfig,
	}
}

// SessionID returns the session identifier.
func (o *Orchestrator) SessionID() string {
	return o.session.ID
}

// Events is the session's outbound streaming channel. Closed when the
// session is destroyed.
func (o *Orchestrator) Events() <-chan OutboundEvent {
	return o.outbound
}

// Send delivers an inbound event to the dispatch loop. Returns false once
// the session is closed.
func (o *Orchestrator) Send(ev InboundEvent) bool {
	select {
	case o.inbound <- ev:
		return true
	case <-o.ctx.Done():
		return false
	}
}

// Close destroys the session: in-flight work is cancelled and the practice
// record is finished. Blocks until the dispatch loop has exited.
func (o *Orchestrator) Close() {
	o.cancel()
	<-o.done
}

// Run executes the dispatch loop. Call once, in its own goroutine.
func (o *Orchestrator) Run() {
	defer close(o.done)
	defer close(o.outbound)
	defer o.cleanup()

	o.createRecord()

	for {
		select {
		case ev := <-o.inbound:
			o.handleInbound(ev)
		case u := <-o.seg.Utterances():
			o.handleUtterance(u)
		case ev := <-o.internal:
			o.handleInternal(ev)
		case <-o.ctx.Done():
			return
		}
	}
}

func (o *Orchestrator) cleanup() {
	if o.genCancel != nil {
		o.genCancel()
	}
	if o.sttCancel != nil {
		o.sttCancel()
	}
	if o.deps.Records != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.deps.Records.Finish(ctx, o.session.ID, o.session.Transcript); err != nil {
			o.logger.Warn("Failed to finish practice record", zap.Error(err))
		}
	}
	o.logger.Info("Session destroyed")
}

func (o *Orchestrator) createRecord() {
	if o.deps.Records == nil {
		return
	}
	ctx, cancel := context.WithTimeout(o.ctx, 5*time.Second)
	defer cancel()
	record := &repositories.SessionRecord{
		SessionID: o.session.ID,
		UserID:    o.session.UserID,
		CreatedAt: o.session.CreatedAt.Unix(),
	}
	if err := o.deps.Records.Create(ctx, record); err != nil {
		o.logger.Warn("Failed to create practice record", zap.Error(err))
	}
}

func (o *Orchestrator) handleInbound(ev InboundEvent) {
	switch ev := ev.(type) {
	case ContextEvent:
		o.handleContext(ev)
	case ConfigEvent:
		if ev.Language != "" {
			o.session.Language = ev.Language
			o.audioCfg.Language = ev.Language
		}
		o.emit(AckEvent{Of: "config", Message: "language set to " + o.session.Language})
	case AudioFrameEvent:
		o.handleFrame(ev.Frame)
	case FinalizeAudioEvent:
		o.seg.Flush(time.Now())
		o.emit(AckEvent{Of: "finalize", Message: "audio stream finalized"})
	case RequestAnswerEvent:
		o.handleRequestAnswer(ev)
	case ClearEvent:
		o.handleClear()
	case PauseEvent:
		if o.session.State == entities.StateIdle || o.session.State == entities.StateTranscribing {
			o.session.TransitionTo(entities.StatePaused)
			o.emit(AckEvent{Of: "pause", Message: "session paused"})
		}
	case ResumeEvent:
		if o.session.State == entities.StatePaused {
			o.session.TransitionTo(entities.StateIdle)
			o.emit(AckEvent{Of: "resume", Message: "session resumed"})
		}
	}
}

func (o *Orchestrator) handleContext(ev ContextEvent) {
	sc := ev.Context
	if sc.UserID == "" {
		sc.UserID = o.session.UserID
	}
	if err := sc.Validate(); err != nil {
		o.emit(ErrorEvent{Code: CodeMalformedMessage, Message: err.Error()})
		return
	}
	if o.session.UserID == "" {
		o.session.UserID = sc.UserID
	}
	o.sessCtx = sc

	o.logger.Info("Context received",
		zap.Int("stories", len(sc.StarStories)),
		zap.Int("talkingPoints", len(sc.TalkingPoints)),
		zap.Int("qaPairs", len(sc.QAPairs)))

	if o.deps.Loader == nil || len(sc.QAPairs) == 0 {
		o.emit(AckEvent{Of: "context", Message: "context updated"})
		return
	}

	items := make([]entities.KnowledgeItem, len(sc.QAPairs))
	copy(items, sc.QAPairs)
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		items[i].UserID = sc.UserID
		if items[i].Kind == "" {
			items[i].Kind = entities.KnowledgeKindQA
		}
	}

	// The ack is withheld until the items are searchable, so a client that
	// follows it with request_answer can hit them.
	go o.loadContext(sc.UserID, items)
}

func (o *Orchestrator) loadContext(userID string, items []entities.KnowledgeItem) {
	ctx, cancel := context.WithTimeout(o.ctx, 30*time.Second)
	defer cancel()
	err := o.deps.Loader.Load(ctx, userID, items)
	o.post(contextLoaded{items: len(items), err: err})
}

func (o *Orchestrator) handleFrame(frame entities.AudioFrame) {
	if o.session.State == entities.StatePaused {
		return
	}
	if o.session.State == entities.StateIdle {
		o.session.TransitionTo(entities.StateTranscribing)
	}
	if frame.Timestamp.IsZero() {
		frame.Timestamp = time.Now()
	}
	o.seg.Push(frame)
}

func (o *Orchestrator) handleUtterance(u entities.Utterance) {
	if o.transcribing {
		// A prior utterance is still with the provider; queue this one.
		o.pending = append(o.pending, u)
		return
	}
	o.startTranscription(u)
}

func (o *Orchestrator) startTranscription(u entities.Utterance) {
	o.transcribing = true
	sttCtx, cancel := context.WithCancel(o.ctx)
	o.sttCancel = cancel

	gen := o.sttGen
	cfg := o.audioCfg

	go o.transcribe(sttCtx, gen, u, cfg)
}

// transcribe runs off-loop so the session stays responsive while blocked on
// the provider. Results come back as internal events tagged with gen; stale
// results (after a clear) are discarded.
func (o *Orchestrator) transcribe(ctx context.Context, gen uint64, u entities.Utterance, cfg repositories.AudioConfig) {
	stream, err := o.deps.SpeechToText.InitTranscribeStreaming(ctx, cfg)
	if err != nil {
		o.post(transcriptFinal{gen: gen, err: err})
		return
	}

	partialsDone := make(chan struct{})
	go func() {
		defer close(partialsDone)
		for p := range stream.Partials() {
			o.post(transcriptPartial{gen: gen, text: p})
		}
	}()

	for _, f := range u.Frames {
		if err := stream.Stream(f.Data); err != nil {
			o.post(transcriptFinal{gen: gen, err: err})
			return
		}
	}

	text, err := stream.End()
	<-partialsDone
	o.post(transcriptFinal{gen: gen, text: text, err: err})
}

func (o *Orchestrator) handleRequestAnswer(ev RequestAnswerEvent) {
	if ev.Question == "" {
		o.emit(ErrorEvent{Code: CodeMalformedMessage, Message: "question is required"})
		return
	}

	category := entities.QuestionCategory(ev.Category)
	switch category {
	case entities.CategoryBehavioral, entities.CategoryTechnical, entities.CategorySituational, entities.CategoryGeneral:
	default:
		category = detector.Categorize(ev.Question)
	}

	// An explicit request while paused implies resume.
	if o.session.State == entities.StatePaused {
		o.session.TransitionTo(entities.StateIdle)
	}

	o.startGeneration(entities.Question{Text: ev.Question, Category: category})
}

func (o *Orchestrator) handleClear() {
	o.releaseGeneration()
	if o.sttCancel != nil {
		o.sttCancel()
		o.sttCancel = nil
	}
	o.sttGen++
	o.transcribing = false
	o.pending = nil
	o.seg.Reset()
	o.cache.Clear()
	o.session.Clear()

	o.logger.Info("Session cleared")
	o.emit(AckEvent{Of: "clear", Message: "session cleared"})
}

func (o *Orchestrator) handleInternal(ev internalEvent) {
	switch ev := ev.(type) {
	case transcriptPartial:
		if ev.gen != o.sttGen {
			return
		}
		o.emit(TranscriptionEvent{Text: ev.text, Accumulated: o.session.Transcript})

	case transcriptFinal:
		o.finishTranscription(ev)

	case contextLoaded:
		if ev.err != nil {
			o.logger.Warn("Context items not fully loaded", zap.Error(ev.err))
		} else {
			o.logger.Info("Context items searchable", zap.Int("items", ev.items))
		}
		o.emit(AckEvent{Of: "context", Message: "context updated"})

	case generationHit:
		if !o.session.IsCurrentEpoch(ev.epoch) {
			return
		}
		o.releaseGeneration()
		o.emit(AnswerEvent{Answer: ev.answer})
		o.recordAnswer(ev.answer)
		o.touchUsage(ev.itemID)
		o.session.TransitionTo(entities.StateIdle)

	case generationStreamStart:
		if !o.session.IsCurrentEpoch(ev.epoch) {
			return
		}
		o.emit(AnswerStreamStartEvent{Question: ev.question, Epoch: ev.epoch})

	case generationChunk:
		if !o.session.IsCurrentEpoch(ev.epoch) {
			return
		}
		o.chunkSeq++
		o.emit(AnswerStreamChunkEvent{
			Question: o.liveQuestion,
			Chunk:    ev.chunk,
			Epoch:    ev.epoch,
			Seq:      o.chunkSeq,
		})

	case generationDone:
		o.finishGeneration(ev)
	}
}

func (o *Orchestrator) finishTranscription(ev transcriptFinal) {
	if ev.gen != o.sttGen {
		return
	}
	o.transcribing = false
	o.sttCancel = nil

	defer o.drainPending()

	if ev.err != nil {
		if errors.Is(ev.err, repositories.ErrTranscriptionUnavailable) {
			o.logger.Error("Transcription failed", zap.Error(ev.err))
			o.emit(ErrorEvent{Code: CodeTranscriptionUnavailable, Message: ev.err.Error()})
			// A paused session or an in-flight generation survives the error.
			if o.session.State == entities.StateTranscribing {
				o.session.TransitionTo(entities.StateError)
				o.session.TransitionTo(entities.StateIdle)
			}
		} else {
			// No speech in the utterance is not worth surfacing.
			o.logger.Debug("Utterance produced no transcript", zap.Error(ev.err))
			if o.session.State == entities.StateTranscribing {
				o.session.TransitionTo(entities.StateIdle)
			}
		}
		return
	}

	o.session.AppendTranscript(ev.text)
	o.emit(TranscriptionEvent{Text: ev.text, Accumulated: o.session.Transcript, IsFinal: true})

	switch o.session.State {
	case entities.StatePaused:
		// The transcript is kept for resume; nothing is detected while paused.
		return
	case entities.StateTranscribing, entities.StateIdle:
		o.session.TransitionTo(entities.StateDetecting)
	case entities.StateGenerating:
		// Keep streaming; a newly spoken question may still supersede it.
	}

	question, ok := detector.Detect(o.session.Transcript)
	if !ok {
		if o.session.State == entities.StateDetecting {
			o.session.TransitionTo(entities.StateIdle)
		}
		return
	}

	o.emit(QuestionDetectedEvent{Question: question})
	// The question has been consumed; the next utterance starts fresh.
	o.session.ResetTranscript()
	o.startGeneration(question)
}

func (o *Orchestrator) drainPending() {
	if o.transcribing || len(o.pending) == 0 {
		return
	}
	next := o.pending[0]
	o.pending = o.pending[1:]
	o.startTranscription(next)
}

// startGeneration converges the detection path and the explicit
// request_answer path. At most one generation is in flight per session: a
// new question cancels the prior one and advances the epoch so its late
// results are discarded.
func (o *Orchestrator) startGeneration(q entities.Question) {
	if err := o.session.TransitionTo(entities.StateGenerating); err != nil {
		o.logger.Warn("Dropping generation request",
			zap.String("state", string(o.session.State)),
			zap.Error(err))
		return
	}

	o.releaseGeneration()

	epoch := o.session.NextEpoch()
	o.chunkSeq = 0
	o.liveQuestion = q.Text

	o.emit(TemporaryAnswerEvent{
		Question: q.Text,
		Answer:   detector.TemporaryAnswer(q.Category),
	})

	genCtx, cancel := context.WithCancel(o.ctx)
	o.genCancel = cancel

	userID := o.session.UserID
	sessCtx := o.sessCtx
	examples := o.session.ExamplesUsed()

	go o.generate(genCtx, epoch, q, userID, sessCtx, examples)
}

// generate runs the match-then-synthesize pipeline off-loop.
func (o *Orchestrator) generate(ctx context.Context, epoch uint64, q entities.Question, userID string, sessCtx entities.SessionContext, examples []string) {
	res := o.deps.Matcher.Match(ctx, userID, q, o.cache)
	if ctx.Err() != nil {
		return
	}

	if res.Hit {
		o.post(generationHit{epoch: epoch, answer: res.Answer, itemID: res.ItemID})
		return
	}

	o.post(generationStreamStart{epoch: epoch, question: q.Text})

	synthesis, err := o.deps.Synthesizer.Stream(ctx, synthesizer.Request{
		Question:     q,
		Context:      sessCtx,
		BestStory:    res.BestStory,
		ExamplesUsed: examples,
	}, func(chunk string) bool {
		return o.post(generationChunk{epoch: epoch, chunk: chunk}) && ctx.Err() == nil
	})

	o.post(generationDone{
		epoch:    epoch,
		answer:   synthesis.Answer,
		examples: synthesis.ExamplesReferenced,
		vector:   res.Vector,
		err:      err,
	})
}

func (o *Orchestrator) finishGeneration(ev generationDone) {
	if !o.session.IsCurrentEpoch(ev.epoch) {
		// Cancelled or superseded; discard so its answer is never recorded.
		return
	}
	o.releaseGeneration()

	if ev.err != nil {
		// Partial tokens already emitted are kept; the user may retry.
		o.logger.Error("Generation failed", zap.Error(ev.err))
		o.session.TransitionTo(entities.StateError)
		o.emit(ErrorEvent{Code: CodeGenerationFailure, Message: ev.err.Error()})
		o.session.TransitionTo(entities.StateIdle)
		return
	}

	o.emit(AnswerStreamEndEvent{Question: ev.answer.Question.Text, Epoch: ev.epoch})

	o.recordAnswer(ev.answer)
	o.cache.Add(ev.answer, ev.vector)
	for _, example := range ev.examples {
		o.session.MarkExampleUsed(example)
	}

	o.session.TransitionTo(entities.StateIdle)
}

// releaseGeneration cancels the current generation's context and clears it.
// Completed generations release theirs too, so derived context nodes do not
// accumulate on the session context.
func (o *Orchestrator) releaseGeneration() {
	if o.genCancel != nil {
		o.genCancel()
		o.genCancel = nil
	}
}

func (o *Orchestrator) recordAnswer(a entities.Answer) {
	o.session.RecordAnswer(a)
	if o.deps.Records == nil {
		return
	}
	sessionID := o.session.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.deps.Records.AppendAnswer(ctx, sessionID, a); err != nil {
			o.logger.Warn("Failed to persist answer", zap.Error(err))
		}
	}()
}

func (o *Orchestrator) touchUsage(itemID string) {
	if itemID == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.deps.Matcher.TouchUsage(ctx, itemID); err != nil {
			o.logger.Warn("Failed to bump usage count",
				zap.String("itemID", itemID),
				zap.Error(err))
		}
	}()
}

func (o *Orchestrator) emit(ev OutboundEvent) {
	select {
	case o.outbound <- ev:
	case <-o.ctx.Done():
	}
}

func (o *Orchestrator) post(ev internalEvent) bool {
	select {
	case o.internal <- ev:
		return true
	case <-o.ctx.Done():
		return false
	}
}
