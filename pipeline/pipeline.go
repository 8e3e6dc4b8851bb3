// Package pipeline runs one upload through download, probe, convert,
// transcribe, post-process and delivery, and always releases the job's
// workspace.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/transcribe-bot/llm"
	"github.com/mrsingh-rishi/transcribe-bot/message"
	"github.com/mrsingh-rishi/transcribe-bot/queue"
	"github.com/mrsingh-rishi/transcribe-bot/stt"
	"github.com/mrsingh-rishi/transcribe-bot/tts"
	"github.com/mrsingh-rishi/transcribe-bot/types"
	"github.com/mrsingh-rishi/transcribe-bot/workspace"
)

// Stage is a step of the job lifecycle.
type Stage string

const (
	StageValidate    Stage = "validate"
	StageCreateJob   Stage = "create_job"
	StageDownload    Stage = "download"
	StageProbe       Stage = "probe"
	StageConvert     Stage = "convert"
	StageTranscribe  Stage = "transcribe"
	StagePostProcess Stage = "post_process"
	StageDeliver     Stage = "deliver"
	StageCleanup     Stage = "cleanup"
)

// Outcome is how a job ended.
type Outcome int

const (
	Delivered Outcome = iota
	Rejected
	NoSpeech
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Rejected:
		return "rejected"
	case NoSpeech:
		return "no_speech"
	default:
		return "failed"
	}
}

const (
	noSpeechMessage = "No speech detected in the audio. Please make sure the audio contains clear speech."
	replyTimeout    = 30 * time.Second
)

// Deps are the collaborators a pipeline drives. Generator and Synthesizer
// may be nil when post-processing is not configured.
type Deps struct {
	Workspace   Workspace
	Media       Media
	Transcriber stt.Transcriber
	Generator   llm.Generator
	Synthesizer tts.Synthesizer
}

// Limits are the read-only bounds applied to every job.
type Limits struct {
	MaxAudioSeconds   float64
	MaxFileMB         int
	MaxChunkSize      int
	Extensions        []string
	MimePrefixes      []string
	TranscribeTimeout time.Duration
	GenerateTimeout   time.Duration
}

// Pipeline processes requests. It holds no per-job state and is safe for
// concurrent use.
type Pipeline struct {
	deps     Deps
	limits   Limits
	helpText string
	logger   *slog.Logger
}

func New(deps Deps, limits Limits, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if limits.MaxChunkSize <= 0 {
		limits.MaxChunkSize = message.DefaultMaxChunkSize
	}
	return &Pipeline{
		deps:     deps,
		limits:   limits,
		helpText: message.HelpText(limits.MaxAudioSeconds, limits.MaxFileMB, limits.Extensions),
		logger:   logger,
	}
}

// HelpText is the usage message for the configured limits.
func (p *Pipeline) HelpText() string { return p.helpText }

// run is the mutable state of one job.
type run struct {
	job     *workspace.Job
	opts    types.TranscribeOptions
	stage   Stage
	replier Replier
	logger  *slog.Logger
}

func (r *run) enter(stage Stage) {
	r.stage = stage
	r.logger.Debug("job stage", "stage", stage)
}

// status updates the progress message. Failures are logged and ignored.
func (r *run) status(ctx context.Context, text string) {
	if err := r.replier.Status(ctx, text); err != nil {
		r.logger.Warn("status update failed", "stage", r.stage, "error", err)
	}
}

// Handle processes one request and reports how it ended. Exactly one
// cleanup runs for every job created, and a failure produces exactly one
// user-facing error message.
func (p *Pipeline) Handle(ctx context.Context, req Request, replier Replier) (outcome Outcome) {
	logger := p.logger.With("user_id", req.UserID, "kind", req.Kind.String())

	if verr := p.validate(req); verr != nil {
		logger.Info("request rejected", "reason", verr.Reason)
		p.notify(ctx, logger, func(ctx context.Context) error {
			if req.Kind == KindUnsupported || req.Kind == KindDocument {
				return replier.SendMarkdown(ctx, verr.Message)
			}
			return replier.SendText(ctx, verr.Message)
		})
		return Rejected
	}

	opts := message.ParseOptions(req.Caption)

	job, err := p.deps.Workspace.CreateJob()
	if err != nil {
		logger.Error("job creation failed", "stage", StageCreateJob, "error", err)
		p.notify(ctx, logger, func(ctx context.Context) error {
			return replier.SendText(ctx, failureMessage(errors.New("could not prepare workspace")))
		})
		return Failed
	}

	r := &run{
		job:     job,
		opts:    opts,
		stage:   StageCreateJob,
		replier: replier,
		logger:  logger.With("job_id", job.ID),
	}
	r.logger.Info("processing audio", "options", fmt.Sprintf("%+v", opts))

	defer func() {
		r.enter(StageCleanup)
		p.deps.Workspace.Cleanup(job)
	}()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("job panicked", "stage", r.stage, "panic", rec)
			outcome = Failed
			if r.stage == StageDeliver {
				// Part of the reply may already be out; no error reply follows it.
				return
			}
			p.fail(ctx, r, &StageError{Stage: r.stage, Err: errors.New("unexpected error")})
		}
	}()

	outcome, err = p.process(ctx, req, r)
	if err != nil {
		p.fail(ctx, r, err)
		return Failed
	}
	r.logger.Info("job finished", "outcome", outcome.String())
	return outcome
}

func (p *Pipeline) validate(req Request) *ValidationError {
	switch req.Kind {
	case KindVoice, KindAudio:
	case KindDocument:
		if !SupportedDocument(req.MimeType, req.FileName, p.limits.MimePrefixes, p.limits.Extensions) {
			return &ValidationError{
				Reason:  "unsupported document",
				Message: "Sorry, I can't process this file type.\n\n" + p.helpText,
			}
		}
	default:
		return &ValidationError{
			Reason:  "unsupported kind",
			Message: "Sorry, I can't process this file type.\n\n" + p.helpText,
		}
	}
	maxBytes := int64(p.limits.MaxFileMB) * 1024 * 1024
	if req.FileSize > 0 && req.FileSize > maxBytes {
		return &ValidationError{
			Reason:  "file too large",
			Message: fmt.Sprintf("File is too large. Maximum size is %dMB.", p.limits.MaxFileMB),
		}
	}
	return nil
}

// process runs stages 4 through 9. A nil error with a non-Delivered outcome
// means the user was already told why.
func (p *Pipeline) process(ctx context.Context, req Request, r *run) (Outcome, error) {
	r.enter(StageDownload)
	r.status(ctx, "Downloading audio...")
	inputPath := r.job.InputPath(req.FileName)
	if req.Source == nil {
		return Failed, &StageError{Stage: StageDownload, Err: &TransportError{Err: errors.New("request has no source")}}
	}
	if err := req.Source.Download(ctx, inputPath); err != nil {
		return Failed, &StageError{Stage: StageDownload, Err: &TransportError{Err: err}}
	}

	r.enter(StageProbe)
	r.status(ctx, "Checking audio duration...")
	duration, err := p.deps.Media.ProbeDuration(ctx, inputPath)
	if err != nil {
		return Failed, &StageError{Stage: StageProbe, Err: err}
	}
	if duration > p.limits.MaxAudioSeconds {
		r.logger.Info("audio too long", "duration", duration, "max", p.limits.MaxAudioSeconds)
		p.notifyStatus(ctx, r, fmt.Sprintf("Audio is too long (%s). Maximum duration is %s.",
			message.FormatDuration(duration), message.FormatDuration(p.limits.MaxAudioSeconds)))
		return Rejected, nil
	}

	r.enter(StageConvert)
	r.status(ctx, "Converting audio...")
	wavPath := r.job.CanonicalPath()
	if err := p.deps.Media.ConvertToCanonical(ctx, inputPath, wavPath); err != nil {
		return Failed, &StageError{Stage: StageConvert, Err: err}
	}

	r.enter(StageTranscribe)
	langInfo := ""
	if r.opts.Language != "" {
		langInfo = fmt.Sprintf(" (language: %s)", r.opts.Language)
	}
	r.status(ctx, "Transcribing"+langInfo+"...")
	result, err := p.transcribe(ctx, wavPath, r.opts)
	if errors.Is(err, ErrNoSpeech) {
		r.logger.Info("no speech detected")
		p.notifyStatus(ctx, r, noSpeechMessage)
		return NoSpeech, nil
	}
	if err != nil {
		return Failed, &StageError{Stage: StageTranscribe, Err: err}
	}

	r.enter(StagePostProcess)
	text, attachment, err := p.postProcess(ctx, r, result.Text)
	if err != nil {
		return Failed, &StageError{Stage: StagePostProcess, Err: err}
	}

	r.enter(StageDeliver)
	outbox := p.buildOutbox(r.opts, result.Language, text, attachment)
	if err := r.replier.ClearStatus(ctx); err != nil {
		r.logger.Warn("clear status failed", "error", err)
	}
	sent, err := outbox.Drain(func(m outgoing) error {
		return p.send(ctx, r.replier, m)
	})
	if err != nil {
		// No error reply once delivery has started.
		r.logger.Error("delivery failed", "stage", StageDeliver, "sent", sent, "pending", outbox.Len(), "error", err)
		return Failed, nil
	}
	r.logger.Info("sent reply", "messages", sent)
	return Delivered, nil
}

func (p *Pipeline) transcribe(ctx context.Context, wavPath string, opts types.TranscribeOptions) (types.TranscriptionResult, error) {
	tctx, cancel := withOptionalTimeout(ctx, p.limits.TranscribeTimeout)
	defer cancel()
	result, err := p.deps.Transcriber.Transcribe(tctx, stt.Request{
		AudioPath:  wavPath,
		Language:   opts.Language,
		Timestamps: opts.Timestamps,
	})
	if err != nil {
		return types.TranscriptionResult{}, &TranscriptionError{Err: err}
	}
	if strings.TrimSpace(result.Text) == "" {
		return result, ErrNoSpeech
	}
	return result, nil
}

// postProcess applies summary, then translation, then speech synthesis of
// the final text.
func (p *Pipeline) postProcess(ctx context.Context, r *run, text string) (string, *tts.Attachment, error) {
	if r.opts.Summary || r.opts.Translate != "" {
		if p.deps.Generator == nil {
			return "", nil, &GenerationError{Op: "text generation", Err: errors.New("not configured")}
		}
	}
	if r.opts.Summary {
		r.status(ctx, "Summarizing...")
		out, err := p.generate(ctx, func(ctx context.Context) (string, error) {
			return p.deps.Generator.Summarize(ctx, text)
		})
		if err != nil {
			return "", nil, &GenerationError{Op: "summary", Err: err}
		}
		text = out
	}
	if r.opts.Translate != "" {
		r.status(ctx, fmt.Sprintf("Translating to %s...", llm.LanguageName(r.opts.Translate)))
		out, err := p.generate(ctx, func(ctx context.Context) (string, error) {
			return p.deps.Generator.Translate(ctx, text, r.opts.Translate)
		})
		if err != nil {
			return "", nil, &GenerationError{Op: "translation", Err: err}
		}
		text = out
	}
	if !r.opts.Voice {
		return text, nil, nil
	}
	if p.deps.Synthesizer == nil {
		return "", nil, &GenerationError{Op: "speech synthesis", Err: errors.New("not configured")}
	}
	r.status(ctx, "Generating voice reply...")
	sctx, cancel := withOptionalTimeout(ctx, p.limits.GenerateTimeout)
	defer cancel()
	att, err := p.deps.Synthesizer.Synthesize(sctx, text, r.job.ReplyAudioPath(p.deps.Synthesizer.Extension()))
	if err != nil {
		return "", nil, &GenerationError{Op: "speech synthesis", Err: err}
	}
	return text, &att, nil
}

func (p *Pipeline) generate(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	gctx, cancel := withOptionalTimeout(ctx, p.limits.GenerateTimeout)
	defer cancel()
	return fn(gctx)
}

type outgoing struct {
	text  string
	audio *tts.Attachment
}

func (p *Pipeline) buildOutbox(opts types.TranscribeOptions, language, text string, att *tts.Attachment) *queue.Queue[outgoing] {
	outbox := queue.New[outgoing]()
	maxSize := p.limits.MaxChunkSize
	if maxSize <= 0 {
		maxSize = message.DefaultMaxChunkSize
	}
	header := Header(opts, language)
	// Every message, the first one with its header included, stays within
	// maxSize. A header leaving too little room goes out on its own.
	budget := maxSize - utf8.RuneCountInString(header) - len("\n\n")
	if budget < maxSize/4 {
		for _, chunk := range message.Chunk(header, maxSize) {
			outbox.Enqueue(outgoing{text: chunk})
		}
		for _, chunk := range message.Chunk(text, maxSize) {
			if chunk != "" {
				outbox.Enqueue(outgoing{text: chunk})
			}
		}
	} else {
		for i, chunk := range message.Chunk(text, budget) {
			if i == 0 {
				chunk = header + "\n\n" + chunk
			}
			outbox.Enqueue(outgoing{text: chunk})
		}
	}
	if att != nil {
		outbox.Enqueue(outgoing{audio: att})
	}
	return outbox
}

func (p *Pipeline) send(ctx context.Context, replier Replier, m outgoing) error {
	if m.audio != nil {
		return replier.SendAudio(ctx, *m.audio)
	}
	return replier.SendText(ctx, m.text)
}

// Header describes the delivered text: detected language and the applied
// transformations.
func Header(opts types.TranscribeOptions, language string) string {
	if language == "" {
		language = stt.LanguageUnknown
	}
	var applied []string
	if opts.Timestamps {
		applied = append(applied, "timestamps")
	}
	if opts.Translate != "" {
		applied = append(applied, "translated to "+llm.LanguageName(opts.Translate))
	}
	if opts.Summary {
		applied = append(applied, "summarized")
	}
	header := fmt.Sprintf("Transcription (detected: %s)", language)
	if len(applied) > 0 {
		header += " [" + strings.Join(applied, ", ") + "]"
	}
	return header + ":"
}

func failureMessage(err error) string {
	return fmt.Sprintf("Sorry, there was an error processing your audio: %s\n\n"+
		"Please try again or send a different file.", userCause(err))
}

// fail logs err with the job's stage and sends the single error reply.
func (p *Pipeline) fail(ctx context.Context, r *run, err error) {
	stage := r.stage
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		stage = stageErr.Stage
	}
	r.logger.Error("job failed", "stage", stage, "error", fmt.Sprintf("%+v", err))
	p.notify(ctx, r.logger, func(ctx context.Context) error {
		if err := r.replier.ClearStatus(ctx); err != nil {
			r.logger.Warn("clear status failed", "error", err)
		}
		return r.replier.SendText(ctx, failureMessage(err))
	})
}

// notifyStatus replaces the status message with a terminal notice, falling
// back to a new message when the edit fails.
func (p *Pipeline) notifyStatus(ctx context.Context, r *run, text string) {
	p.notify(ctx, r.logger, func(ctx context.Context) error {
		if err := r.replier.Status(ctx, text); err == nil {
			return nil
		}
		return r.replier.SendText(ctx, text)
	})
}

// notify sends a reply even if the job context is already cancelled.
func (p *Pipeline) notify(ctx context.Context, logger *slog.Logger, send func(context.Context) error) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), replyTimeout)
	defer cancel()
	if err := send(nctx); err != nil {
		logger.Error("reply failed", "error", err)
	}
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
