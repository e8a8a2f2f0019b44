package internal

import (
	"fmt"
	"time"
)

// EndingHint is the text of the entry appended when a chapter runs out
// without offering a branch
const EndingHint = "ending..."

// Phase is the state of the playback loop
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePlaying
	PhaseAwaitingChoice
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePlaying:
		return "playing"
	case PhaseAwaitingChoice:
		return "awaiting_choice"
	case PhaseEnded:
		return "ended"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Continuation is the advance scheduled after a choice. Receive from C,
// then call Advance; Cancel drops it.
type Continuation struct {
	C     <-chan time.Time
	timer *time.Timer
}

// Cancel stops the continuation. It reports whether it was still pending.
func (c *Continuation) Cancel() bool {
	if c == nil || c.timer == nil {
		return false
	}
	return c.timer.Stop()
}

// Player drives an Engine and a SessionLog together. It holds no state of
// its own beyond the pacing delay; phase is derived from the pair.
type Player struct {
	engine      *Engine
	log         *SessionLog
	choiceDelay time.Duration
}

// NewPlayer creates a player over engine and log
func NewPlayer(engine *Engine, log *SessionLog, choiceDelay time.Duration) *Player {
	return &Player{engine: engine, log: log, choiceDelay: choiceDelay}
}

// Phase derives the playback state
func (p *Player) Phase() Phase {
	if _, ok := p.engine.Cursor(); !ok {
		return PhaseIdle
	}
	if last, ok := p.log.Last(); ok && last.Kind == KindOptions {
		return PhaseAwaitingChoice
	}
	if !p.engine.HasNextMessage() {
		return PhaseEnded
	}
	return PhasePlaying
}

// Start resumes at the persisted position, or the entry chapter for a new
// game, and emits the first message when the transcript is empty.
func (p *Player) Start() ([]TranscriptEntry, error) {
	if !p.engine.Loaded() {
		return nil, ErrNoNovel
	}
	at := p.engine.ResumePoint()
	p.engine.SetCursor(at.Chapter, at.Line)
	p.syncPosition()
	p.log.RecordBookmark(at.Chapter)
	LogDebug("Resuming at %s:%d", at.Chapter, at.Line)

	if p.log.Len() > 0 {
		return nil, nil
	}
	return p.Advance(), nil
}

// Advance emits the next message plus anything that follows it without
// player input. It returns the new entries, or nil when the loop is idle,
// waiting for a choice, or ended.
func (p *Player) Advance() []TranscriptEntry {
	if p.Phase() != PhasePlaying {
		return nil
	}

	var emitted []TranscriptEntry
	for {
		msg := p.engine.NextMessage()
		if msg == nil {
			break
		}
		emitted = append(emitted, p.log.Append(*msg, p.engine.Character(msg.Character)))
		p.syncPosition()

		if msg.Kind == KindUnlockCollection {
			p.engine.UnlockCollection(msg.Value)
			LogDebug("Unlocked collection %s", msg.Value)
		}

		if !p.engine.HasNextMessage() {
			if msg.Kind != KindOptions {
				emitted = append(emitted, p.log.Append(Message{
					Character: SystemSpeaker,
					Kind:      KindHint,
					Value:     EndingHint,
				}, p.engine.Character(SystemSpeaker)))
			}
			break
		}
		if !msg.Kind.AutoAdvances() {
			break
		}
	}
	return emitted
}

// Choose resolves an option, echoes the chosen label, and enters the target
// chapter. The returned continuation fires after the configured delay; the
// caller advances when it does.
func (p *Player) Choose(entryID string, option int) (TranscriptEntry, *Continuation, error) {
	source, _ := p.log.Entry(entryID)
	label, route, err := p.log.ResolveOption(entryID, option)
	if err != nil {
		return TranscriptEntry{}, nil, err
	}

	echo := p.log.AppendEcho(source.Sender, label, p.engine.Character(source.Sender).Avatar)
	p.enter(route)
	LogInfo("Chose %q, entering %s", label, route)

	timer := time.NewTimer(p.choiceDelay)
	return echo, &Continuation{C: timer.C, timer: timer}, nil
}

// JumpTo restarts playback at the top of an unlocked chapter with a fresh
// transcript.
func (p *Player) JumpTo(chapter string) ([]TranscriptEntry, error) {
	ch := p.engine.Chapter(chapter)
	if ch.Name == "" || !ch.Unlocked {
		return nil, fmt.Errorf("%w: %s", ErrChapterLocked, chapter)
	}
	p.log.ClearTranscript()
	p.enter(chapter)
	return p.Advance(), nil
}

// SetCursor repositions playback without touching the transcript
func (p *Player) SetCursor(chapter string, line int) {
	p.engine.SetCursor(chapter, line)
	p.syncPosition()
}

// MarkDelivered records that the presentation layer fired an entry's side
// effect. Only the first call for an entry returns true.
func (p *Player) MarkDelivered(entryID string) bool {
	return p.log.MarkDelivered(entryID)
}

// ResetProgress relocks the story and clears the transcript, then starts
// over from the entry chapter.
func (p *Player) ResetProgress() ([]TranscriptEntry, error) {
	if !p.engine.Loaded() {
		return nil, ErrNoNovel
	}
	p.engine.Reset()
	p.log.Reset()
	return p.Start()
}

func (p *Player) enter(chapter string) {
	p.engine.SetCursor(chapter, 0)
	p.syncPosition()
	p.log.RecordBookmark(chapter)
}

func (p *Player) syncPosition() {
	if cur, ok := p.engine.Cursor(); ok {
		p.log.SetPosition(cur.Chapter, cur.Line)
	}
}
