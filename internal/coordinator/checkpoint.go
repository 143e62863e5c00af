package coordinator

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/conductor/internal/effort"
	"github.com/Iron-Ham/conductor/internal/errors"
)

// Checkpoint is the continuity document one coordinator generation
// leaves for its successor. It is written exactly once, at handoff, and
// never deleted: superseded checkpoints stay on disk as history. The
// handoff itself is always human-triggered; the engine only supplies the
// document and the generation counter.
type Checkpoint struct {
	Generation     int
	EffortID       string
	Reason         string
	WrittenAt      time.Time
	EffortStatus   effort.Status
	CurrentSession effort.SessionID
	OpenQuestions  []string

	// Narrative is the free-form Markdown body: the short story of
	// recent context the next generation reads first.
	Narrative string
}

// Filename returns the checkpoint's file name, e.g. "checkpoint-0004.md".
// Zero-padding keeps lexicographic and generation order aligned.
func (c *Checkpoint) Filename() string {
	return fmt.Sprintf("checkpoint-%04d.md", c.Generation)
}

var checkpointNameRe = regexp.MustCompile(`^checkpoint-(\d+)\.md$`)

// checkpointEnvelope is the YAML front matter layout.
type checkpointEnvelope struct {
	Conductor checkpointMeta `yaml:"conductor"`
}

type checkpointMeta struct {
	Generation     int      `yaml:"generation"`
	Effort         string   `yaml:"effort"`
	Reason         string   `yaml:"reason"`
	WrittenAt      string   `yaml:"written_at"`
	Status         string   `yaml:"status"`
	CurrentSession string   `yaml:"current_session,omitempty"`
	OpenQuestions  []string `yaml:"open_questions,omitempty"`
}

// Marshal renders the checkpoint as a Markdown document with a YAML
// front matter envelope fenced by "---" lines.
func (c *Checkpoint) Marshal() ([]byte, error) {
	env := checkpointEnvelope{Conductor: checkpointMeta{
		Generation:     c.Generation,
		Effort:         c.EffortID,
		Reason:         c.Reason,
		WrittenAt:      c.WrittenAt.UTC().Format(time.RFC3339),
		Status:         string(c.EffortStatus),
		CurrentSession: c.CurrentSession.String(),
		OpenQuestions:  c.OpenQuestions,
	}}
	meta, err := yaml.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode checkpoint front matter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(bytes.TrimRight(meta, "\n"))
	buf.WriteString("\n---\n\n")
	buf.WriteString(strings.TrimRight(c.Narrative, "\n"))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// ParseCheckpoint reads a checkpoint document back from its front matter
// envelope and Markdown body.
func ParseCheckpoint(path string, data []byte) (*Checkpoint, error) {
	content := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return nil, errors.NewMalformedDataError(path, fmt.Errorf("missing front matter fence"))
	}
	parts := bytes.SplitN(content[4:], []byte("\n---\n"), 2)
	if len(parts) < 2 {
		return nil, errors.NewMalformedDataError(path, fmt.Errorf("unterminated front matter"))
	}

	var env checkpointEnvelope
	if err := yaml.Unmarshal(parts[0], &env); err != nil {
		return nil, errors.NewMalformedDataError(path, err)
	}
	meta := env.Conductor
	if meta.Generation <= 0 || meta.Effort == "" {
		return nil, errors.NewMalformedDataError(path, fmt.Errorf("front matter missing generation or effort"))
	}
	// The filename is the authoritative generation; a header that
	// disagrees means the file was hand-edited or mis-copied, and
	// trusting either number would derail the handoff counter.
	if m := checkpointNameRe.FindStringSubmatch(filepath.Base(path)); m != nil {
		if fromName, err := strconv.Atoi(m[1]); err == nil && fromName != meta.Generation {
			return nil, errors.NewMalformedDataError(path,
				fmt.Errorf("front matter generation %d disagrees with filename generation %d", meta.Generation, fromName))
		}
	}
	writtenAt, err := time.Parse(time.RFC3339, meta.WrittenAt)
	if err != nil {
		return nil, errors.NewMalformedDataError(path, fmt.Errorf("bad written_at: %w", err))
	}

	return &Checkpoint{
		Generation:     meta.Generation,
		EffortID:       meta.Effort,
		Reason:         meta.Reason,
		WrittenAt:      writtenAt,
		EffortStatus:   effort.Status(meta.Status),
		CurrentSession: effort.SessionID(meta.CurrentSession),
		OpenQuestions:  meta.OpenQuestions,
		Narrative:      strings.TrimSpace(string(parts[1])),
	}, nil
}

// WriteCheckpoint records a continuity checkpoint with the next
// generation number, derived by reading the latest existing checkpoint
// and incrementing (1 when none exists). An empty narrative is filled
// with a generated summary of current state. The file is created
// exclusively, so two coordinators handing off at once cannot clobber
// each other's generation.
func (c *Coordinator) WriteCheckpoint(ctx context.Context, effortID, reason string, questions []string, narrative string) (*Checkpoint, error) {
	if reason == "" {
		return nil, errors.NewValidationError("checkpoint requires a handoff reason")
	}
	summary, err := c.Status(ctx, effortID)
	if err != nil {
		return nil, err
	}
	if !summary.Started {
		return nil, errors.NewNotFoundError("effort", effortID)
	}
	if narrative == "" {
		narrative = c.defaultNarrative(summary)
	}

	e, err := c.store.Load(ctx, effortID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		generation := 1
		if latest, err := c.LatestCheckpoint(effortID); err == nil {
			generation = latest.Generation + 1
		} else if !errors.IsNotFound(err) {
			return nil, err
		}

		cp := &Checkpoint{
			Generation:     generation,
			EffortID:       effortID,
			Reason:         reason,
			WrittenAt:      time.Now().UTC(),
			EffortStatus:   e.Status,
			CurrentSession: e.CurrentSession,
			OpenQuestions:  questions,
			Narrative:      narrative,
		}
		data, err := cp.Marshal()
		if err != nil {
			return nil, err
		}

		path := filepath.Join(c.store.EffortDir(effortID), cp.Filename())
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err != nil {
			if os.IsExist(err) {
				// Another generation landed first; re-derive and retry.
				continue
			}
			return nil, fmt.Errorf("failed to create checkpoint: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to write checkpoint: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("failed to close checkpoint: %w", err)
		}

		c.logger.WithEffort(effortID).Info("continuity checkpoint written",
			"generation", cp.Generation, "reason", reason)
		return cp, nil
	}
	return nil, errors.NewConflictError(c.store.EffortDir(effortID), 2)
}

// LatestCheckpoint returns the highest-generation checkpoint for an
// effort, or a not-found error when none has been written.
func (c *Coordinator) LatestCheckpoint(effortID string) (*Checkpoint, error) {
	dir := c.store.EffortDir(effortID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("checkpoint", effortID)
		}
		return nil, fmt.Errorf("failed to read effort directory: %w", err)
	}

	best := -1
	bestName := ""
	for _, entry := range entries {
		m := checkpointNameRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		gen, err := strconv.Atoi(m[1])
		if err != nil || gen <= best {
			continue
		}
		best = gen
		bestName = entry.Name()
	}
	if best < 0 {
		return nil, errors.NewNotFoundError("checkpoint", effortID)
	}

	path := filepath.Join(dir, bestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	return ParseCheckpoint(path, data)
}

// ListCheckpoints returns every checkpoint generation on disk, oldest
// first. Superseded checkpoints are history, never garbage.
func (c *Coordinator) ListCheckpoints(effortID string) ([]*Checkpoint, error) {
	dir := c.store.EffortDir(effortID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read effort directory: %w", err)
	}

	var checkpoints []*Checkpoint
	for _, entry := range entries {
		if !checkpointNameRe.MatchString(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read checkpoint: %w", err)
		}
		cp, err := ParseCheckpoint(path, data)
		if err != nil {
			c.logger.WithEffort(effortID).Warn("skipping malformed checkpoint",
				"file", entry.Name(), "error", err.Error())
			continue
		}
		checkpoints = append(checkpoints, cp)
	}
	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].Generation < checkpoints[j].Generation
	})
	return checkpoints, nil
}

// defaultNarrative summarizes current state for a checkpoint whose
// author supplied no narrative of their own.
func (c *Coordinator) defaultNarrative(s *Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Effort %s is %s: %d of %d sessions completed.\n",
		s.EffortID, s.Status, s.CompletedCount(), s.TotalCount())
	for _, phase := range s.Phases {
		for _, sess := range phase.Sessions {
			if sess.Status == effort.SessionCompleted {
				continue
			}
			fmt.Fprintf(&b, "- session %s: %s", sess.ID, sess.Status)
			if sess.IterationCount > 0 {
				fmt.Fprintf(&b, " (iteration %d)", sess.IterationCount)
			}
			if sess.Escalated {
				b.WriteString(" [escalated]")
			}
			b.WriteString("\n")
		}
	}
	if s.LatestSignal != nil {
		fmt.Fprintf(&b, "Last signal: %s for %s at %s.\n",
			s.LatestSignal.Type, s.LatestSignal.SessionID,
			s.LatestSignal.Timestamp.UTC().Format(time.RFC3339))
	}
	return b.String()
}
