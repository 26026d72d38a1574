package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mheikkil/NuclearMembraneAnalyzer/src/logx"
)

// SchemaVersion indicates the compatibility / schema version for the JSONL
// meta+cell structure.
//
// History:
//
//	v1: initial envelope (meta + cell record)
const SchemaVersion = 1

// Meta holds session and environment metadata repeated on every autosaved
// line, so a single JSONL file can carry several sessions and still be
// picked apart later.
type Meta struct {
	TimestampUTC     string  `json:"timestamp_utc"`
	SessionID        string  `json:"session_id"`
	ImageName        string  `json:"image_name,omitempty"`
	ThresholdPercent float64 `json:"threshold_percent"`
	Hostname         string  `json:"hostname,omitempty"`
	SchemaVersion    int     `json:"schema_version"`
}

// Envelope is the strongly-typed root object written as one JSONL line.
type Envelope struct {
	Meta *Meta       `json:"meta"`
	Cell *CellRecord `json:"cell"`
}

var (
	hostnameOnce   sync.Once
	cachedHostname string
)

func hostname() string {
	hostnameOnce.Do(func() {
		if h, err := os.Hostname(); err == nil {
			cachedHostname = h
		}
	})
	return cachedHostname
}

func (s *Session) envelope(rec *CellRecord) *Envelope {
	return &Envelope{
		Meta: &Meta{
			TimestampUTC:     time.Now().UTC().Format(time.RFC3339Nano),
			SessionID:        s.ID,
			ImageName:        s.ImageName,
			ThresholdPercent: s.ThresholdPercent,
			Hostname:         hostname(),
			SchemaVersion:    SchemaVersion,
		},
		Cell: rec,
	}
}

// Autosave is an async JSONL writer (single goroutine) with a buffered
// channel. Every completed cell is appended as one line, so a crash loses at
// most the cell being traced.
type Autosave struct {
	ch chan *Envelope
	wg sync.WaitGroup
}

// NewAutosave starts the writer goroutine appending to path.
func NewAutosave(path string) *Autosave {
	a := &Autosave{ch: make(chan *Envelope, 128)}
	fmt.Printf("[autosave] session file (append): %s\n", path)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			logx.Errorf("open session file: %v", err)
			for range a.ch {
			}
			return
		}
		defer f.Close()
		enc := json.NewEncoder(f)
		for env := range a.ch {
			if env == nil {
				continue
			}
			if err := enc.Encode(env); err != nil {
				logx.Errorf("encode cell record: %v", err)
			}
		}
	}()
	return a
}

// Record queues one envelope for writing.
func (a *Autosave) Record(env *Envelope) {
	a.ch <- env
}

// Close flushes and stops the writer.
func (a *Autosave) Close() {
	close(a.ch)
	a.wg.Wait()
}

// EnableAutosave attaches an async writer to the session; every AddCell from
// now on appends one JSONL line to path. Call Close when the session ends.
func (s *Session) EnableAutosave(path string) {
	if s.autosave != nil {
		s.autosave.Close()
	}
	s.autosave = NewAutosave(path)
}

// LoadEnvelopes reads an autosave JSONL file back. Lines that do not parse
// are skipped with a warning (a crash can truncate the final line), as are
// lines written by a newer schema than this binary understands.
func LoadEnvelopes(path string) ([]*Envelope, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer f.Close()

	var envs []*Envelope
	sc := bufio.NewScanner(f)
	// Cell records carry full profiles, so lines can run long.
	sc.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var env Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			logx.Warnf("skip line %d: %v", lineNo, err)
			continue
		}
		if env.Meta == nil || env.Cell == nil {
			logx.Warnf("skip line %d: missing meta or cell", lineNo)
			continue
		}
		if env.Cell.Nuclear == nil || env.Cell.Cytoplasm == nil {
			logx.Warnf("skip line %d: incomplete cell record", lineNo)
			continue
		}
		if env.Meta.SchemaVersion > SchemaVersion {
			logx.Warnf("skip line %d: schema v%d newer than v%d", lineNo, env.Meta.SchemaVersion, SchemaVersion)
			continue
		}
		envs = append(envs, &env)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	return envs, nil
}

// Rebuild reconstructs one session from loaded envelopes. With an empty
// sessionID the most recently written session in the file is picked. Cell
// numbers are kept as recorded.
func Rebuild(envs []*Envelope, sessionID string) (*Session, error) {
	if sessionID == "" {
		for i := len(envs) - 1; i >= 0; i-- {
			if envs[i].Meta.SessionID != "" {
				sessionID = envs[i].Meta.SessionID
				break
			}
		}
	}
	if sessionID == "" {
		return nil, fmt.Errorf("no session found in %d envelopes", len(envs))
	}
	var s *Session
	for _, env := range envs {
		if env.Meta.SessionID != sessionID {
			continue
		}
		if s == nil {
			s = &Session{
				ID:               sessionID,
				ImageName:        env.Meta.ImageName,
				ThresholdPercent: env.Meta.ThresholdPercent,
			}
		}
		s.Records = append(s.Records, env.Cell)
	}
	if s == nil {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	return s, nil
}
