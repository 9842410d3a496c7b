// Package tasks decodes Windows Task Scheduler artifacts: legacy binary
// ".job" files and the modern Task Scheduler XML task definitions.
package tasks

import (
	"errors"
	"fmt"

	"github.com/forensic-go/windecode/internal/buf"
	"github.com/forensic-go/windecode/pkg/record"
)

var ErrBadJob = errors.New("tasks: corrupt job file")

const jobFixedHeaderSize = 68

// Priority mirrors the Windows process priority class a .job's target ran
// under.
type Priority uint32

const (
	PriorityNormal    Priority = 0x20
	PriorityIdle      Priority = 0x40
	PriorityHigh      Priority = 0x80
	PriorityRealtime  Priority = 0x100
	PriorityBelowNorm Priority = 0x4000
	PriorityAboveNorm Priority = 0x8000
)

// Status is the .job "Status" field recorded at the last run.
type Status uint32

const (
	StatusReady        Status = 0x00041300
	StatusRunning      Status = 0x00041301
	StatusNotScheduled Status = 0x00041305
)

// Trigger is one decoded TASK_TRIGGER record from the trigger array.
type Trigger struct {
	StartYear, StartMonth, StartDay uint16
	EndYear, EndMonth, EndDay       uint16
	StartHour, StartMinute          uint16
	MinutesDuration                 uint32
	MinutesInterval                 uint32
	Type                            uint32
	Flags                           uint32
}

const triggerRecordSize = 48

// Job is a decoded legacy .job file, following the fixed 68-byte header
// documented for the format, followed by its variable-length section
// (running-instance count, then length-prefixed UTF-16 strings, then the
// trigger array).
type Job struct {
	ProductVersion       uint16
	FileVersion          uint16
	UUID                 [16]byte
	Priority             Priority
	MaxRunTime           uint32
	ExitCode             uint32
	Status               Status
	Flags                uint32
	LastRunTime          string
	RunningInstanceCount uint16
	Application          string
	Parameters           string
	WorkingDir           string
	Author               string
	Comment              string
	Triggers             []Trigger
}

// ParseJob decodes a legacy binary Task Scheduler ".job" file.
func ParseJob(b []byte) (Job, error) {
	if len(b) < jobFixedHeaderSize {
		return Job{}, fmt.Errorf("%w: truncated fixed header", ErrBadJob)
	}
	j := Job{
		ProductVersion: buf.U16LE(b[0:]),
		FileVersion:    buf.U16LE(b[2:]),
	}
	copy(j.UUID[:], b[4:20])
	// Bytes [20:32] carry the app-name-size-offset, trigger offset, error
	// retry count/interval, and idle deadline/wait fields; this reader
	// surfaces the fixed scheduling metadata used downstream and skips
	// those positional offsets since the variable section below is
	// walked sequentially rather than jumped to.
	j.Priority = Priority(buf.U32LE(b[32:]))
	j.MaxRunTime = buf.U32LE(b[36:])
	j.ExitCode = buf.U32LE(b[40:])
	j.Status = Status(buf.U32LE(b[44:]))
	j.Flags = buf.U32LE(b[48:])
	j.LastRunTime = record.FiletimeToISO8601(buf.U64LE(b[52:]))

	off := jobFixedHeaderSize
	if off+2 > len(b) {
		return Job{}, fmt.Errorf("%w: truncated running instance count", ErrBadJob)
	}
	j.RunningInstanceCount = buf.U16LE(b[off:])
	off += 2

	var err error
	if j.Application, off, err = readJobString(b, off); err != nil {
		return Job{}, err
	}
	if j.Parameters, off, err = readJobString(b, off); err != nil {
		return Job{}, err
	}
	if j.WorkingDir, off, err = readJobString(b, off); err != nil {
		return Job{}, err
	}
	if j.Author, off, err = readJobString(b, off); err != nil {
		return Job{}, err
	}
	if j.Comment, off, err = readJobString(b, off); err != nil {
		return Job{}, err
	}

	// User data and reserved data are each a 2-byte length followed by
	// opaque bytes this reader doesn't interpret.
	if off, err = skipJobBlob(b, off); err != nil {
		return Job{}, err
	}
	if off, err = skipJobBlob(b, off); err != nil {
		return Job{}, err
	}

	if off+2 > len(b) {
		return Job{}, fmt.Errorf("%w: truncated trigger count", ErrBadJob)
	}
	triggerCount := int(buf.U16LE(b[off:]))
	off += 2

	for i := 0; i < triggerCount; i++ {
		if off+2 > len(b) {
			break
		}
		size := int(buf.U16LE(b[off:]))
		if size < triggerRecordSize || off+size > len(b) {
			return Job{}, fmt.Errorf("%w: truncated trigger record", ErrBadJob)
		}
		rec := b[off:]
		j.Triggers = append(j.Triggers, Trigger{
			StartYear:       buf.U16LE(rec[2:]),
			StartMonth:      buf.U16LE(rec[4:]),
			StartDay:        buf.U16LE(rec[6:]),
			EndYear:         buf.U16LE(rec[8:]),
			EndMonth:        buf.U16LE(rec[10:]),
			EndDay:          buf.U16LE(rec[12:]),
			StartHour:       buf.U16LE(rec[14:]),
			StartMinute:     buf.U16LE(rec[16:]),
			MinutesDuration: buf.U32LE(rec[18:]),
			MinutesInterval: buf.U32LE(rec[22:]),
			Flags:           buf.U32LE(rec[26:]),
			Type:            buf.U32LE(rec[30:]),
		})
		off += size
	}

	return j, nil
}

// readJobString reads a 2-byte character count followed by that many
// UTF-16LE characters, returning the decoded string and the offset past it.
func readJobString(b []byte, off int) (string, int, error) {
	if off+2 > len(b) {
		return "", off, fmt.Errorf("%w: truncated string length", ErrBadJob)
	}
	chars := int(buf.U16LE(b[off:]))
	off += 2
	n := chars * 2
	if off+n > len(b) {
		return "", off, fmt.Errorf("%w: truncated string data", ErrBadJob)
	}
	s := record.UTF16LEToString(b[off : off+n])
	return s, off + n, nil
}

func skipJobBlob(b []byte, off int) (int, error) {
	if off+2 > len(b) {
		return off, fmt.Errorf("%w: truncated blob length", ErrBadJob)
	}
	n := int(buf.U16LE(b[off:]))
	off += 2
	if off+n > len(b) {
		return off, fmt.Errorf("%w: truncated blob data", ErrBadJob)
	}
	return off + n, nil
}
