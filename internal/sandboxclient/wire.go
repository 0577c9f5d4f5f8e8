package sandboxclient

import (
	"time"

	"judgecore/internal/execresult"
)

// wireFile is the JSON shape of a single file descriptor on the sandbox's
// REST API. Content is a plain []byte field: encoding/json base64-encodes
// []byte automatically, which is exactly how go-judge's own wire format
// carries binary file content.
type wireFile struct {
	Name    string `json:"name,omitempty"`
	Max     int64  `json:"max,omitempty"`
	Content []byte `json:"content,omitempty"`
	FileID  string `json:"fileId,omitempty"`
}

func (f File) toWire() wireFile {
	switch f.kind {
	case fileKindMemory:
		return wireFile{Content: f.content}
	case fileKindCached:
		return wireFile{FileID: f.fileID}
	case fileKindPipe:
		return wireFile{Name: f.name, Max: f.max}
	default:
		return wireFile{}
	}
}

// wireCmd is the JSON shape of one command in a /run request's "cmd"
// array, matching go-judge's REST protocol.
type wireCmd struct {
	Args              []string            `json:"args"`
	Env               []string            `json:"env,omitempty"`
	Files             []wireFile          `json:"files"`
	TTY               bool                `json:"tty,omitempty"`
	CPUTimeLimit      int64               `json:"cpuLimit"`
	ClockTimeLimit    int64               `json:"clockLimit"`
	MemoryLimit       uint64              `json:"memoryLimit"`
	StackLimit        uint64              `json:"stackLimit"`
	ProcLimit         uint64              `json:"procLimit"`
	StrictMemoryLimit bool                `json:"strictMemoryLimit,omitempty"`
	CopyIn            map[string]wireFile `json:"copyIn,omitempty"`
	CopyOut           []string            `json:"copyOut,omitempty"`
	CopyOutCached     []string            `json:"copyOutCached,omitempty"`
}

// toWire converts a Cmd to its wire form, deriving clock_time_limit as
// 2x the CPU time limit and stack_limit as equal to the memory limit, per
// the original's `From<Cmd> for CmdType`.
func (c Cmd) toWire() wireCmd {
	files := make([]wireFile, len(c.Files))
	for i, f := range c.Files {
		files[i] = f.toWire()
	}
	copyIn := make(map[string]wireFile, len(c.CopyIn))
	for name, f := range c.CopyIn {
		copyIn[name] = f.toWire()
	}
	cpu := c.TimeLimit.Nanoseconds()
	return wireCmd{
		Args:              c.Args,
		Env:               c.Env,
		Files:             files,
		TTY:               false,
		CPUTimeLimit:      cpu,
		ClockTimeLimit:    cpu * 2,
		MemoryLimit:       c.MemoryLimit,
		StackLimit:        c.MemoryLimit,
		ProcLimit:         c.ProcLimit,
		StrictMemoryLimit: c.StrictMemoryLimit,
		CopyIn:            copyIn,
		CopyOut:           c.CopyOut,
		CopyOutCached:     c.CopyOutCached,
	}
}

// wireRunRequest is the body of a POST /run call.
type wireRunRequest struct {
	Cmd []wireCmd `json:"cmd"`
}

// wireResult is the JSON shape of one command's outcome.
type wireResult struct {
	Status     string            `json:"status"`
	Error      string            `json:"error,omitempty"`
	ExitStatus int32             `json:"exitStatus"`
	Time       int64             `json:"time"`
	Memory     uint64            `json:"memory"`
	Files      map[string][]byte `json:"files,omitempty"`
	FileIDs    map[string]string `json:"fileIds,omitempty"`
}

// sandboxStatusFromWire maps go-judge's string status names to
// execresult.SandboxStatus, the boundary where the wire protocol meets the
// domain model.
var sandboxStatusFromWire = map[string]execresult.SandboxStatus{
	"Accepted":              execresult.SandboxAccepted,
	"Memory Limit Exceeded": execresult.SandboxMemoryLimitExceeded,
	"Time Limit Exceeded":   execresult.SandboxTimeLimitExceeded,
	"Output Limit Exceeded": execresult.SandboxOutputLimitExceeded,
	"File Error":            execresult.SandboxFileError,
	"Nonzero Exit Status":   execresult.SandboxNonZeroExitStatus,
	"Signalled":             execresult.SandboxSignalled,
	"Dangerous Syscall":     execresult.SandboxDangerousSyscall,
	"Internal Error":        execresult.SandboxInternalError,
}

func (r wireResult) toResult() Result {
	status, ok := sandboxStatusFromWire[r.Status]
	if !ok {
		status = execresult.SandboxInvalid
	}
	return Result{
		Status:     status,
		Time:       time.Duration(r.Time),
		Memory:     r.Memory,
		ExitStatus: r.ExitStatus,
		Error:      r.Error,
		Files:      r.Files,
		FileIDs:    r.FileIDs,
	}
}
