package inspector

import (
	"encoding/json"

	"github.com/sentinelsec/inspector/detect"
)

// Attachment is a base64-encoded file riding along with a prompt.
type Attachment struct {
	Format string `json:"format"`
	Data   string `json:"data"`
	Size   int64  `json:"size"`
}

// Request is one intercepted agent submission.
type Request struct {
	Time       string      `json:"time"`
	PublicIP   string      `json:"public_ip"`
	PrivateIP  string      `json:"private_ip"`
	Host       string      `json:"host"`
	Hostname   string      `json:"hostname"`
	PCName     string      `json:"-"`
	Prompt     string      `json:"prompt"`
	Attachment *Attachment `json:"attachment,omitempty"`
	Interface  string      `json:"interface"`
}

// UnmarshalJSON accepts the pc name under any of the spellings agents have
// shipped with: PCName, pcName, pc_name. The first present wins, in that
// order. A missing interface defaults to "llm".
func (r *Request) UnmarshalJSON(data []byte) error {
	type plain Request
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var names struct {
		A *string `json:"PCName"`
		B *string `json:"pcName"`
		C *string `json:"pc_name"`
	}
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}

	*r = Request(p)
	switch {
	case names.A != nil:
		r.PCName = *names.A
	case names.B != nil:
		r.PCName = *names.B
	case names.C != nil:
		r.PCName = *names.C
	}
	if r.Interface == "" {
		r.Interface = "llm"
	}
	return nil
}

// Validate checks the fields every inspection needs.
func (r *Request) Validate() error {
	if r.Time == "" {
		return ErrMissingTime
	}
	if r.Prompt == "" {
		return ErrMissingPrompt
	}
	return nil
}

// EndpointName identifies the sending machine: hostname when present,
// otherwise the pc name.
func (r *Request) EndpointName() string {
	if r.Hostname != "" {
		return r.Hostname
	}
	return r.PCName
}

// Result is what the agent receives back for one request.
type Result struct {
	RequestID      string        `json:"request_id"`
	Host           string        `json:"host"`
	HasSensitive   bool          `json:"has_sensitive"`
	Entities       []detect.Span `json:"entities"`
	ModifiedPrompt string        `json:"modified_prompt"`
	Allow          bool          `json:"allow"`
	FileBlocked    bool          `json:"file_blocked"`
	FileChange     bool          `json:"file_change"`
	Action         string        `json:"action"`
	Alert          string        `json:"alert,omitempty"`
	ProcessingMS   int64         `json:"processing_ms"`
	Attachment     *Attachment   `json:"attachment,omitempty"`
}
