package cerrs

import "encoding/json"

// Encoded is the structured, tool-friendly rendering of one Diag.
type Encoded struct {
	Schema  string                 `json:"schema"`
	Phase   string                 `json:"phase"`
	Code    string                 `json:"code"`
	Kind    string                 `json:"kind"`
	Message string                 `json:"message"`
	Pos     Pos                    `json:"pos"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
	Cause   string                 `json:"cause,omitempty"`
}

func phaseForCode(code string) string {
	switch {
	case len(code) >= 2 && code[:2] == "RD":
		return "reader"
	case len(code) >= 2 && code[:2] == "AN":
		return "analyzer"
	case len(code) >= 2 && code[:2] == "EM":
		return "emitter"
	case len(code) >= 2 && code[:2] == "PR":
		return "protocol"
	case len(code) >= 2 && code[:2] == "LD":
		return "hostvm"
	default:
		return "unknown"
	}
}

// Encode renders one Diag as its structured JSON-ready form.
func Encode(d *Diag) Encoded {
	e := Encoded{
		Schema:  "lispc.error.v1",
		Phase:   phaseForCode(d.Code),
		Code:    d.Code,
		Kind:    string(d.Kind),
		Message: d.Message,
		Pos:     d.Pos,
		Fields:  d.Fields,
	}
	if d.Cause != nil {
		e.Cause = d.Cause.Error()
	}
	return e
}

// EncodeReport renders an entire Report as JSON.
func EncodeReport(r *Report) ([]byte, error) {
	out := struct {
		Errors   []Encoded `json:"errors"`
		Warnings []Encoded `json:"warnings"`
	}{}
	for _, d := range r.Errors {
		out.Errors = append(out.Errors, Encode(d))
	}
	for _, d := range r.Warnings {
		out.Warnings = append(out.Warnings, Encode(d))
	}
	return json.MarshalIndent(out, "", "  ")
}
