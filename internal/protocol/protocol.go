// Package protocol implements the text-prefixed command protocol spoken
// with the browser client. Every websocket message carries exactly one
// envelope: a fixed prefix identifying the kind, followed by the body.
// Decoding happens once at the boundary; handlers receive a typed Message
// and never see raw prefixes.
package protocol

import (
	"strings"

	"github.com/bytedance/sonic"
)

// Kind identifies the envelope kind of an inbound message.
type Kind int

const (
	// KindUnknown marks an unrecognized prefix. Dropped silently.
	KindUnknown Kind = iota
	KindBrowse
	KindNewCanvas
	KindDblClick
	KindRunMacro
	KindSaveFile
	KindSelectCanvas
	KindCloseCanvas
	KindGetWorkDir
	KindChangeDir
	KindQuit
)

// Wire prefixes. Exact, case-sensitive byte sequences.
const (
	PrefixBrowse       = "BRREQ:"
	PrefixNewCanvas    = "NEWCANVAS" // exact match, no body
	PrefixDblClick     = "DBLCLK:"
	PrefixRunMacro     = "RUNMACRO:"
	PrefixSaveFile     = "SAVEFILE:"
	PrefixSelectCanvas = "SELECT_CANVAS:"
	PrefixCloseCanvas  = "CLOSE_CANVAS:"
	PrefixGetWorkDir   = "GETWORKDIR:"
	PrefixChangeDir    = "CHDIR:"
	PrefixQuit         = "QUIT_ROOT" // exact match, no body

	PrefixBrowseReply = "BREPL:"
	PrefixCanvas      = "CANVS:"
	PrefixFileRead    = "FREAD:"
	PrefixSelectReply = "SLCTCANV:"
	PrefixInit        = "INMSG:"
)

// Message is a decoded inbound envelope.
type Message struct {
	Kind Kind
	Body string
}

// prefixTable maps body-carrying prefixes to kinds. Longer prefixes are
// listed before any prefix they contain so the most specific one wins.
var prefixTable = []struct {
	prefix string
	kind   Kind
}{
	{PrefixSelectCanvas, KindSelectCanvas},
	{PrefixCloseCanvas, KindCloseCanvas},
	{PrefixGetWorkDir, KindGetWorkDir},
	{PrefixRunMacro, KindRunMacro},
	{PrefixSaveFile, KindSaveFile},
	{PrefixDblClick, KindDblClick},
	{PrefixBrowse, KindBrowse},
	{PrefixChangeDir, KindChangeDir},
}

// Decode classifies a raw inbound message. Unrecognized input yields
// KindUnknown; callers drop those without a reply.
func Decode(raw string) Message {
	switch raw {
	case PrefixQuit:
		return Message{Kind: KindQuit}
	case PrefixNewCanvas:
		return Message{Kind: KindNewCanvas}
	}
	for _, e := range prefixTable {
		if strings.HasPrefix(raw, e.prefix) {
			return Message{Kind: e.kind, Body: raw[len(e.prefix):]}
		}
	}
	return Message{Kind: KindUnknown, Body: raw}
}

// BrowseRequest asks for one pagination window of children under a path.
type BrowseRequest struct {
	Path   string `json:"path"`
	First  int    `json:"first"`
	Number int    `json:"number"`
}

// DefaultBrowseRequest is what an empty BRREQ: body stands for.
func DefaultBrowseRequest() BrowseRequest {
	return BrowseRequest{Path: "/", First: 0, Number: 100}
}

// DecodeBrowseRequest parses a non-empty browse request body.
func DecodeBrowseRequest(body string) (*BrowseRequest, error) {
	var req BrowseRequest
	if err := sonic.UnmarshalString(body, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// Node describes one child in a browse reply.
type Node struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Kind string `json:"kind"`
	Size int64  `json:"size,omitempty"`
}

// Node kind values on the wire.
const (
	NodeContainer = "container"
	NodeLeaf      = "leaf"
	NodeDrawable  = "drawable"
)

// BrowseReply is the page of children sent back for a browse request.
type BrowseReply struct {
	Path  string `json:"path"`
	First int    `json:"first"`
	Total int    `json:"total"`
	Nodes []Node `json:"nodes"`
}

// EncodeBrowseReply renders a BREPL: message.
func EncodeBrowseReply(reply *BrowseReply) (string, error) {
	data, err := sonic.MarshalString(reply)
	if err != nil {
		return "", err
	}
	return PrefixBrowseReply + data, nil
}

// EncodeCanvas renders a CANVS: message announcing a newly created canvas
// as a (backend, url, name) triple.
func EncodeCanvas(backend, url, name string) (string, error) {
	data, err := sonic.MarshalString([3]string{backend, url, name})
	if err != nil {
		return "", err
	}
	return PrefixCanvas + data, nil
}

// EncodeInit renders the INMSG: message sent on connect: an ordered list
// of (backend, url, name) triples, one per open canvas.
func EncodeInit(triples [][3]string) (string, error) {
	data, err := sonic.MarshalString(triples)
	if err != nil {
		return "", err
	}
	return PrefixInit + data, nil
}

// EncodeWorkDir renders the fixed-shape working directory payload. The
// shape (including the space after the prefix) is part of the wire
// contract with the client page.
func EncodeWorkDir(path string) string {
	quoted, err := sonic.MarshalString(path)
	if err != nil {
		quoted = `""`
	}
	return PrefixGetWorkDir + ` { "path": ` + quoted + `}`
}

// EncodeFileRead renders a FREAD: message carrying inline text content.
func EncodeFileRead(text string) string {
	return PrefixFileRead + text
}

// EncodeSelectCanvas renders a SLCTCANV: message naming the canvas a
// double-click was drawn into.
func EncodeSelectCanvas(name string) string {
	return PrefixSelectReply + name
}

// DecodeDblClick parses a double-click body: either a plain path or a
// JSON array [path, options]. ok is false for malformed arrays, which
// callers ignore without a reply.
func DecodeDblClick(body string) (path, options string, ok bool) {
	if !strings.HasPrefix(body, "[") {
		return body, "", body != ""
	}
	var arr []string
	if err := sonic.UnmarshalString(body, &arr); err != nil || len(arr) < 1 {
		return "", "", false
	}
	path = arr[0]
	if len(arr) > 1 {
		options = arr[1]
	}
	return path, options, true
}

// SplitCompound splits a "<path>:<rest>" body on the first colon. The
// rest may itself contain colons.
func SplitCompound(body string) (path, rest string) {
	path, rest, _ = strings.Cut(body, ":")
	return path, rest
}
