package gateway

import (
	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"
)

// Frame types on the wire
const (
	frameRequest  = "req"
	frameResponse = "res"
	frameEvent    = "event"
)

type requestFrame struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type response struct {
	ok      bool
	payload []byte
	message string
	err     error
}

// connectParams authenticate the connection; the gateway answers with a res frame
type connectParams struct {
	Token  string     `json:"token,omitempty"`
	Client clientInfo `json:"client"`
}

type clientInfo struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

func encodeRequest(id, method string, params any) ([]byte, error) {
	return sonic.Marshal(requestFrame{Type: frameRequest, ID: id, Method: method, Params: params})
}

// inbound is a decoded res or event frame
type inbound struct {
	kind    string
	id      string
	event   string
	resp    response
	payload []byte
}

func parseFrame(data []byte) (inbound, bool) {
	if !gjson.ValidBytes(data) {
		return inbound{}, false
	}
	frame := gjson.ParseBytes(data)
	in := inbound{kind: frame.Get("type").String()}

	switch in.kind {
	case frameResponse:
		in.id = frame.Get("id").String()
		in.resp = response{
			ok:      frame.Get("ok").Bool(),
			payload: rawOrNil(frame.Get("payload")),
			message: frame.Get("error.message").String(),
		}
		if !in.resp.ok && in.resp.message == "" {
			in.resp.message = frame.Get("error").String()
		}
		return in, in.id != ""
	case frameEvent:
		in.event = frame.Get("event").String()
		in.payload = rawOrNil(frame.Get("payload"))
		if in.payload == nil {
			in.payload = []byte("{}")
		}
		return in, in.event != ""
	}
	return in, false
}

func rawOrNil(r gjson.Result) []byte {
	if !r.Exists() {
		return nil
	}
	return []byte(r.Raw)
}
