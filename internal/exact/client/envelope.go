package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

var errMissingEnvelope = errors.New("response has no d envelope")

type envelope struct {
	D json.RawMessage `json:"d"`
}

type collection struct {
	Results json.RawMessage `json:"results"`
}

func decodeResults(raw []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	if len(env.D) == 0 {
		return errMissingEnvelope
	}
	trimmed := bytes.TrimSpace(env.D)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}
	var coll collection
	if err := json.Unmarshal(trimmed, &coll); err != nil {
		return err
	}
	if len(coll.Results) == 0 {
		return errMissingEnvelope
	}
	return json.Unmarshal(coll.Results, out)
}

func decodeRecord(raw []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	if len(env.D) == 0 {
		return errMissingEnvelope
	}
	return json.Unmarshal(env.D, out)
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message struct {
			Value string `json:"value"`
		} `json:"message"`
	} `json:"error"`
}

// errorMessage extracts the ERP error text, falling back to the raw body.
func errorMessage(status int, raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		if msg := strings.TrimSpace(body.Error.Message.Value); msg != "" {
			return msg
		}
		if code := strings.TrimSpace(body.Error.Code); code != "" {
			return code
		}
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	if text == "" {
		return http.StatusText(status)
	}
	return text
}
