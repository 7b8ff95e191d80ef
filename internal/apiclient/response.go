package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response é o resultado bruto de uma chamada bem-sucedida (2xx).
// Quem chama decide como interpretar o corpo.
type Response struct {
	Status int
	Header http.Header
	Body   json.RawMessage
}

// Decode interpreta o corpo inteiro em v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("corpo vazio")
	}
	return json.Unmarshal(r.Body, v)
}

// Message devolve o campo "message" do corpo, se existir.
func (r *Response) Message() string {
	return messageFrom(r.Body)
}

// Field procura name no corpo, primeiro no nível de cima e depois dentro de
// "data" ({requests:[...]} ou {data:{requests:[...]}}). Se "data" existir mas
// não contiver name, o próprio "data" é decodificado em v.
// found=false significa que nada compatível foi encontrado.
func (r *Response) Field(name string, v any) (found bool, err error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(r.Body, &top); err != nil {
		return false, err
	}
	if raw, ok := top[name]; ok && !isNull(raw) {
		return true, json.Unmarshal(raw, v)
	}
	data, ok := top["data"]
	if !ok || isNull(data) {
		return false, nil
	}
	var inner map[string]json.RawMessage
	if json.Unmarshal(data, &inner) == nil {
		if raw, ok := inner[name]; ok && !isNull(raw) {
			return true, json.Unmarshal(raw, v)
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, nil
	}
	return true, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// messageFrom extrai {message} ou {error:"..."} / {error:{message}} de um corpo JSON.
func messageFrom(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	if len(payload.Error) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(payload.Error, &s) == nil {
		return s
	}
	var nested struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(payload.Error, &nested) == nil {
		return nested.Message
	}
	return ""
}
