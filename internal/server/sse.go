// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/tablerank/pkg/types"
)

// sseSink writes pipeline events as Server-Sent Events frames. Writes stop
// once the request context is done; the pipeline keeps running but its
// remaining events are discarded.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
	ctx     context.Context
}

// Emit writes one "data: {json}" frame and flushes it.
func (s *sseSink) Emit(event types.Event) {
	if s.ctx.Err() != nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.flusher.Flush()
}

// done writes the stream-end sentinel.
func (s *sseSink) done() {
	if s.ctx.Err() != nil {
		return
	}
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}
