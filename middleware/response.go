/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vizionik25/CodeRevAI-sub001/log"
)

var nowFunc = time.Now

// ErrorResponseData is the body of all error responses produced by this package.
type ErrorResponseData struct {
	Error ErrorData `json:"error"`
}

// ErrorData holds error domain, code and human-readable message.
type ErrorData struct {
	Domain  string `json:"domain"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondError(rw http.ResponseWriter, statusCode int, domain, code, message string, logger log.FieldLogger) {
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(statusCode)
	respData := ErrorResponseData{Error: ErrorData{Domain: domain, Code: code, Message: message}}
	if err := json.NewEncoder(rw).Encode(respData); err != nil {
		logger.Error("encoding error response", log.Error(err))
	}
}
