package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"hirely/internal/pkg/errors"
	"hirely/internal/resumeparser"
	"hirely/internal/signing"
)

// SignatureMiddleware admits requests from trusted services only. The body is
// verified exactly as received and then handed on unchanged.
type SignatureMiddleware struct {
	auth         *signing.Authenticator
	maxBodyBytes int64
}

func NewSignatureMiddleware(auth *signing.Authenticator, maxBodyBytes int64) *SignatureMiddleware {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &SignatureMiddleware{auth: auth, maxBodyBytes: maxBodyBytes}
}

func (m *SignatureMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, m.maxBodyBytes+1))
		r.Body.Close()
		if err != nil {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Failed to read request body", nil)
			return
		}
		if int64(len(body)) > m.maxBodyBytes {
			errors.WriteError(w, http.StatusRequestEntityTooLarge, errors.ErrCodePayloadTooLarge, "Request body too large", nil)
			return
		}

		timestamp := r.Header.Get(resumeparser.HeaderTimestamp)
		signature := r.Header.Get(resumeparser.HeaderSignature)

		outcome := m.auth.Check(string(body), timestamp, signature, 0)
		if outcome != signing.OutcomeValid {
			log.Warn().
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Stringer("outcome", outcome).
				Msg("rejected signed request")
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid request signature", nil)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
		next(w, r)
	}
}
