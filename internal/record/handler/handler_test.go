package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veil/internal/disclosure"
	"veil/internal/platform/middleware"
	id "veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
	"veil/pkg/testutil"
)

// stubService records the last call and returns canned results.
type stubService struct {
	lastValues map[string][]byte
	replaceErr error
	deleteErr  error
}

func (s *stubService) Replace(_ context.Context, subject id.SubjectID, values map[string][]byte) (*disclosure.Record, error) {
	if s.replaceErr != nil {
		return nil, s.replaceErr
	}
	s.lastValues = values
	return &disclosure.Record{
		Subject:    subject,
		Version:    7,
		Values:     values,
		UploadedAt: time.Now().UTC(),
	}, nil
}

func (s *stubService) Delete(context.Context, id.SubjectID) error {
	return s.deleteErr
}

type allowValidator struct{}

func (allowValidator) ValidateToken(string) (*middleware.JWTClaims, error) {
	return &middleware.JWTClaims{PartyID: "party-1"}, nil
}

func newTestRouter(t *testing.T, svc Service) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	New(svc, slog.New(slog.DiscardHandler), allowValidator{}).Register(r)
	return r
}

func TestHandleReplace(t *testing.T) {
	subject := id.SubjectID(uuid.New())
	path := "/subjects/" + subject.String() + "/record"

	t.Run("stores the snapshot and never echoes values", func(t *testing.T) {
		svc := &stubService{}
		router := newTestRouter(t, svc)

		req := testutil.NewJSONRequest(t, http.MethodPut, path, ReplaceRequest{
			Values: map[string][]byte{"name": []byte("Riley"), "age": []byte("30")},
		})
		req.Header.Set("Authorization", "Bearer token")
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[ReplaceResponse](t, rr)
		assert.Equal(t, subject.String(), resp.SubjectID)
		assert.Equal(t, int64(7), resp.Version)
		assert.Equal(t, 2, resp.FieldCount)

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(testutil.ReadBody(t, rr), &raw))
		assert.NotContains(t, raw, "values")

		assert.Equal(t, []byte("Riley"), svc.lastValues["name"])
	})

	t.Run("service errors map to their status", func(t *testing.T) {
		svc := &stubService{replaceErr: dErrors.New(dErrors.CodeUnknownField, "field not in schema")}
		router := newTestRouter(t, svc)

		req := testutil.NewJSONRequest(t, http.MethodPut, path, ReplaceRequest{
			Values: map[string][]byte{"ssn": []byte("123")},
		})
		req.Header.Set("Authorization", "Bearer token")
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		testutil.AssertErrorCode(t, rr, string(dErrors.CodeUnknownField))
	})

	t.Run("malformed subject id returns invalid_input", func(t *testing.T) {
		router := newTestRouter(t, &stubService{})

		req := testutil.NewJSONRequest(t, http.MethodPut, "/subjects/nope/record", ReplaceRequest{})
		req.Header.Set("Authorization", "Bearer token")
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		testutil.AssertErrorCode(t, rr, string(dErrors.CodeInvalidInput))
	})

	t.Run("invalid body returns bad_request", func(t *testing.T) {
		router := newTestRouter(t, &stubService{})

		req := testutil.NewRequest(t, http.MethodPut, path)
		req.Header.Set("Authorization", "Bearer token")
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		testutil.AssertErrorCode(t, rr, string(dErrors.CodeBadRequest))
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		router := newTestRouter(t, &stubService{})

		req := testutil.NewJSONRequest(t, http.MethodPut, path, ReplaceRequest{})
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}

func TestHandleDelete(t *testing.T) {
	subject := id.SubjectID(uuid.New())
	path := "/subjects/" + subject.String() + "/record"

	t.Run("erasure returns no content", func(t *testing.T) {
		router := newTestRouter(t, &stubService{})

		req := testutil.NewRequest(t, http.MethodDelete, path)
		req.Header.Set("Authorization", "Bearer token")
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})

	t.Run("unknown subject returns not_found", func(t *testing.T) {
		svc := &stubService{deleteErr: dErrors.New(dErrors.CodeNotFound, "no record for subject")}
		router := newTestRouter(t, svc)

		req := testutil.NewRequest(t, http.MethodDelete, path)
		req.Header.Set("Authorization", "Bearer token")
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusNotFound)
		testutil.AssertErrorCode(t, rr, string(dErrors.CodeNotFound))
	})
}
