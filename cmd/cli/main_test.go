package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read stdout: %v", err)
	}
	return buf.String()
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	out := captureOutput(t, func() {
		printJSON(struct {
			A int `json:"a"`
		}{A: 1})
	})

	expected := "{\n  \"a\": 1\n}\n"
	if out != expected {
		t.Fatalf("unexpected json output:\n%s", out)
	}
}

func TestHashPasswordCmd(t *testing.T) {
	orig := bcryptGenerate
	bcryptGenerate = func(p []byte, cost int) ([]byte, error) {
		return []byte("hashed-value"), nil
	}
	defer func() { bcryptGenerate = orig }()

	cmd := hashPasswordCmd()
	cmd.SetArgs([]string{"secret"})

	out := captureOutput(t, func() {
		if err := cmd.Execute(); err != nil {
			t.Fatalf("command failed: %v", err)
		}
	})

	if strings.TrimSpace(out) != "hashed-value" {
		t.Fatalf("expected hashed-value, got %q", out)
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var err error
	out := captureOutput(t, func() {
		cmd := newRootCmd()
		cmd.SetArgs(args)
		err = cmd.Execute()
	})
	return out, err
}

func TestAdminApproveCmd(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"id":"txn-1","status":"declined"}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, "--url", srv.URL, "--token", "tok", "admin", "decline", "txn-1")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	if gotPath != "PATCH /api/v1/admin/transactions/txn-1/approve" {
		t.Fatalf("unexpected request %s", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("expected bearer token, got %q", gotAuth)
	}
	if gotBody["approve"] != false {
		t.Fatalf("expected approve=false, got %v", gotBody)
	}
	if !strings.Contains(out, "txn-1 is now declined") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestTransactionsCreateCmd(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"txn-2","amount":"40000","direction":"credit","status":"approved"}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, "--url", srv.URL, "transactions", "create", "--amount", "40000", "--direction", "credit", "--category", "salary")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	if gotBody["amount"] != "40000" || gotBody["direction"] != "credit" || gotBody["category"] != "salary" {
		t.Fatalf("unexpected request body %v", gotBody)
	}
	if !strings.Contains(out, `"status": "approved"`) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestTransactionsCreateCmdRejectsBadAmount(t *testing.T) {
	_, err := runCLI(t, "--url", "http://127.0.0.1:0", "transactions", "create", "--amount", "ten", "--direction", "credit")
	if err == nil || !strings.Contains(err.Error(), "invalid amount") {
		t.Fatalf("expected invalid amount error, got %v", err)
	}
}

func TestAPIErrorSurfacesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"insufficient_funds","message":"insufficient funds"}`))
	}))
	defer srv.Close()

	_, err := runCLI(t, "--url", srv.URL, "admin", "approve", "txn-3")

	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apiError, got %v", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Code != "insufficient_funds" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := runCLI(t, "migrate", "up")
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected missing database url error, got %v", err)
	}
}
