package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fakeService(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ai/analyze-report" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if _, _, err := r.FormFile("image"); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"Falta imagen"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bache.jpg")
	if err := os.WriteFile(path, []byte("\xff\xd8\xff\xe0fake-jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != Version {
		t.Errorf("got %q", out)
	}
}

func TestClassifyPrintsDraftAndAdvisory(t *testing.T) {
	srv := fakeService(t, `{"categoria":"bache","gravedad":"alta","descripcion":"Bache grande","confianza":0.4}`)

	out, err := run(t, "--server", srv.URL, "classify", writeImage(t))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"categoria": "bache"`, `"category": "Infraestructura"`, `"urgency": "Alta"`, `"needsReview": true`, "Confianza baja (0.40)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestClassifyServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"upstream down"}`))
	}))
	defer srv.Close()

	_, err := run(t, "--server", srv.URL, "classify", writeImage(t))
	if err == nil || !strings.Contains(err.Error(), "upstream down") {
		t.Fatalf("got %v", err)
	}
}

func TestSubmitAndList(t *testing.T) {
	srv := fakeService(t, `{"categoria":"Basura","gravedad":"Media","descripcion":"Basura acumulada","confianza":0.9}`)
	storePath := filepath.Join(t.TempDir(), "reports.db")
	image := writeImage(t)

	out, err := run(t, "--server", srv.URL, "--store", storePath, "submit", image, "--lat", "19.4326", "--lon=-99.1332")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "guardado: Salubridad (Media)") {
		t.Errorf("submit output: %s", out)
	}

	_, err = run(t, "--server", srv.URL, "--store", storePath, "submit", image, "--lat", "19.43", "--lon=-99.13",
		"--category", "choque", "--urgency", "alta")
	if err != nil {
		t.Fatal(err)
	}

	out, err = run(t, "--store", storePath, "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Asignados: 2  Mostrados: 2") {
		t.Errorf("list output: %s", out)
	}

	out, err = run(t, "--store", storePath, "list", "--authority-areas", "Movilidad", "--urgency", "Alta")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Asignados: 1  Mostrados: 1") || !strings.Contains(out, "Movilidad") {
		t.Errorf("filtered list output: %s", out)
	}
	if strings.Contains(out, "Salubridad") {
		t.Errorf("unexpected report in filtered list: %s", out)
	}
}

func TestSubmitRequiresCategory(t *testing.T) {
	srv := fakeService(t, `{"categoria":"algo raro","gravedad":"Baja","descripcion":"No se distingue","confianza":0.3}`)
	storePath := filepath.Join(t.TempDir(), "reports.db")

	_, err := run(t, "--server", srv.URL, "--store", storePath, "submit", writeImage(t), "--lat", "1", "--lon", "2")
	if err == nil || !strings.Contains(err.Error(), "category must be confirmed") {
		t.Fatalf("got %v", err)
	}

	out, err := run(t, "--store", storePath, "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Asignados: 0") {
		t.Errorf("nothing should be stored: %s", out)
	}
}

func TestServerFromEnvironment(t *testing.T) {
	srv := fakeService(t, `{"categoria":"Seguridad","gravedad":"Alta","descripcion":"Asalto","confianza":0.8}`)
	t.Setenv("REPORTCTL_SERVER", srv.URL)

	out, err := run(t, "classify", writeImage(t))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"category": "Seguridad"`) {
		t.Errorf("output: %s", out)
	}
}
