package translate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/batchxlate/pkg/batchexecute"
	"github.com/dasmlab/batchxlate/pkg/language"
	"github.com/dasmlab/batchxlate/pkg/transport"
)

// emptySegmentsResponse is well formed but carries an empty segment list.
const emptySegmentsResponse = ")]}'\n\n" + `[["wrb.fr","MkEWBc","[null,[[[null,null,null,null,null,[[null,null,null,null,[]]]]]]]",null,null,null,"generic"]]`

const helloWorldResponse = ")]}'\n\n" + `[["wrb.fr","MkEWBc","[[null,null,null,[[[0,[[[null,11]],[true]]]],11],[[\"Hello World\",null,null,11]]],[[[null,null,null,true,null,[[\"Hallo Welt\",null,null,null,[[\"Hallo Welt\",[2,5],[]]]]]]],\"de\",1,\"en\",[\"Hello World\",\"en\",\"de\",true]],\"en\"]",null,null,null,"generic"],["di",24],["af.httprm",23,"5824192319104021461",28]]`

// stubTransport returns a canned response and records request bodies.
type stubTransport struct {
	mu       sync.Mutex
	response string
	err      error
	bodies   [][]byte
}

func (s *stubTransport) Post(ctx context.Context, body []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies = append(s.bodies, body)
	return s.response, s.err
}

// failingTransport fails the test if it is ever called.
type failingTransport struct {
	t *testing.T
}

func (f failingTransport) Post(ctx context.Context, body []byte) (string, error) {
	f.t.Helper()
	f.t.Fatalf("transport called with %d bytes", len(body))
	return "", nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestTranslate_InvalidInputSkipsTransport(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		target language.LanguageCode
	}{
		{"empty text", "", language.English},
		{"5001 bytes", strings.Repeat("a", MaxTextLength+1), language.English},
		{"2501 two-byte characters", strings.Repeat("ü", MaxTextLength/2+1), language.English},
		{"2000 CJK characters", strings.Repeat("漢", 2000), language.English},
		{"auto target", "test", language.Auto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(failingTransport{t: t}, quietLogger())
			got, err := c.Translate(context.Background(), tt.text, language.German, tt.target)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("error = %v, want ErrInvalidInput", err)
			}
			if got != nil {
				t.Errorf("segments = %q, want nil", got)
			}
		})
	}
}

func TestTranslate_LengthBoundary(t *testing.T) {
	// The limit counts UTF-8 bytes: 5000 ASCII or 2500 two-byte characters.
	for _, text := range []string{
		strings.Repeat("a", MaxTextLength),
		strings.Repeat("ü", MaxTextLength/2),
	} {
		stub := &stubTransport{response: helloWorldResponse}
		c := NewClient(stub, quietLogger())

		if _, err := c.Translate(context.Background(), text, language.German, language.English); err != nil {
			t.Fatalf("Translate(%d bytes): %v", len(text), err)
		}
		if len(stub.bodies) != 1 {
			t.Errorf("transport called %d times, want 1", len(stub.bodies))
		}
	}
}

func TestTranslate_Success(t *testing.T) {
	stub := &stubTransport{response: helloWorldResponse}
	c := NewClient(stub, quietLogger())

	got, err := c.Translate(context.Background(), "Hello World", language.English, language.German)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if want := []string{"Hallo Welt"}; !reflect.DeepEqual(got, want) {
		t.Errorf("segments = %q, want %q", got, want)
	}

	if len(stub.bodies) != 1 {
		t.Fatalf("transport called %d times, want 1", len(stub.bodies))
	}
	want := batchexecute.EncodeRequest("Hello World", language.English, language.German)
	if string(stub.bodies[0]) != string(want) {
		t.Errorf("body = %s, want %s", stub.bodies[0], want)
	}
}

func TestTranslate_TransportError(t *testing.T) {
	cause := &transport.StatusError{StatusCode: http.StatusServiceUnavailable, Status: "503 Service Unavailable"}
	stub := &stubTransport{err: cause}
	c := NewClient(stub, quietLogger())

	_, err := c.Translate(context.Background(), "test", language.German, language.English)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("error = %v, want ErrTransport", err)
	}
	var se *transport.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("underlying status error not preserved: %v", err)
	}
	if errors.Is(err, ErrMalformedResponse) {
		t.Error("transport error also matches ErrMalformedResponse")
	}
	if len(stub.bodies) != 1 {
		t.Errorf("transport called %d times, want exactly 1 (no retries)", len(stub.bodies))
	}
}

func TestTranslate_MalformedResponse(t *testing.T) {
	before := testutil.ToFloat64(decodeFailuresTotal.WithLabelValues(batchexecute.TranslateRPCID, batchexecute.StepParseEnvelope))

	stub := &stubTransport{response: ")]}'\n\nnot json"}
	c := NewClient(stub, quietLogger())

	got, err := c.Translate(context.Background(), "test", language.German, language.English)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
	if got != nil {
		t.Errorf("segments = %q, want nil", got)
	}
	var de *batchexecute.DecodeError
	if !errors.As(err, &de) || de.Step != batchexecute.StepParseEnvelope {
		t.Errorf("error = %v, want decode error at %q", err, batchexecute.StepParseEnvelope)
	}

	after := testutil.ToFloat64(decodeFailuresTotal.WithLabelValues(batchexecute.TranslateRPCID, batchexecute.StepParseEnvelope))
	if after != before+1 {
		t.Errorf("decode failure counter went from %v to %v", before, after)
	}
}

func TestTranslate_ConcurrentCalls(t *testing.T) {
	stub := &stubTransport{response: helloWorldResponse}
	c := NewClient(stub, quietLogger())

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Translate(context.Background(), "Hello World", language.English, language.German); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Translate: %v", err)
	}
	if len(stub.bodies) != 16 {
		t.Errorf("transport called %d times, want 16", len(stub.bodies))
	}
}

func TestCheckHealth(t *testing.T) {
	stub := &stubTransport{response: helloWorldResponse}
	c := NewClient(stub, quietLogger())
	if err := c.CheckHealth(context.Background()); err != nil {
		t.Errorf("CheckHealth: %v", err)
	}

	stub = &stubTransport{response: emptySegmentsResponse}
	c = NewClient(stub, quietLogger())
	err := c.CheckHealth(context.Background())
	if !errors.Is(err, ErrNoSegments) {
		t.Errorf("CheckHealth error = %v, want ErrNoSegments", err)
	}
	if errors.Is(err, ErrMalformedResponse) {
		t.Error("empty but well-formed response reported as malformed")
	}

	stub = &stubTransport{err: errors.New("connection refused")}
	c = NewClient(stub, quietLogger())
	if err := c.CheckHealth(context.Background()); !errors.Is(err, ErrTransport) {
		t.Errorf("CheckHealth error = %v, want ErrTransport", err)
	}
}

func TestSupportedLanguages(t *testing.T) {
	c := NewClient(failingTransport{t: t}, quietLogger())
	got, err := c.SupportedLanguages(context.Background())
	if err != nil {
		t.Fatalf("SupportedLanguages: %v", err)
	}
	if !reflect.DeepEqual(got, language.All()) {
		t.Errorf("SupportedLanguages returned %d codes, want the full catalog", len(got))
	}
}

func TestNewTranslator(t *testing.T) {
	tests := []struct {
		name        string
		endpoint    string
		expectError bool
	}{
		{"default endpoint", "", false},
		{"http endpoint", "http://127.0.0.1:9999/batchexecute", false},
		{"ftp endpoint", "ftp://example.test/batchexecute", true},
		{"unparseable endpoint", "http://[::1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTranslator(Config{Endpoint: tt.endpoint, Logger: quietLogger()})
			if tt.expectError {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewTranslator: %v", err)
			}
			if tr == nil {
				t.Fatal("NewTranslator returned nil")
			}
		})
	}
}

func TestTranslate_ThroughHTTPTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.HasPrefix(string(body), "f.req=") {
			t.Errorf("unexpected body %q", body)
		}
		io.WriteString(w, helloWorldResponse)
	}))
	defer srv.Close()

	tr, err := NewTranslator(Config{Endpoint: srv.URL, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}
	got, err := tr.Translate(context.Background(), "Hello World", language.English, language.German)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(got) != 1 || got[0] != "Hallo Welt" {
		t.Errorf("segments = %q", got)
	}
}

// TestTranslate_Live talks to the real endpoint.
func TestTranslate_Live(t *testing.T) {
	if os.Getenv("BATCHXLATE_LIVE") != "1" {
		t.Skip("Skipping live test: BATCHXLATE_LIVE not set")
	}

	tr, err := NewTranslator(Config{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}
	got, err := tr.Translate(context.Background(), "test", language.German, language.English)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("no segments returned")
	}
	t.Logf("Translation of 'test': %q", got)
}
